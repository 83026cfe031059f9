package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
server:
  addr: ":9090"
storage:
  engine: sqlite
  sqlite_path: test.db
experience:
  test_mode: true
  final_answer_digest: "c6ce5f796115921afe158021f045e7c6d6820383191907ff6add8b3f502082a1"
  cards:
    - id: 1
      answer_digest: "c6ce5f796115921afe158021f045e7c6d6820383191907ff6add8b3f502082a1"
      asset: card_1
    - id: 2
      answer_digest: "c6ce5f796115921afe158021f045e7c6d6820383191907ff6add8b3f502082a1"
      asset: card_2
assets:
  base_url: "https://cdn.example.com/velada"
  manifest:
    card_1: cards/1.webp
    card_2: cards/2.webp
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Storage.Engine)
	assert.True(t, cfg.Experience.TestMode)
	assert.Equal(t, 3, cfg.Experience.CarouselWindow, "window defaults to 3")
	assert.Len(t, cfg.Experience.Cards, 2)

	cards := cfg.CardDefinitions()
	require.Len(t, cards, 2)
	assert.Equal(t, 1, cards[0].ID)
	assert.Equal(t, "card_1", cards[0].Asset)
}

func TestLoadRejectsDuplicateCardIDs(t *testing.T) {
	bad := strings.Replace(validYAML, "- id: 2", "- id: 1", 1)
	_, err := Load(writeConfig(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate card id")
}

func TestLoadRejectsMalformedDigest(t *testing.T) {
	bad := strings.Replace(validYAML,
		"final_answer_digest: \"c6ce5f796115921afe158021f045e7c6d6820383191907ff6add8b3f502082a1\"",
		"final_answer_digest: \"not-a-digest\"", 1)
	_, err := Load(writeConfig(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "final_answer_digest")
}

func TestLoadRequiresUnlockAtWithoutTestMode(t *testing.T) {
	bad := strings.Replace(validYAML, "test_mode: true", "test_mode: false", 1)
	_, err := Load(writeConfig(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unlock_at")
}

func TestLoadRejectsUnknownStorageEngine(t *testing.T) {
	bad := strings.Replace(validYAML, "engine: sqlite", "engine: cassandra", 1)
	_, err := Load(writeConfig(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage engine")
}

func TestLoadRequiresPostgresDSN(t *testing.T) {
	bad := strings.Replace(validYAML, "engine: sqlite", "engine: postgres", 1)
	_, err := Load(writeConfig(t, bad))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres_dsn")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VELADA_ADDR", ":7777")
	t.Setenv("VELADA_SQLITE_PATH", "/var/lib/velada/velada.db")

	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.Server.Addr)
	assert.Equal(t, "/var/lib/velada/velada.db", cfg.Storage.SQLitePath)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
