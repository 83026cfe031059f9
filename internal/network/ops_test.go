package network

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/domain/experience"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/domain/secret"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/engine"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/events"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/platform/logger"
)

func testEngine() *engine.Engine {
	cfg := engine.Config{
		Cards: []experience.CardDefinition{
			{ID: 1, AnswerDigest: secret.Digest("vela"), Asset: "card_1"},
		},
		FinalAnswerDigest: secret.Digest("luz"),
		TestMode:          true,
	}
	eng := engine.New(cfg, events.NewEventLog(nil), logger.NewLogger(), nil)
	eng.Start()
	return eng
}

func TestStatusReturnsSnapshot(t *testing.T) {
	bridge := NewOpsBridge(testEngine(), logger.NewLogger())

	rec := httptest.NewRecorder()
	bridge.HandleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Snapshot engine.Snapshot `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "HOME", resp.Snapshot.Step)
	assert.True(t, resp.Snapshot.Countdown.Unlocked)
	assert.Equal(t, 1, resp.Snapshot.TotalCards)
}

func TestResetReturnsSessionToHome(t *testing.T) {
	eng := testEngine()
	eng.Advance()
	eng.Advance()
	require.Equal(t, experience.StepName, eng.Step())

	bridge := NewOpsBridge(eng, logger.NewLogger())
	rec := httptest.NewRecorder()
	bridge.HandleReset(rec, httptest.NewRequest(http.MethodPost, "/api/reset", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, experience.StepHome, eng.Step())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "HOME", resp["step"])
}

func TestResetRejectsGet(t *testing.T) {
	bridge := NewOpsBridge(testEngine(), logger.NewLogger())

	rec := httptest.NewRecorder()
	bridge.HandleReset(rec, httptest.NewRequest(http.MethodGet, "/api/reset", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
