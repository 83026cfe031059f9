// Package main is the entry point for the Velada de las Luces server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/config"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/domain/experience"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/engine"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/events"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/infra/assets"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/infra/storage"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/network"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/platform/logger"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/platform/metrics"
	"github.com/AVendrellCasas/VeladaDeLuces/server/internal/platform/tuning"
)

// The server hosts exactly one evening at a time.
const sessionID = "VELADA_1"

// LedgerPersisterAdapter translates domain events to storage events.
type LedgerPersisterAdapter struct {
	repo storage.EventRepository
}

func (a *LedgerPersisterAdapter) Append(event events.SessionEvent) error {
	payloadBytes, _ := json.Marshal(event.Payload)
	var payloadMap map[string]interface{}
	json.Unmarshal(payloadBytes, &payloadMap)

	storageEvent := storage.SessionEvent{
		ID:        event.ID,
		SessionID: sessionID,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		Actor:     event.Actor,
		Step:      event.Step,
		Payload:   payloadMap,
	}
	return a.repo.Append(context.Background(), storageEvent)
}

// resolveCardAssets swaps logical asset names for loadable locators before the
// engine sees them. A name missing from the manifest is a configuration bug.
func resolveCardAssets(cards []experience.CardDefinition, resolver *assets.Resolver, appLogger *logger.Logger) []experience.CardDefinition {
	resolved := make([]experience.CardDefinition, 0, len(cards))
	for _, card := range cards {
		locator, err := resolver.Resolve(card.Asset)
		if err != nil {
			appLogger.Error("Failed to resolve asset for card: " + err.Error())
			os.Exit(1)
		}
		card.Asset = locator
		resolved = append(resolved, card)
	}
	return resolved
}

func main() {
	log.Println("[VELADA-SERVER] Initializing 'Velada de las Luces' Authoritative Server...")

	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	flag.Parse()

	appLogger := logger.NewLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.Error("Failed to load configuration: " + err.Error())
		os.Exit(1)
	}

	tune := tuning.DefaultConfig()

	appLogger.Info("Initializing telemetry store (" + cfg.Storage.Engine + ")...")
	var eventRepo storage.EventRepository
	var snapRepo storage.SnapshotRepository
	switch cfg.Storage.Engine {
	case "postgres":
		db, err := storage.OpenPostgres(cfg.Storage.PostgresDSN)
		if err != nil {
			appLogger.Error("Failed to initialize PostgreSQL: " + err.Error())
			os.Exit(1)
		}
		db.SetMaxOpenConns(tune.DBMaxOpenConns)
		db.SetMaxIdleConns(tune.DBMaxIdleConns)
		eventRepo = storage.NewPostgresEventRepository(db)
	default:
		db, err := storage.InitSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			appLogger.Error("Failed to initialize SQLite: " + err.Error())
			os.Exit(1)
		}
		db.SetMaxOpenConns(tune.DBMaxOpenConns)
		db.SetMaxIdleConns(tune.DBMaxIdleConns)
		eventRepo = storage.NewSQLiteEventRepository(db)
		snapRepo = storage.NewSQLiteSnapshotRepository(db)
	}
	eventPersister := &LedgerPersisterAdapter{repo: storage.NewBreakerEventRepository(eventRepo)}

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLog(eventPersister)

	cards := cfg.CardDefinitions()
	if len(cfg.Assets.Manifest) > 0 {
		resolver := assets.NewResolver(cfg.Assets.BaseURL, cfg.Assets.Manifest)
		cards = resolveCardAssets(cards, resolver, appLogger)
	}

	appLogger.Info("Bootstrapping Session Engine...")
	sessionEngine := engine.New(engine.Config{
		Cards:             cards,
		FinalAnswerDigest: cfg.Experience.FinalAnswerDigest,
		UnlockAt:          cfg.Experience.UnlockAt,
		TestMode:          cfg.Experience.TestMode,
		CarouselWindow:    cfg.Experience.CarouselWindow,
	}, eventLog, appLogger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(sessionEngine, tune, appLogger)
	sessionEngine.Subscribe(hub.BroadcastSnapshot)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, eventLog)

	sessionEngine.Start()

	// Automated progress backup routine. Telemetry only: the session always
	// boots empty and this row is never read back into the engine.
	if snapRepo != nil {
		go func() {
			backupTicker := time.NewTicker(5 * time.Second)
			defer backupTicker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-backupTicker.C:
					snap := sessionEngine.Snapshot()
					_ = snapRepo.Upsert(ctx, storage.SessionSnapshot{
						SessionID:   sessionID,
						DisplayName: snap.DisplayName,
						Step:        snap.Step,
						SolvedCount: len(snap.SolvedCardIDs),
						SolvedIDs:   snap.SolvedCardIDs,
						FinalSolved: snap.FinalSolved,
						Unlocked:    snap.Countdown.Unlocked,
						LastUpdated: time.Now(),
					})
				}
			}
		}()
	}

	// Setup API routes
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(hub, w, r, appLogger)
	})

	replayHandler := network.NewReplayHandler(eventLog, appLogger)
	replayHandler.RegisterRoutes(mux)

	opsBridge := network.NewOpsBridge(sessionEngine, appLogger)
	opsBridge.RegisterRoutes(mux)

	mux.HandleFunc("/metrics", metrics.Handler())
	mux.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: mux,
	}

	go func() {
		log.Printf("[VELADA-SERVER] HTTP API & WS Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[VELADA-SERVER] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[VELADA-SERVER] Shutting down...")
	sessionEngine.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow cross-origin requests for the frontend dev server
	},
}

// serveWs handles websocket requests from the peer.
func serveWs(hub *network.Hub, w http.ResponseWriter, r *http.Request, log *logger.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade websocket connection")
		return
	}

	client := network.NewClient(hub, conn)
	client.Register()

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
