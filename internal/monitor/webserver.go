// Package monitor exposes the risk engine over HTTP: point and averaged
// evaluations, sweep runs, stored-study charts, and a debug mux with live
// SQL access to the study database.
package monitor

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/oceanic-safety/cdp.report/internal/config"
	"github.com/oceanic-safety/cdp.report/internal/risk"
	"github.com/oceanic-safety/cdp.report/internal/riskdb"
)

// WebServer handles the HTTP interface for the risk engine.
type WebServer struct {
	address string
	model   *risk.Model
	cfg     *config.EngineConfig
	db      *riskdb.DB
	store   *riskdb.StudyStore
	server  *http.Server
	workers int
}

// WebServerConfig contains configuration options for the web server. DB
// is optional; without it sweep persistence and the SQL debugger are
// disabled.
type WebServerConfig struct {
	Address string
	Model   *risk.Model
	Engine  *config.EngineConfig
	DB      *riskdb.DB
}

// NewWebServer creates a web server with the provided configuration.
func NewWebServer(cfg WebServerConfig) *WebServer {
	engine := cfg.Engine
	if engine == nil {
		engine = config.EmptyEngineConfig()
	}

	ws := &WebServer{
		address: cfg.Address,
		model:   cfg.Model,
		cfg:     engine,
		db:      cfg.DB,
		workers: engine.GetSweepWorkers(),
	}
	if cfg.DB != nil {
		ws.store = riskdb.NewStudyStore(cfg.DB)
	}

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}
	return ws
}

// Start begins the HTTP server in a goroutine and handles graceful
// shutdown when the context is cancelled.
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		log.Printf("Starting HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Printf("HTTP server routine stopped")
	return nil
}

// setupRoutes configures the HTTP routes and handlers.
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/risk/point", ws.handlePointRisk)
	mux.HandleFunc("/api/risk/averaged", ws.handleAveragedRisk)
	mux.HandleFunc("/api/risk/sweep", ws.handleSweep)
	mux.HandleFunc("/api/risk/studies", ws.handleStudies)
	mux.HandleFunc("/charts/study", ws.handleStudyChart)

	if ws.db != nil {
		debug := tsweb.Debugger(mux)

		tsql, err := tailsql.NewServer(tailsql.Options{
			RoutePrefix: "/debug/tailsql/",
		})
		if err != nil {
			log.Fatalf("failed to create tailsql server: %v", err)
		}
		tsql.SetDB("sqlite://studies.db", ws.db.DB, &tailsql.DBOptions{
			Label: "Risk studies DB",
		})

		// mount the tailSQL server on the debug /tailsql path
		debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
	}

	return mux
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
