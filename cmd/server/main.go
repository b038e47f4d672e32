/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave platform server. Handles configuration,
  dependency wiring, optional seeding, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Open the SQLite store
  3. Optionally seed company settings and the default leave-type catalog
  4. Wire the service, handler, and router
  5. Start the server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: leave.db, ":memory:" supported)
  -seed    Company ID to seed with default settings and leave types
  -config  Optional JSON settings file applied to the seeded company

EXAMPLES:
  # Fresh local instance with a demo company
  ./server -db=":memory:" -seed=co-demo

  # Production-ish: file database, policy from JSON
  ./server -db=./data/leave.db -seed=co-1 -config=./config/leave.json

SEE ALSO:
  - api/server.go: Router configuration
  - factory/config.go: JSON parsing and the default catalog
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/engine"
	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/store/sqlite"
)

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "leave.db", "SQLite database path")
	seedCompany := flag.String("seed", "", "company ID to seed with default settings and leave types")
	configPath := flag.String("config", "", "JSON settings file for the seeded company")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if *seedCompany != "" {
		if err := seed(context.Background(), store, *seedCompany, *configPath); err != nil {
			log.Error("failed to seed company", "company_id", *seedCompany, "error", err)
			os.Exit(1)
		}
		log.Info("company seeded", "company_id", *seedCompany)
	}

	svc := leave.NewService(store, log)
	router := api.NewRouter(api.NewHandler(svc, store, log))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting", "addr", fmt.Sprintf("http://localhost:%d", *port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// seed installs the company's settings (from JSON when provided, defaults
// otherwise) and the standard leave-type catalog.
func seed(ctx context.Context, store *sqlite.Store, companyID, configPath string) error {
	settings := engine.DefaultSettings(companyID)
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		settings, err = factory.ParseSettings(data)
		if err != nil {
			return err
		}
		settings.CompanyID = companyID
	}
	if err := store.SaveSettings(ctx, settings); err != nil {
		return err
	}

	for _, lt := range factory.DefaultLeaveTypes() {
		if err := store.SaveLeaveType(ctx, companyID, lt); err != nil {
			return err
		}
	}
	return nil
}
