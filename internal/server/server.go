// Package server orchestrates all components: NATS client, memory adapter,
// registry, gateway, dispatcher, HTTP health.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/bridge-gateway/internal/config"
	"github.com/morezero/bridge-gateway/pkg/agents/creator"
	"github.com/morezero/bridge-gateway/pkg/agents/education"
	"github.com/morezero/bridge-gateway/pkg/agents/finance"
	"github.com/morezero/bridge-gateway/pkg/bootstrap"
	"github.com/morezero/bridge-gateway/pkg/commsutil"
	"github.com/morezero/bridge-gateway/pkg/dispatcher"
	"github.com/morezero/bridge-gateway/pkg/enrich"
	"github.com/morezero/bridge-gateway/pkg/events"
	"github.com/morezero/bridge-gateway/pkg/gateway"
	"github.com/morezero/bridge-gateway/pkg/memory"
	"github.com/morezero/bridge-gateway/pkg/modules/mathmod"
	"github.com/morezero/bridge-gateway/pkg/modules/sampletext"
	"github.com/morezero/bridge-gateway/pkg/modules/validation"
	"github.com/morezero/bridge-gateway/pkg/noopur"
	"github.com/morezero/bridge-gateway/pkg/registry"
)

const logPrefix = "server:server"

// Server is the bridge-gateway orchestrator.
type Server struct {
	cfg        *config.Config
	nc         *comms.Conn
	httpServer *http.Server
	gw         *gateway.Gateway
}

// moduleFactories maps manifest names to the bundled module constructors.
func moduleFactories() map[string]bootstrap.Factory {
	return map[string]bootstrap.Factory{
		"example_math":       func() registry.Handler { return mathmod.New() },
		"example_validation": func() registry.Handler { return validation.New() },
		"sample_text":        func() registry.Handler { return sampletext.New() },
	}
}

// Run starts the server, blocks until shutdown signal, then cleans up.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("%s - failed to load config: %w", logPrefix, err)
	}

	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	if err := cfg.ValidateForServe(); err != nil {
		return err
	}

	slog.Info(fmt.Sprintf("%s - Starting bridge-gateway", logPrefix))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := &Server{cfg: cfg}

	// Step 1: Gateway subject
	gatewaySubject := cfg.GatewaySubject
	if gatewaySubject == "" {
		gatewaySubject = commsutil.SubjectGateway
	}
	slog.Info(fmt.Sprintf("%s - Gateway subject: %s", logPrefix, gatewaySubject))

	// Step 2: Connect to NATS
	nc, err := commsutil.Connect(cfg.COMMSURL, cfg.COMMSName)
	if err != nil {
		return fmt.Errorf("%s - failed to connect to NATS: %w", logPrefix, err)
	}
	s.nc = nc

	// Step 3: Remote generation client
	noopurClient := noopur.NewClient(noopur.Config{
		BaseURL: cfg.NoopurBaseURL,
		APIKey:  cfg.NoopurAPIKey,
		Enabled: cfg.UseNoopur,
		Timeout: cfg.NoopurTimeout,
	})

	// Step 4: Memory adapter (document store > remote > local embedded)
	mem, err := memory.New(ctx, memory.Config{
		SQLitePath:  cfg.DBPath,
		UseDocStore: cfg.UseDocStore,
		DatabaseURL: cfg.DatabaseURL,
		UseRemote:   cfg.UseRemoteMemory,
	}, noopurClient)
	if err != nil {
		nc.Close()
		return fmt.Errorf("%s - failed to construct memory adapter: %w", logPrefix, err)
	}

	// Step 4b: Run document-store migrations if enabled
	if cfg.RunMigrations {
		if store, ok := mem.(*memory.DocStore); ok {
			migrationSQL, err := memory.LoadMigrationFiles(cfg.MigrationPath)
			if err != nil {
				nc.Close()
				return fmt.Errorf("%s - failed to load migrations: %w", logPrefix, err)
			}
			if err := memory.RunMigrations(ctx, store.Pool(), migrationSQL); err != nil {
				nc.Close()
				return fmt.Errorf("%s - failed to run migrations: %w", logPrefix, err)
			}
		}
	}

	// Step 5: Built-in agents and discovered modules
	enricher := enrich.New(mem, noopurClient)
	builtins := map[string]registry.Handler{
		"finance":   finance.New(),
		"education": education.New(),
		"creator":   creator.New(enricher, noopurClient),
	}

	manifest := bootstrap.LoadManifest(cfg.ModuleManifest)
	discovered, discoveryErrs := bootstrap.Discover(manifest, moduleFactories())
	reg := registry.Build(builtins, discovered, discoveryErrs)
	slog.Info(fmt.Sprintf("%s - Registry built with %d handlers", logPrefix, reg.Len()))

	// Step 6: Gateway with interaction event publishing
	publisherOpts := &events.CommsPublisherOpts{}
	if cfg.EventSubject != "" {
		publisherOpts.GlobalSubject = cfg.EventSubject
	}
	gw := gateway.New(gateway.Params{
		Registry:  reg,
		Memory:    mem,
		Enricher:  enricher,
		Publisher: events.NewCommsPublisher(nc, publisherOpts),
		Remote:    noopurClient,
	})
	s.gw = gw

	// Step 7: Create dispatcher and subscribe
	disp := dispatcher.NewDispatcher(gw)
	requestTimeout := cfg.RequestTimeout

	sub, err := nc.Subscribe(gatewaySubject, func(msg *comms.Msg) {
		var req dispatcher.CoreRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to decode request: %v", logPrefix, err))
			resp := &dispatcher.CoreResponse{
				Ok: false,
				Error: &dispatcher.ErrorDetail{
					Code:    "INVALID_REQUEST",
					Message: "Failed to decode request",
				},
			}
			data, _ := json.Marshal(resp)
			msg.Respond(data)
			return
		}

		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		resp := disp.Dispatch(reqCtx, &req)

		data, err := json.Marshal(resp)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
			return
		}
		msg.Respond(data)
	})
	if err != nil {
		nc.Close()
		return fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, gatewaySubject, err)
	}
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", logPrefix, gatewaySubject))

	// Step 8: HTTP health and read endpoints
	s.startHTTP()

	// Step 9: Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info(fmt.Sprintf("%s - Shutdown signal received", logPrefix))

	sub.Unsubscribe()
	if s.httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		s.httpServer.Shutdown(shutdownCtx)
	}
	nc.Close()
	if closer, ok := mem.(interface{ Close() error }); ok {
		closer.Close()
	} else if closer, ok := mem.(interface{ Close() }); ok {
		closer.Close()
	}

	slog.Info(fmt.Sprintf("%s - Shutdown complete", logPrefix))
	return nil
}

// startHTTP serves the health endpoint plus the history/context read
// endpoints. Dispatch itself happens over NATS only.
func (s *Server) startHTTP() {
	addr := s.cfg.HTTPAddr
	if addr == "" {
		addr = fmt.Sprintf("0.0.0.0:%d", s.cfg.HTTPPort)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "Bridge Gateway API",
			"version": "1.0.0",
		})
	})

	mux.HandleFunc("/system/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.cfg.HealthCheckTimeout)
		defer cancel()
		writeJSON(w, http.StatusOK, s.gw.Health(ctx))
	})

	mux.HandleFunc("/get-history", func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}
		history, err := s.gw.UserHistory(r.Context(), userID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, history)
	})

	mux.HandleFunc("/get-context", func(w http.ResponseWriter, r *http.Request) {
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}
		items, err := s.gw.UserContext(r.Context(), userID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, items)
	})

	s.httpServer = &http.Server{Addr: addr, Handler: mux}
	go func() {
		slog.Info(fmt.Sprintf("%s - HTTP listening on %s", logPrefix, addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error(fmt.Sprintf("%s - HTTP server failed: %v", logPrefix, err))
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
