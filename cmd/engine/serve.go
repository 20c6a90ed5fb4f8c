package main

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"signalsdr-engine/internal/config"
	"signalsdr-engine/internal/events"
	"signalsdr-engine/internal/httpapi"
	"signalsdr-engine/internal/orchestrator"
	"signalsdr-engine/internal/scheduler"
	"signalsdr-engine/internal/state"
	"signalsdr-engine/internal/store"
)

func newServeCommand() *cobra.Command {
	var (
		addr       string
		noSchedule bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and scheduled scans",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = a.log.Sync() }()
			log := a.log

			var cfgVal atomic.Value // stores config.Config
			cfgVal.Store(a.cfg)
			loadCfg := func() (config.Config, error) {
				cfg, err := config.Load(a.cfgPath)
				if err != nil {
					return cfg, err
				}
				cfg, vr := config.NormalizeAndValidate(cfg)
				if !vr.OK() {
					return cfg, fmt.Errorf("invalid config: %v", vr.Errors)
				}
				return cfg, nil
			}

			db, err := store.Open(a.dbPath())
			if err != nil {
				return fmt.Errorf("open draft store: %w", err)
			}
			defer db.Close()

			fs, err := state.NewFileStore(a.statePath())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			hub := events.NewHub()
			e := &engine{state: fs, db: db, events: hub, log: log}
			runScan := func(ctx context.Context, opts orchestrator.Options) (orchestrator.Summary, error) {
				cfg := cfgVal.Load().(config.Config)
				return e.scan(ctx, cfg, cfg.App.Targets, opts)
			}

			tracker := &httpapi.ScanTracker{}
			mux := httpapi.NewMux(httpapi.Deps{
				DB:          db.Pool,
				Hub:         hub,
				Log:         log,
				CfgVal:      &cfgVal,
				UserCfgPath: a.cfgPath,
				LoadCfg:     loadCfg,
				State:       fs,
				Scans:       tracker,
				RunScan:     runScan,
				BaseCtx:     ctx,
			})

			if addr == "" {
				addr = fmt.Sprintf("127.0.0.1:%d", a.cfg.App.Port)
			}
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}

			srv := &http.Server{ReadHeaderTimeout: 5 * time.Second}
			token := os.Getenv("SIGNALSDR_SHUTDOWN_TOKEN")
			if token == "" {
				if token, err = randomToken(16); err != nil {
					return err
				}
			}
			mux.HandleFunc("/shutdown", shutdownHandler(token, srv))
			srv.Handler = httpapi.Chain(mux, httpapi.RequestID, httpapi.Recover(log), httpapi.AccessLog(log), httpapi.Cors)

			if interval := a.cfg.RunInterval(); interval > 0 && !noSchedule {
				go scheduler.Every(ctx, interval, "scan", log, func(ctx context.Context) error {
					if !tracker.Begin(time.Now(), false) {
						log.Info("scan already running, skipping scheduled run")
						return nil
					}
					sum, err := runScan(ctx, orchestrator.Options{RequestID: "scheduler"})
					tracker.Finish(time.Now(), sum, err)
					return err
				})
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			log.Info("engine listening",
				zap.String("addr", "http://"+ln.Addr().String()),
				zap.String("state", a.statePath()),
				zap.String("db", a.dbPath()),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "SHUTDOWN_TOKEN=%s\n", token)

			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default 127.0.0.1:<app.port>)")
	cmd.Flags().BoolVar(&noSchedule, "no-schedule", false, "serve the API without scheduled scans")
	return cmd
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// shutdownHandler stops the server for a local caller holding the token.
func shutdownHandler(token string, srv *http.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if host != "127.0.0.1" && host != "::1" && host != "localhost" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		got := r.Header.Get("X-Shutdown-Token")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Respond immediately, then shutdown asynchronously
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("shutting down\n"))

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}
}
