package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/probquiz/probquiz/internal/answers"
	"github.com/probquiz/probquiz/internal/api"
	"github.com/probquiz/probquiz/internal/config"
	"github.com/probquiz/probquiz/internal/eventlog"
	"github.com/probquiz/probquiz/internal/llm"
	"github.com/probquiz/probquiz/internal/quiz"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sink llm.EventSink = llm.NopSink{}
	if cfg.EventDB != "" {
		elog, err := eventlog.Open(cfg.EventDB)
		if err != nil {
			return fmt.Errorf("open event log: %w", err)
		}
		defer elog.Close()
		sink = elog
	}

	llmCfg := cfg.LLM
	if err := llmCfg.Validate(); err != nil {
		// Fall back to standard provider key env vars before giving up.
		discovered, ok := llm.DiscoverConfig()
		if !ok {
			return fmt.Errorf("configure provider: %w", err)
		}
		llmCfg = discovered
	}

	provider, err := llm.NewProvider(ctx, llmCfg, sink)
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}

	store := answers.NewMemoryStore(answers.WithTTL(cfg.BatchTTL))
	svc := quiz.NewService(provider, store, cfg.Quiz)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Router(api.NewHandler(svc), cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Expired batches that are never re-read would otherwise sit in memory
	// until restart.
	go sweepLoop(ctx, store, cfg.BatchTTL)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("probquiz: listening on %s (provider %s)", cfg.HTTPAddr, provider.ModelID())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Println("probquiz: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func sweepLoop(ctx context.Context, store *answers.MemoryStore, ttl time.Duration) {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				log.Printf("probquiz: swept %d expired batches", n)
			}
		}
	}
}
