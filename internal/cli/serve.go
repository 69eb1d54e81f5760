package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/go-notetaker/internal/logging"
	"github.com/alnah/go-notetaker/internal/metrics"
	"github.com/alnah/go-notetaker/internal/server"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd creates the serve command.
func ServeCmd(env *Env, version string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API.

Endpoints:
  POST /process-audio   multipart upload (field "audio") -> transcript and notes
  POST /notes           {"transcript": "..."} -> {"markdown": "..."}
  GET  /healthz         liveness
  GET  /metrics         Prometheus metrics

POST endpoints require a bearer token signed with JWT_SECRET when it is set
(see "notetaker token").`,
		Example: `  notetaker serve
  notetaker serve --addr 127.0.0.1:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), env, addr, version)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: HTTP_ADDR or :3000)")
	return cmd
}

func runServe(ctx context.Context, env *Env, addr, version string) error {
	cfg, log, err := loadConfig(env)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.HTTPAddr = addr
	}

	m := metrics.New()
	p, err := buildPipeline(ctx, env, cfg, log, pipelineSetup{
		tempDir:     cfg.UploadDir,
		maxParallel: cfg.TranscribeMaxParallel,
		keep:        cfg.KeepSegments,
		notes:       true,
		metrics:     m,
	})
	if err != nil {
		return err
	}

	sum, err := newSummarizer(env, cfg, log)
	if err != nil {
		return err
	}
	srv := server.NewServer(cfg, p, logging.Component(log, "http"),
		server.WithSummarizer(sum),
		server.WithMetrics(m),
		server.WithVersion(version),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
