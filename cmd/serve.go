package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/khanhnv2901/hdrscan/internal/api"
	"github.com/khanhnv2901/hdrscan/internal/knowledge"
	"github.com/spf13/cobra"
)

type ServeConfig struct {
	Addr            string
	AuthToken       string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	RateLimit       int
	RateBurst       int
	TrustForwarded  bool
	// AnalyzeTimeout caps one /api/v1/analyze call, retries included.
	AnalyzeTimeout time.Duration
}

var serveConfig ServeConfig

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose header analysis as a JSON HTTP API",
	Long: `Run an HTTP server that analyzes one URL per request.

Endpoints:
  GET /api/v1/health
  GET /api/v1/analyze?url=<URL>&lang=<en|es>&brief=<bool>&tech=<bool>
  GET /api/v1/guides?lang=<en|es>

The analyze endpoint returns the same document as "analyze -o json". Request
defaults (timeout, retries, user agent, TLS verification) come from the
configuration file.

The rate limit is keyed on the TCP peer address. Pass --trust-forwarded-for
only behind a reverse proxy that overwrites X-Forwarded-For; otherwise any
client can forge the header and escape its limit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := serveConfig
		server := api.NewServer(api.Config{
			Analysis: &analysisAPIService{
				defaults: cliConfig.Analyze,
				timeout:  cfg.AnalyzeTimeout,
			},
			Guides:            guidesAPIService{},
			AuthToken:         cfg.AuthToken,
			Logger:            logger.Desugar(),
			CORSOrigins:       cfg.CORSOrigins,
			RateLimit:         cfg.RateLimit,
			RateBurst:         cfg.RateBurst,
			TrustForwardedFor: cfg.TrustForwarded,
		})
		defer server.Close()

		httpServer := &http.Server{
			Addr:              cfg.Addr,
			Handler:           server,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      cfg.AnalyzeTimeout + 15*time.Second,
			IdleTimeout:       120 * time.Second,
		}

		out := cmd.OutOrStdout()
		serverErrors := make(chan error, 1)
		go func() {
			fmt.Fprintf(out, "%s API server listening on %s\n", colorInfo("→"), cfg.Addr)
			fmt.Fprintf(out, "%s Press Ctrl+C to gracefully shutdown\n", colorInfo("→"))
			serverErrors <- httpServer.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
		case sig := <-shutdown:
			fmt.Fprintf(out, "\n%s Received signal %v, initiating graceful shutdown...\n", colorInfo("→"), sig)

			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(ctx); err != nil {
				if closeErr := httpServer.Close(); closeErr != nil {
					return fmt.Errorf("failed to gracefully shutdown server: %w (close error: %v)", err, closeErr)
				}
				return fmt.Errorf("failed to gracefully shutdown server: %w", err)
			}
			fmt.Fprintf(out, "%s Server shutdown complete\n", colorSuccess("✓"))
		}
		return nil
	},
}

// analysisAPIService runs scan for the API and encodes the JSON envelope.
type analysisAPIService struct {
	defaults AnalyzeConfig
	timeout  time.Duration
}

func (s *analysisAPIService) Analyze(ctx context.Context, req api.AnalyzeRequest) ([]byte, error) {
	cfg := s.defaults
	cfg.URL = req.URL
	cfg.Brief = req.Brief
	cfg.Tech = req.Tech
	cfg.Raw = false
	cfg.Output = ""
	if req.Lang != "" {
		cfg.Lang = req.Lang
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := scan(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return generateJSONReport(newJSONEnvelope(res.View, res.Now.UTC()))
}

type guidesAPIService struct{}

func (guidesAPIService) Guides(_ context.Context, lang string) ([]knowledge.Guide, error) {
	if lang == "" {
		lang = cliConfig.Defaults.Lang
	}
	kb, err := knowledge.Load(lang)
	if err != nil {
		return nil, err
	}
	return kb.Guides(), nil
}

func init() {
	flags := serveCmd.Flags()
	flags.StringVar(&serveConfig.Addr, "addr", "127.0.0.1:8080", "address for the API server")
	flags.StringVar(&serveConfig.AuthToken, "auth-token", "", "optional shared secret expected in X-Auth-Token")
	flags.DurationVar(&serveConfig.ShutdownTimeout, "shutdown-timeout", 30*time.Second, "graceful shutdown timeout")
	flags.DurationVar(&serveConfig.AnalyzeTimeout, "analyze-timeout", 60*time.Second, "upper bound for one analysis request")
	flags.StringSliceVar(&serveConfig.CORSOrigins, "cors-origins", []string{}, "allowed CORS origins (empty = allow all)")
	flags.IntVar(&serveConfig.RateLimit, "rate-limit", 2, "requests per second per client IP (0 = disabled)")
	flags.IntVar(&serveConfig.RateBurst, "rate-burst", 5, "rate limit burst size")
	flags.BoolVar(&serveConfig.TrustForwarded, "trust-forwarded-for", false, "key the rate limit on X-Forwarded-For (only behind a trusted proxy)")
}
