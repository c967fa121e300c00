// Package cli wires configuration, the prediction client and the renderers
// into the phishguard command.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/raysh454/phishguard/internal/config"
	"github.com/raysh454/phishguard/internal/diagnostics"
	"github.com/raysh454/phishguard/internal/logging"
	"github.com/raysh454/phishguard/internal/predictor"
	"github.com/raysh454/phishguard/internal/scan"
	"github.com/raysh454/phishguard/internal/server"
	"github.com/raysh454/phishguard/internal/view"
	"github.com/raysh454/phishguard/internal/webclient"
)

const (
	healthTimeout   = 5 * time.Second
	shutdownTimeout = 10 * time.Second
	retentionEvery  = time.Hour
)

// ErrScanFailed is returned by the scan command when the scan ends in the
// failure phase. The user-facing message has already been printed.
var ErrScanFailed = errors.New("scan failed")

// app carries global flags and the state resolved from them.
type app struct {
	out    io.Writer
	errOut io.Writer

	envFile         string
	predictorURL    string
	timeout         time.Duration
	logLevel        string
	diagnosticsPath string

	cfg    *config.Config
	logger logging.Logger
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// Execute runs the command line in args and returns the process exit code.
func Execute(args []string, out, errOut io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(out, errOut)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, ErrScanFailed) {
			fmt.Fprintf(errOut, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// NewRootCommand builds the phishguard command tree.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	// Progress and logs share stderr from different goroutines.
	a := &app{out: out, errOut: &lockedWriter{w: errOut}}

	root := &cobra.Command{
		Use:   "phishguard",
		Short: "Check URLs against a phishing-detection service",
		Long: `PhishGuard submits URLs to a remote phishing-detection service and
presents its verdict in a browser page, a JSON API or the terminal.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.envFile, "env-file", "", "Read settings from this .env file (default ./.env when present)")
	flags.StringVar(&a.predictorURL, "predictor-url", "", "Base URL of the prediction backend")
	flags.DurationVar(&a.timeout, "timeout", 0, "Timeout of a single scan request (0 disables it)")
	flags.StringVar(&a.logLevel, "log-level", "", "Minimum log level: debug|info|warn|error")
	flags.StringVar(&a.diagnosticsPath, "diagnostics-path", "", `Failure journal database ("off" disables it)`)

	root.AddCommand(a.serveCmd())
	root.AddCommand(a.scanCmd())
	root.AddCommand(a.healthCmd())
	return root
}

// setup loads the configuration and lets explicit flags override it.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("predictor-url") {
		cfg.Predictor.BaseURL = strings.TrimRight(strings.TrimSpace(a.predictorURL), "/")
	}
	if flags.Changed("timeout") {
		if a.timeout < 0 {
			return fmt.Errorf("--timeout: negative duration %s", a.timeout)
		}
		cfg.Scan.Timeout = a.timeout
	}
	if flags.Changed("log-level") {
		lvl, err := logging.ParseLevel(a.logLevel)
		if err != nil {
			return fmt.Errorf("--log-level: %w", err)
		}
		cfg.LogLevel = lvl
	}
	if flags.Changed("diagnostics-path") {
		path := strings.TrimSpace(a.diagnosticsPath)
		if strings.EqualFold(path, "off") {
			path = ""
		}
		if path, err = config.ExpandPath(path); err != nil {
			return fmt.Errorf("--diagnostics-path: %w", err)
		}
		cfg.Diagnostics.Path = path
	}
	cfg.Sync()

	a.cfg = cfg
	// Logs go to stderr so that stdout stays machine readable.
	a.logger = logging.NewLogger(a.errOut, "phishguard", cfg.LogLevel)
	return nil
}

func (a *app) newPredictor() (*predictor.HTTPPredictor, error) {
	wc, err := webclient.NewWebClient(a.cfg.WebClient, a.logger)
	if err != nil {
		return nil, err
	}
	p, err := predictor.New(a.cfg.Predictor, wc, a.logger)
	if err != nil {
		wc.Close()
		return nil, err
	}
	return p, nil
}

// openJournal returns nil without error when diagnostics are disabled.
func (a *app) openJournal() (*diagnostics.Store, error) {
	if !a.cfg.Diagnostics.Enabled() {
		return nil, nil
	}
	store, err := diagnostics.Open(a.cfg.Diagnostics.Path, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open diagnostics: %w", err)
	}
	return store, nil
}

// ─── serve ──────────────────────────────────────────────────────────────

func (a *app) serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan page, JSON API and WebSocket stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.ListenAddr = addr
			}
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from PHISHGUARD_LISTEN_ADDR or :8080)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	p, err := a.newPredictor()
	if err != nil {
		return err
	}
	defer p.Close()

	store, err := a.openJournal()
	if err != nil {
		return err
	}
	var journal server.Journal
	if store != nil {
		defer store.Close()
		journal = store
		go store.RunRetention(ctx, a.cfg.Diagnostics.Retention, retentionEvery)
	}

	scfg := a.cfg.Server
	scfg.Logger = a.logger
	srv, err := server.NewServer(scfg, p, journal)
	if err != nil {
		return err
	}
	defer srv.Close()

	httpSrv := srv.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", logging.Field{Key: "addr", Value: httpSrv.Addr})
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// ─── scan ───────────────────────────────────────────────────────────────

func (a *app) scanCmd() *cobra.Command {
	var (
		noColor bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "scan <url>",
		Short: "Scan a single URL and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.scan(cmd.Context(), args[0], noColor, asJSON)
		},
	}

	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the final view state as JSON")
	return cmd
}

func (a *app) scan(ctx context.Context, rawURL string, noColor, asJSON bool) error {
	p, err := a.newPredictor()
	if err != nil {
		return err
	}
	defer p.Close()

	var opts []scan.Option
	store, err := a.openJournal()
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		opts = append(opts, scan.WithRecorder(store))
	}

	ctrl := scan.NewController(a.cfg.Scan, p, a.logger, opts...)
	defer ctrl.Close()

	term := view.NewTerminal(a.out, noColor)
	progress := view.NewTerminal(a.errOut, noColor)

	updates, unsubscribe := ctrl.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for st := range updates {
			if st.Phase == scan.PhaseLoading && !asJSON {
				_ = progress.Render(st)
			}
		}
	}()

	final := ctrl.Submit(ctx, rawURL)
	unsubscribe()
	<-done

	if asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(final); err != nil {
			return err
		}
	} else if err := term.Render(final); err != nil {
		return err
	}

	if final.Phase == scan.PhaseFailure {
		return ErrScanFailed
	}
	return nil
}

// ─── health ─────────────────────────────────────────────────────────────

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the prediction backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newPredictor()
			if err != nil {
				return err
			}
			defer p.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
			defer cancel()
			hs, err := p.Health(ctx)
			if err != nil {
				return fmt.Errorf("backend %s unhealthy: %w", a.cfg.Predictor.BaseURL, err)
			}
			fmt.Fprintf(a.out, "%s: %s %s\n", a.cfg.Predictor.BaseURL, hs.Status, hs.Message)
			return nil
		},
	}
}
