package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"event-chat/internal/config"
	"event-chat/internal/logging"
	"event-chat/internal/telemetry"
	"event-chat/internal/widget"
)

var (
	version = "dev"
	commit  = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chatwidget [event-id]",
		Short: "Terminal client for an event's live chat",
		Long: `chatwidget opens the chat page of an event, keeps the message list
refreshed and reads commands from stdin. Plain lines are sent as messages;
type /help for the other commands.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runWidget,
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.Flags()
	flags.String("base-url", "", "chat server base URL (env CHAT_BASE_URL)")
	flags.String("event", "", "event id (env CHAT_EVENT_ID)")
	flags.String("session", "", "sessionid cookie value (env CHAT_SESSION)")
	flags.Duration("poll-interval", 0, "refresh period (env CHAT_POLL_INTERVAL)")
	flags.Duration("timeout", 0, "per-request timeout (env CHAT_REQUEST_TIMEOUT)")
	flags.String("html-out", "", "write the rendered chat HTML to this file after every change")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")
	flags.String("log-level", "", "debug, info, warn or error (env LOG_LEVEL)")
	return cmd
}

// applyFlags overrides cfg with the flags set on the command line.
func applyFlags(cmd *cobra.Command, args []string, cfg *config.WidgetConfig) error {
	flags := cmd.Flags()
	var err error
	if flags.Changed("base-url") {
		cfg.BaseURL, _ = flags.GetString("base-url")
	}
	if flags.Changed("event") {
		cfg.EventID, _ = flags.GetString("event")
	}
	if len(args) == 1 {
		cfg.EventID = args[0]
	}
	if flags.Changed("session") {
		cfg.SessionToken, _ = flags.GetString("session")
	}
	if flags.Changed("poll-interval") {
		if cfg.PollInterval, err = flags.GetDuration("poll-interval"); err != nil {
			return err
		}
		if cfg.PollInterval <= 0 {
			return fmt.Errorf("--poll-interval must be positive, got %s", cfg.PollInterval)
		}
	}
	if flags.Changed("timeout") {
		if cfg.RequestTimeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("html-out") {
		cfg.HTMLOut, _ = flags.GetString("html-out")
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr, _ = flags.GetString("metrics-addr")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	return nil
}

func runWidget(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadWidget()
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, args, &cfg); err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, "event-chat-widget")
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	if cfg.EventID == "" {
		logger.Error("cannot start chat widget", zap.Error(widget.ErrMissingEventID))
		return widget.ErrMissingEventID
	}

	client, err := widget.NewClient(cfg.BaseURL, cfg.SessionToken, cfg.RequestTimeout)
	if err != nil {
		return err
	}
	session, err := client.LoadSession(ctx, cfg.EventID)
	if err != nil {
		logger.Error("cannot start chat widget", zap.String("event_id", cfg.EventID), zap.Error(err))
		return err
	}

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, logger)
		defer srv.Close()
	}

	out := &lockedWriter{w: cmd.OutOrStdout()}
	lines := readLines(cmd.InOrStdin())
	doc := widget.NewDocument(session)
	prompt := newLinePrompter(out, lines)

	w, err := widget.New(session, client, doc, prompt, widget.Options{
		PollInterval:  cfg.PollInterval,
		NotifyTimeout: cfg.NotifyTimeout,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	con := newConsole(w, doc, out, lines, logger)
	con.interactive = isTerminal(cmd.OutOrStdout())
	con.htmlOut = cfg.HTMLOut
	return con.run(ctx)
}

func serveMetrics(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	return srv
}

// readLines feeds stdin lines to a channel closed at EOF. Commands and
// confirmation answers share it.
func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()
	return lines
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
