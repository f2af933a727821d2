// Package widget implements the event chat client: it polls the server for the
// messages of one event, renders them into a Surface, submits new messages and
// deletes messages through the server's authorized endpoints.
package widget

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"event-chat/internal/models"
	"event-chat/internal/observability"
	"event-chat/internal/render"
)

// DefaultPollInterval is the period of the message refresh loop.
const DefaultPollInterval = 3 * time.Second

// Texts shown to the viewer.
const (
	EmptyMessageText    = "Message cannot be empty"
	ConnectionErrorText = "Connection error"
	SendFailedText      = "The message could not be sent."
	NoPermissionText    = "You do not have permission"
	DeleteConfirmText   = "Delete this message? This action cannot be undone."
	DeletedText         = "Message deleted"
)

var (
	// ErrEmptyMessage is returned by SendMessage for a blank draft; no request is made.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrRejected is returned when the server answers success=false.
	ErrRejected = errors.New("rejected by server")
	// ErrAlreadyStarted is returned by Start on a running widget.
	ErrAlreadyStarted = errors.New("widget already started")
)

// Options tunes a Widget. Zero values select the defaults.
type Options struct {
	PollInterval  time.Duration
	NotifyTimeout time.Duration
	Logger        *zap.Logger
}

// Widget keeps a Surface in sync with the messages of one event.
type Widget struct {
	session  Session
	api      API
	surface  Surface
	prompt   Prompter
	notifier *Notifier
	logger   *zap.Logger
	tracer   trace.Tracer
	interval time.Duration

	// submitLabel is the idle label of the submit control.
	submitLabel template.HTML

	// seq numbers every fetch; applied is the newest fetch rendered so far.
	seq      atomic.Uint64
	renderMu sync.Mutex
	applied  uint64

	paused atomic.Bool

	lifeMu sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a Widget for session. The session must carry an event id.
func New(session Session, api API, surface Surface, prompt Prompter, opts Options) (*Widget, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if api == nil || surface == nil || prompt == nil {
		return nil, errors.New("widget: api, surface and prompter are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	logger = logger.With(zap.String("event_id", session.EventID))
	submitLabel := surface.SubmitLabel()
	if submitLabel == "" || submitLabel == render.SpinnerLabel {
		submitLabel = DefaultSubmitLabel
	}
	return &Widget{
		session:  session,
		api:      api,
		surface:  surface,
		prompt:   prompt,
		notifier: NewNotifier(surface, opts.NotifyTimeout, logger),
		logger:   logger,
		tracer:   otel.Tracer("event-chat/widget"),
		interval: interval,

		submitLabel: submitLabel,
	}, nil
}

// Session returns the widget's session context.
func (w *Widget) Session() Session {
	return w.session
}

// Notifier returns the widget's notification banner manager.
func (w *Widget) Notifier() *Notifier {
	return w.notifier
}

// Start renders once and then refreshes every poll interval until ctx is done
// or Stop is called. A widget whose context ended may be started again.
func (w *Widget) Start(ctx context.Context) error {
	w.lifeMu.Lock()
	defer w.lifeMu.Unlock()
	if w.cancel != nil {
		select {
		case <-w.done:
			w.cancel()
			w.cancel, w.done = nil, nil
		default:
			return ErrAlreadyStarted
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	w.logger.Info("chat widget started", zap.String("user", w.session.CurrentUser), zap.Duration("interval", w.interval))
	if err := w.LoadMessages(ctx); err != nil {
		w.logger.Warn("initial load failed", zap.Error(err))
	}
	go w.poll(ctx, w.done)
	return nil
}

// Stop ends the refresh loop, waits for it to exit and clears pending banners.
func (w *Widget) Stop() {
	w.lifeMu.Lock()
	defer w.lifeMu.Unlock()
	if w.cancel == nil {
		return
	}
	w.cancel()
	<-w.done
	w.cancel = nil
	w.done = nil
	w.notifier.DismissAll()
	w.logger.Info("chat widget stopped")
}

// Pause skips refreshes while the view is hidden.
func (w *Widget) Pause() { w.paused.Store(true) }

// Resume re-enables refreshes.
func (w *Widget) Resume() { w.paused.Store(false) }

func (w *Widget) poll(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if w.paused.Load() {
				continue
			}
			if err := w.LoadMessages(ctx); err != nil && ctx.Err() == nil {
				w.logger.Warn("poll failed", zap.Error(err))
			}
		}
	}
}

// LoadMessages fetches the event's messages and replaces the rendered list.
// On failure the previous render is left untouched. A response older than one
// already rendered is discarded.
func (w *Widget) LoadMessages(ctx context.Context) error {
	seq := w.seq.Add(1)
	ctx, span := w.tracer.Start(ctx, "widget.load_messages", trace.WithAttributes(
		attribute.String("event.id", w.session.EventID),
		attribute.Int64("widget.seq", int64(seq)),
	))
	defer span.End()

	list, err := w.api.ListMessages(ctx, w.session.EventID)
	if err != nil {
		observability.IncWidgetPoll(observability.PollFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "list messages")
		return fmt.Errorf("load messages: %w", err)
	}

	html, err := render.Messages(list.Messages, w.session.CurrentUser)
	if err != nil {
		observability.IncWidgetPoll(observability.PollFailed)
		span.RecordError(err)
		return fmt.Errorf("load messages: %w", err)
	}

	w.renderMu.Lock()
	defer w.renderMu.Unlock()
	if seq <= w.applied {
		observability.IncWidgetPoll(observability.PollStale)
		w.logger.Debug("dropping stale message list", zap.Uint64("seq", seq), zap.Uint64("applied", w.applied))
		return nil
	}
	w.applied = seq

	w.surface.SetMessagesHTML(html)
	w.surface.SetMessageCount(len(list.Messages))
	w.surface.ScrollToBottom()
	observability.IncWidgetPoll(observability.PollApplied)
	observability.SetWidgetRendered(len(list.Messages))
	return nil
}

// SendMessage submits the draft held by the surface's input.
func (w *Widget) SendMessage(ctx context.Context) error {
	draft := w.surface.InputValue()
	if strings.TrimSpace(draft) == "" {
		w.showErrors([]string{EmptyMessageText})
		return ErrEmptyMessage
	}
	w.showErrors(nil)

	w.paint(func() { w.surface.SetSubmit(render.SpinnerLabel, true) })
	defer w.paint(func() { w.surface.SetSubmit(w.submitLabel, false) })

	ctx, span := w.tracer.Start(ctx, "widget.send_message", trace.WithAttributes(attribute.String("event.id", w.session.EventID)))
	defer span.End()

	form := url.Values{}
	form.Set("csrfmiddlewaretoken", w.session.CSRFToken)
	form.Set("message", draft)

	res, err := w.api.SendMessage(ctx, w.session.EventID, form)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send message")
		w.logger.Error("send message failed", zap.Error(err))
		w.showErrors([]string{ConnectionErrorText})
		return fmt.Errorf("send message: %w", err)
	}
	if !res.Success {
		w.showErrors(serverErrors(res))
		return ErrRejected
	}

	w.paint(w.surface.ClearInput)
	if err := w.LoadMessages(ctx); err != nil {
		w.logger.Warn("refresh after send failed", zap.Error(err))
	}
	return nil
}

// DeleteMessage asks the viewer for confirmation and then soft-deletes message id.
// Declining returns nil without contacting the server.
func (w *Widget) DeleteMessage(ctx context.Context, id models.MessageID) error {
	if !w.prompt.Confirm(ctx, DeleteConfirmText) {
		return nil
	}

	ctx, span := w.tracer.Start(ctx, "widget.delete_message", trace.WithAttributes(attribute.String("message.id", string(id))))
	defer span.End()

	res, err := w.api.DeleteMessage(ctx, id, w.session.CSRFToken)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete message")
		w.logger.Error("delete message failed", zap.String("message_id", string(id)), zap.Error(err))
		w.prompt.Alert(ConnectionErrorText)
		return fmt.Errorf("delete message %s: %w", id, err)
	}
	if !res.Success {
		reason := res.Error
		if reason == "" {
			reason = NoPermissionText
		}
		w.prompt.Alert("Error: " + reason)
		return ErrRejected
	}

	if err := w.LoadMessages(ctx); err != nil {
		w.logger.Warn("refresh after delete failed", zap.Error(err))
	}
	w.notifier.Show(DeletedText, render.SeveritySuccess)
	return nil
}

func (w *Widget) showErrors(errs []string) {
	html, err := render.Errors(errs)
	if err != nil {
		w.logger.Error("render errors", zap.Error(err))
		return
	}
	w.paint(func() { w.surface.SetErrorsHTML(html) })
}

// paint runs a surface write under the render mutex.
func (w *Widget) paint(fn func()) {
	w.renderMu.Lock()
	defer w.renderMu.Unlock()
	fn()
}

// serverErrors flattens a rejected send into display lines: every field error,
// fields in name order, or else the single general error.
func serverErrors(res models.SendResult) []string {
	if len(res.Errors) > 0 {
		fields := make([]string, 0, len(res.Errors))
		for f := range res.Errors {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		var out []string
		for _, f := range fields {
			out = append(out, res.Errors[f]...)
		}
		if len(out) > 0 {
			return out
		}
	}
	if res.Error != "" {
		return []string{res.Error}
	}
	return []string{SendFailedText}
}
