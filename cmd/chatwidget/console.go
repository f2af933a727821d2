package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"

	"event-chat/internal/models"
	"event-chat/internal/widget"
)

const helpText = `commands:
  <text>          send a message
  /delete <id>    delete a message you may delete
  /refresh        reload messages now
  /pause          stop refreshing
  /resume         start refreshing again
  /html           print the rendered chat HTML
  /quit           leave`

const clearScreen = "\033[H\033[2J"

// console drives a Widget from stdin commands and redraws the Document
// whenever it changes. out must be shared with the widget's prompter.
type console struct {
	w      *widget.Widget
	doc    *widget.Document
	out    io.Writer
	lines  <-chan string
	logger *zap.Logger

	interactive bool
	htmlOut     string

	changed chan struct{}
}

func newConsole(w *widget.Widget, doc *widget.Document, out io.Writer, lines <-chan string, logger *zap.Logger) *console {
	c := &console{
		w:       w,
		doc:     doc,
		out:     out,
		lines:   lines,
		logger:  logger,
		changed: make(chan struct{}, 1),
	}
	doc.OnChange(func() {
		select {
		case c.changed <- struct{}{}:
		default:
		}
	})
	return c
}

func (c *console) run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.redrawLoop(ctx)
	}()

	if err := c.w.Start(ctx); err != nil {
		return err
	}
	defer c.w.Stop()

	for {
		select {
		case <-ctx.Done():
			cancel()
			wg.Wait()
			return nil
		case line, ok := <-c.lines:
			if !ok || !c.handle(ctx, line) {
				cancel()
				wg.Wait()
				return nil
			}
		}
	}
}

// handle executes one input line and reports whether to keep running.
func (c *console) handle(ctx context.Context, line string) bool {
	text := strings.TrimSpace(line)
	if !strings.HasPrefix(text, "/") {
		c.doc.SetInput(line)
		if err := c.w.SendMessage(ctx); err != nil && !errors.Is(err, widget.ErrEmptyMessage) && !errors.Is(err, widget.ErrRejected) {
			c.logger.Debug("send failed", zap.Error(err))
		}
		return true
	}

	name, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/quit", "/exit":
		return false
	case "/help":
		c.println(helpText)
	case "/refresh":
		if err := c.w.LoadMessages(ctx); err != nil {
			c.println("! " + widget.ConnectionErrorText)
		}
	case "/pause":
		c.w.Pause()
		c.println("refresh paused")
	case "/resume":
		c.w.Resume()
		c.println("refresh resumed")
	case "/html":
		page, err := c.doc.HTML()
		if err != nil {
			c.logger.Error("render document", zap.Error(err))
			return true
		}
		c.println(page)
	case "/delete":
		if arg == "" {
			c.println("usage: /delete <id>")
			return true
		}
		id := models.MessageID(arg)
		if !c.doc.HasDeleteControl(id) {
			c.println(fmt.Sprintf("message %s has no delete control", arg))
			return true
		}
		if err := c.w.DeleteMessage(ctx, id); err != nil {
			c.logger.Debug("delete failed", zap.String("message_id", arg), zap.Error(err))
		}
	default:
		c.println(fmt.Sprintf("unknown command %s, try /help", name))
	}
	return true
}

func (c *console) redrawLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.changed:
			c.redraw()
		}
	}
}

func (c *console) redraw() {
	var b strings.Builder
	if c.interactive {
		b.WriteString(clearScreen)
	}
	session := c.w.Session()
	fmt.Fprintf(&b, "event %s · %s messages", session.EventID, c.doc.MessageCount())
	if session.CurrentUser != "" {
		fmt.Fprintf(&b, " · signed in as %s", session.CurrentUser)
	}
	b.WriteString("\n")

	deletable := map[string]bool{}
	for _, id := range c.doc.DeletableIDs() {
		deletable[string(id)] = true
	}
	ids := c.doc.MessageIDs()
	for i, line := range c.doc.MessagesText() {
		prefix := "  "
		if i < len(ids) {
			prefix = "[" + string(ids[i]) + "] "
			if deletable[string(ids[i])] {
				prefix = "[" + string(ids[i]) + "*] "
			}
		}
		b.WriteString(prefix + line + "\n")
	}
	for _, e := range c.doc.ErrorsText() {
		b.WriteString("! " + e + "\n")
	}
	for _, n := range c.doc.NotificationsText() {
		b.WriteString("> " + n + "\n")
	}

	_, _ = io.WriteString(c.out, b.String())

	if c.htmlOut != "" {
		page, err := c.doc.HTML()
		if err == nil {
			err = os.WriteFile(c.htmlOut, []byte(page), 0o644)
		}
		if err != nil {
			c.logger.Warn("write html snapshot", zap.String("path", c.htmlOut), zap.Error(err))
		}
	}
}

func (c *console) println(s string) {
	_, _ = io.WriteString(c.out, s+"\n")
}
