// Package render builds the HTML fragments of the event chat: message blocks,
// error lists, notifications and the host page. All user supplied text goes
// through html/template contextual escaping.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"event-chat/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// SpinnerLabel replaces the submit button label while a message is in flight.
const SpinnerLabel template.HTML = `<i class="fas fa-spinner fa-spin"></i>`

// Notification severities, mapped to alert-* classes.
const (
	SeveritySuccess = "success"
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityDanger  = "danger"
)

// Block is the view model of one rendered message.
type Block struct {
	ID          models.MessageID
	Color       template.CSS
	DisplayName string
	User        string
	CreatedAt   string
	Message     string
	Highlighted bool
	Own         bool
	CanDelete   bool
}

// NewBlock derives the view model of msg for currentUser.
func NewBlock(msg models.MessageView, currentUser string) Block {
	return Block{
		ID: msg.ID,
		// UserColor only ever yields "#" followed by hex digits.
		Color:       template.CSS(UserColor(msg.User)),
		DisplayName: msg.DisplayName,
		User:        msg.User,
		CreatedAt:   msg.CreatedAt,
		Message:     msg.Message,
		Highlighted: msg.IsHighlighted,
		Own:         msg.User == currentUser,
		CanDelete:   msg.CanDelete,
	}
}

// AdminDelete reports whether the viewer deletes with elevated rights rather than as the author.
func (b Block) AdminDelete() bool {
	return b.CanDelete && !b.Own
}

// DeleteLabel is the text of the delete control.
func (b Block) DeleteLabel() string {
	if b.Own {
		return "Delete"
	}
	return "Delete (Admin)"
}

// DeleteClass is the button style of the delete control.
func (b Block) DeleteClass() string {
	if b.Own {
		return "btn-outline-danger"
	}
	return "btn-outline-warning"
}

// DeleteTitle is the tooltip of the delete control.
func (b Block) DeleteTitle() string {
	if b.Own {
		return "Delete your message"
	}
	return "Delete as administrator"
}

// Note is a transient notification banner.
type Note struct {
	ID       string
	Message  string
	Severity string
}

// PageData feeds the host page template.
type PageData struct {
	EventID    int64
	EventTitle string
	Username   string
	CSRFToken  string
	Live       bool
}

// Messages renders the messages container content: one block per message in the
// given order, or the empty placeholder.
func Messages(msgs []models.MessageView, currentUser string) (template.HTML, error) {
	blocks := make([]Block, 0, len(msgs))
	for _, m := range msgs {
		blocks = append(blocks, NewBlock(m, currentUser))
	}
	return execute("messages", blocks)
}

// MessageBlock renders a single message block.
func MessageBlock(msg models.MessageView, currentUser string) (template.HTML, error) {
	return execute("message", NewBlock(msg, currentUser))
}

// Errors renders an alert holding one line per error.
func Errors(errs []string) (template.HTML, error) {
	if len(errs) == 0 {
		return "", nil
	}
	return execute("errors", errs)
}

// Notification renders a dismissible banner.
func Notification(n Note) (template.HTML, error) {
	return execute("notification", n)
}

// Page renders the chat host page.
func Page(data PageData) (template.HTML, error) {
	return execute("page", data)
}

// Escape returns text safe to insert as HTML.
func Escape(text string) string {
	return template.HTMLEscapeString(text)
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	// buf holds html/template output, escaped contextually.
	return template.HTML(buf.String()), nil
}
