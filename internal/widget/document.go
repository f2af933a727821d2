package widget

import (
	"bytes"
	"html/template"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"event-chat/internal/models"
)

// DefaultSubmitLabel is the submit button label of a fresh Document.
const DefaultSubmitLabel template.HTML = "Send"

var documentTemplate = template.Must(template.New("document").Parse(`<div class="chat-container" data-event-id="{{.Session.EventID}}" data-username="{{.Session.CurrentUser}}">
  <span id="message-count" class="badge bg-secondary">{{.Count}}</span>
  <div id="chat-messages" class="chat-messages">{{.Messages}}</div>
  <div id="chat-errors">{{.Errors}}</div>
  <form id="chat-form">
    <input type="hidden" name="csrfmiddlewaretoken" value="{{.Session.CSRFToken}}">
    <textarea name="message">{{.Input}}</textarea>
    <button type="submit"{{if .SubmitDisabled}} disabled{{end}}>{{.SubmitLabel}}</button>
  </form>
  {{range .Notes}}{{.}}{{end}}
</div>
`))

type noteEntry struct {
	id   string
	html template.HTML
}

// Document is an in-memory rendition of the chat page regions. It implements
// Surface and is what the widget renders into outside a browser.
type Document struct {
	mu             sync.RWMutex
	session        Session
	messages       template.HTML
	count          int
	errors         template.HTML
	input          string
	submitLabel    template.HTML
	submitDisabled bool
	scrolls        int
	notes          []noteEntry
	onChange       func()
}

// NewDocument returns an empty document for session.
func NewDocument(session Session) *Document {
	return &Document{session: session, submitLabel: DefaultSubmitLabel}
}

// OnChange registers fn to run after every mutation. fn runs without the document lock held.
func (d *Document) OnChange(fn func()) {
	d.mu.Lock()
	d.onChange = fn
	d.mu.Unlock()
}

func (d *Document) mutate(fn func()) {
	d.mu.Lock()
	fn()
	cb := d.onChange
	d.mu.Unlock()
	if cb != nil {
		cb()
	}
}

func (d *Document) SetMessagesHTML(h template.HTML) { d.mutate(func() { d.messages = h }) }
func (d *Document) SetMessageCount(n int)           { d.mutate(func() { d.count = n }) }
func (d *Document) ScrollToBottom()                 { d.mutate(func() { d.scrolls++ }) }
func (d *Document) SetErrorsHTML(h template.HTML)   { d.mutate(func() { d.errors = h }) }
func (d *Document) ClearInput()                     { d.mutate(func() { d.input = "" }) }

// SetInput types text into the message textarea.
func (d *Document) SetInput(text string) { d.mutate(func() { d.input = text }) }

func (d *Document) InputValue() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.input
}

func (d *Document) SubmitLabel() template.HTML {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.submitLabel
}

func (d *Document) SetSubmit(label template.HTML, disabled bool) {
	d.mutate(func() {
		d.submitLabel = label
		d.submitDisabled = disabled
	})
}

func (d *Document) AddNotification(id string, h template.HTML) {
	d.mutate(func() { d.notes = append(d.notes, noteEntry{id: id, html: h}) })
}

func (d *Document) RemoveNotification(id string) {
	d.mutate(func() {
		for i, n := range d.notes {
			if n.id == id {
				d.notes = append(d.notes[:i], d.notes[i+1:]...)
				return
			}
		}
	})
}

// MessagesHTML returns the content of the messages container.
func (d *Document) MessagesHTML() template.HTML {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.messages
}

// MessageCount returns the text of the message count badge.
func (d *Document) MessageCount() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return strconv.Itoa(d.count)
}

// ErrorsHTML returns the content of the errors region.
func (d *Document) ErrorsHTML() template.HTML {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.errors
}

// SubmitDisabled reports whether the submit control is disabled.
func (d *Document) SubmitDisabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.submitDisabled
}

// Scrolls counts scroll-to-bottom requests.
func (d *Document) Scrolls() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.scrolls
}

// Notifications returns the banners currently shown, oldest first.
func (d *Document) Notifications() []template.HTML {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]template.HTML, 0, len(d.notes))
	for _, n := range d.notes {
		out = append(out, n.html)
	}
	return out
}

// HTML renders the whole chat container.
func (d *Document) HTML() (string, error) {
	d.mu.RLock()
	data := struct {
		Session        Session
		Count          int
		Messages       template.HTML
		Errors         template.HTML
		Input          string
		SubmitLabel    template.HTML
		SubmitDisabled bool
		Notes          []template.HTML
	}{d.session, d.count, d.messages, d.errors, d.input, d.submitLabel, d.submitDisabled, nil}
	for _, n := range d.notes {
		data.Notes = append(data.Notes, n.html)
	}
	d.mu.RUnlock()

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// MessagesText returns the visible text of the messages container, one line per
// message block, with whitespace collapsed.
func (d *Document) MessagesText() []string {
	root := parseFragment(d.MessagesHTML())
	if root == nil {
		return nil
	}
	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (hasClass(n, "chat-message") || n.Data == "p" && n.Parent == root) {
			lines = append(lines, collapse(textOf(n)))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return lines
}

// ErrorsText returns the visible lines of the errors region.
func (d *Document) ErrorsText() []string {
	root := parseFragment(d.ErrorsHTML())
	if root == nil {
		return nil
	}
	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "div" && !hasClass(n, "alert") {
			if line := collapse(textOf(n)); line != "" {
				lines = append(lines, line)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return lines
}

// MessageIDs returns the ids of all rendered messages in display order.
func (d *Document) MessageIDs() []models.MessageID {
	root := parseFragment(d.MessagesHTML())
	if root == nil {
		return nil
	}
	var ids []models.MessageID
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "chat-message") {
			if id, ok := attr(n, "data-message-id"); ok {
				ids = append(ids, models.MessageID(id))
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return ids
}

// NotificationsText returns the visible text of each banner, oldest first.
func (d *Document) NotificationsText() []string {
	var out []string
	for _, n := range d.Notifications() {
		if root := parseFragment(n); root != nil {
			out = append(out, collapse(textOf(root)))
		}
	}
	return out
}

// DeletableIDs returns the ids of rendered messages that carry a delete control,
// in display order.
func (d *Document) DeletableIDs() []models.MessageID {
	root := parseFragment(d.MessagesHTML())
	if root == nil {
		return nil
	}
	var ids []models.MessageID
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "chat-message") {
			if id, ok := attr(n, "data-message-id"); ok && findClass(n, "delete-message") {
				ids = append(ids, models.MessageID(id))
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return ids
}

// HasDeleteControl reports whether message id is rendered with a delete control.
func (d *Document) HasDeleteControl(id models.MessageID) bool {
	for _, got := range d.DeletableIDs() {
		if got == id {
			return true
		}
	}
	return false
}

func parseFragment(h template.HTML) *html.Node {
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(string(h)), container)
	if err != nil {
		return nil
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return container
}

func findClass(n *html.Node, class string) bool {
	if n.Type == html.ElementNode && hasClass(n, class) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if findClass(c, class) {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var _ Surface = (*Document)(nil)
