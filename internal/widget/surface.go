package widget

import (
	"context"
	"html/template"
)

// Surface is the part of the host page the widget reads from and writes into.
// Implementations must be safe for concurrent use.
type Surface interface {
	SetMessagesHTML(html template.HTML)
	SetMessageCount(n int)
	ScrollToBottom()
	SetErrorsHTML(html template.HTML)
	InputValue() string
	ClearInput()
	SubmitLabel() template.HTML
	SetSubmit(label template.HTML, disabled bool)
	AddNotification(id string, html template.HTML)
	RemoveNotification(id string)
}

// Prompter shows blocking dialogs to the viewer. Confirm answers false once
// ctx is done.
type Prompter interface {
	Confirm(ctx context.Context, message string) bool
	Alert(message string)
}
