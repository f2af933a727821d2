package widget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-chat/internal/models"
	"event-chat/internal/render"
)

func TestDocumentRegions(t *testing.T) {
	doc := NewDocument(Session{EventID: "3", CurrentUser: "alice", CSRFToken: "tok"})
	var changes int
	doc.OnChange(func() { changes++ })

	msgs := []models.MessageView{
		{ID: "1", User: "alice", DisplayName: "Alice", Message: "mine", CanDelete: true},
		{ID: "2", User: "bob", DisplayName: "Bob", Message: "theirs", CanDelete: true},
		{ID: "3", User: "carol", DisplayName: "Carol", Message: "read only"},
	}
	h, err := render.Messages(msgs, "alice")
	require.NoError(t, err)

	doc.SetMessagesHTML(h)
	doc.SetMessageCount(len(msgs))
	doc.SetInput("draft")

	assert.Equal(t, 3, changes)
	assert.Equal(t, "3", doc.MessageCount())
	assert.Equal(t, []models.MessageID{"1", "2"}, doc.DeletableIDs())
	assert.True(t, doc.HasDeleteControl("2"))
	assert.False(t, doc.HasDeleteControl("3"))

	lines := doc.MessagesText()
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "mine")
	assert.Contains(t, lines[1], "Delete (Admin)")
	assert.Contains(t, lines[1], "Admin")
	assert.NotContains(t, lines[2], "Delete")

	out, err := doc.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, `data-event-id="3"`)
	assert.Contains(t, out, `value="tok"`)
	assert.Contains(t, out, ">draft</textarea>")
}

func TestDocumentPlaceholderText(t *testing.T) {
	doc := NewDocument(Session{EventID: "3"})
	h, err := render.Messages(nil, "")
	require.NoError(t, err)
	doc.SetMessagesHTML(h)

	assert.Equal(t, []string{"No messages yet"}, doc.MessagesText())
	assert.Empty(t, doc.DeletableIDs())
}

func TestDocumentSubmitAndNotifications(t *testing.T) {
	doc := NewDocument(Session{EventID: "3"})
	assert.Equal(t, DefaultSubmitLabel, doc.SubmitLabel())

	doc.SetSubmit(render.SpinnerLabel, true)
	assert.True(t, doc.SubmitDisabled())
	out, err := doc.HTML()
	require.NoError(t, err)
	assert.Contains(t, out, "fa-spinner")
	assert.True(t, strings.Contains(out, " disabled>"))

	doc.AddNotification("a", "<div>A</div>")
	doc.AddNotification("b", "<div>B</div>")
	doc.RemoveNotification("a")
	assert.Equal(t, []string{"<div>B</div>"}, toStrings(doc.Notifications()))
}

func TestDocumentEscapesInput(t *testing.T) {
	doc := NewDocument(Session{EventID: "3"})
	doc.SetInput(`</textarea><script>x</script>`)
	out, err := doc.HTML()
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
}

func toStrings[T ~string](in []T) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = string(v)
	}
	return out
}

func TestDocumentErrorsText(t *testing.T) {
	doc := NewDocument(Session{EventID: "3"})
	h, err := render.Errors([]string{"first", "<b>second</b>"})
	require.NoError(t, err)
	doc.SetErrorsHTML(h)

	assert.Equal(t, []string{"first", "<b>second</b>"}, doc.ErrorsText())

	doc.SetErrorsHTML("")
	assert.Empty(t, doc.ErrorsText())
}

func TestDocumentMessageIDsAndNotificationText(t *testing.T) {
	doc := NewDocument(Session{EventID: "3"})
	h, err := render.Messages([]models.MessageView{{ID: "10", User: "a"}, {ID: "11", User: "b"}}, "a")
	require.NoError(t, err)
	doc.SetMessagesHTML(h)
	assert.Equal(t, []models.MessageID{"10", "11"}, doc.MessageIDs())

	note, err := render.Notification(render.Note{ID: "n1", Message: "Message deleted", Severity: render.SeveritySuccess})
	require.NoError(t, err)
	doc.AddNotification("n1", note)
	assert.Equal(t, []string{"Message deleted"}, doc.NotificationsText())
}
