package widget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"event-chat/internal/render"
)

func TestReadSessionFromHostPage(t *testing.T) {
	page, err := render.Page(render.PageData{EventID: 42, EventTitle: "Launch", Username: "alice", CSRFToken: "abc123", Live: true})
	require.NoError(t, err)

	s, err := ReadSession(strings.NewReader(string(page)))
	require.NoError(t, err)
	assert.Equal(t, Session{EventID: "42", CurrentUser: "alice", CSRFToken: "abc123"}, s)
}

func TestReadSessionFirstUsernameWins(t *testing.T) {
	page := `<html><body data-username="first">
<div class="card chat-container" data-event-id="9" data-username="second">
<form><input type="hidden" name="csrfmiddlewaretoken" value="t"></form>
</div></body></html>`

	s, err := ReadSession(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "9", s.EventID)
	assert.Equal(t, "first", s.CurrentUser)
	assert.Equal(t, "t", s.CSRFToken)
}

func TestReadSessionMissingEventID(t *testing.T) {
	cases := map[string]string{
		"no container":  `<html><body data-username="a"></body></html>`,
		"no attribute":  `<div class="chat-container"></div>`,
		"empty id":      `<div class="chat-container" data-event-id=""></div>`,
		"wrong element": `<div class="chat-messages" data-event-id="3"></div>`,
	}
	for name, page := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadSession(strings.NewReader(page))
			require.ErrorIs(t, err, ErrMissingEventID)
		})
	}
}

func TestReadSessionAnonymousViewer(t *testing.T) {
	s, err := ReadSession(strings.NewReader(`<div class="chat-container" data-event-id="5"></div>`))
	require.NoError(t, err)
	assert.Empty(t, s.CurrentUser)
	assert.Empty(t, s.CSRFToken)
}
