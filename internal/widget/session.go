package widget

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ErrMissingEventID is returned when the host page carries no event id.
var ErrMissingEventID = errors.New("no event id found on chat page")

// Session is the immutable context of one widget instance, read once from the host page.
type Session struct {
	EventID     string
	CurrentUser string
	CSRFToken   string
}

// Validate checks that the session can scope network operations.
func (s Session) Validate() error {
	if strings.TrimSpace(s.EventID) == "" {
		return ErrMissingEventID
	}
	return nil
}

// ReadSession extracts the session from the host page markup: the event id from
// .chat-container[data-event-id], the viewer from the first [data-username] and
// the anti-forgery token from input[name=csrfmiddlewaretoken].
func ReadSession(r io.Reader) (Session, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Session{}, fmt.Errorf("parse chat page: %w", err)
	}

	var (
		s                          Session
		haveEvent, haveUser, haveT bool
	)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if !haveEvent && hasClass(n, "chat-container") {
				if v, ok := attr(n, "data-event-id"); ok {
					s.EventID, haveEvent = v, true
				}
			}
			if !haveUser {
				if v, ok := attr(n, "data-username"); ok {
					s.CurrentUser, haveUser = v, true
				}
			}
			if !haveT && n.Data == "input" {
				if name, _ := attr(n, "name"); name == "csrfmiddlewaretoken" {
					s.CSRFToken, _ = attr(n, "value")
					haveT = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if err := s.Validate(); err != nil {
		return Session{}, err
	}
	return s, nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasClass(n *html.Node, class string) bool {
	v, ok := attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}
