package widget

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"event-chat/internal/models"
)

// API is the server surface the widget consumes.
type API interface {
	ListMessages(ctx context.Context, eventID string) (models.MessageList, error)
	SendMessage(ctx context.Context, eventID string, form url.Values) (models.SendResult, error)
	DeleteMessage(ctx context.Context, id models.MessageID, csrfToken string) (models.ActionResult, error)
}

// Client talks to the chat endpoints over HTTP. Cookies (session and csrf) are
// kept in a jar so the token read from the host page matches the cookie.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// NewClient builds a Client for baseURL. A non-empty sessionToken is sent as the sessionid cookie.
func NewClient(baseURL, sessionToken string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	if sessionToken != "" {
		jar.SetCookies(u, []*http.Cookie{{Name: "sessionid", Value: sessionToken, Path: "/"}})
	}
	return &Client{baseURL: u, http: &http.Client{Timeout: timeout, Jar: jar}}, nil
}

// LoadSession fetches the chat host page of eventID and reads the session from it.
func (c *Client) LoadSession(ctx context.Context, eventID string) (Session, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/chat/"+url.PathEscape(eventID)+"/", nil)
	if err != nil {
		return Session{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("fetch chat page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Session{}, fmt.Errorf("fetch chat page: unexpected status %d", resp.StatusCode)
	}
	return ReadSession(resp.Body)
}

// ListMessages fetches the current messages of eventID.
func (c *Client) ListMessages(ctx context.Context, eventID string) (models.MessageList, error) {
	var out models.MessageList
	req, err := c.newRequest(ctx, http.MethodGet, "/chat/"+url.PathEscape(eventID)+"/messages/", nil)
	if err != nil {
		return out, err
	}
	err = c.doJSON(req, &out)
	return out, err
}

// SendMessage posts form (message text plus csrf token) to the event's send endpoint.
func (c *Client) SendMessage(ctx context.Context, eventID string, form url.Values) (models.SendResult, error) {
	var out models.SendResult
	req, err := c.newRequest(ctx, http.MethodPost, "/chat/"+url.PathEscape(eventID)+"/send/", strings.NewReader(form.Encode()))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	err = c.doJSON(req, &out)
	return out, err
}

// DeleteMessage asks the server to soft-delete message id.
func (c *Client) DeleteMessage(ctx context.Context, id models.MessageID, csrfToken string) (models.ActionResult, error) {
	var out models.ActionResult
	req, err := c.newRequest(ctx, http.MethodPost, "/chat/message/"+url.PathEscape(string(id))+"/delete/", nil)
	if err != nil {
		return out, err
	}
	req.Header.Set("X-CSRFToken", csrfToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	err = c.doJSON(req, &out)
	return out, err
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	return req, nil
}

// doJSON decodes the response body whatever the status: the chat endpoints
// report business failures as {"success": false, ...} bodies.
func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s (status %d): %w", req.Method, req.URL.Path, resp.StatusCode, err)
	}
	return nil
}

var _ API = (*Client)(nil)
