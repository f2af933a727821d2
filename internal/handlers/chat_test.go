package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"event-chat/internal/middleware"
	"event-chat/internal/mocks"
	"event-chat/internal/models"
	"event-chat/internal/repositories"
	"event-chat/internal/telemetry"
)

var (
	fixedNow  = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	creator   = models.User{ID: 1, Username: "host", DisplayName: "The Host"}
	author    = models.User{ID: 2, Username: "bob", DisplayName: "Bob"}
	otherAuth = models.User{ID: 3, Username: "carol"}
	staff     = models.User{ID: 4, Username: "admin", IsStaff: true}
	outsider  = models.User{ID: 5, Username: "dave"}
	liveEvent = models.Event{ID: 7, Title: "Launch", CreatorID: creator.ID, Status: models.EventStatusLive}
)

func setupChatRouter(handler *ChatHandler, viewer *models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler.now = func() time.Time { return fixedNow }
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if viewer != nil {
			middleware.SetCurrentUser(c, viewer)
		}
		c.Next()
	})
	r.GET("/chat/:event_id/", handler.ChatPage)
	r.GET("/chat/:event_id/messages/", handler.LoadMessages)
	r.POST("/chat/:event_id/send/", handler.SendMessage)
	r.POST("/chat/message/:id/delete/", handler.DeleteMessage)
	r.POST("/chat/message/:id/highlight/", handler.HighlightMessage)
	return r
}

func postForm(router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func row(id int64, user models.User, text string) models.ChatMessageWithAuthor {
	return models.ChatMessageWithAuthor{
		ChatMessage: models.ChatMessage{ID: id, EventID: liveEvent.ID, UserID: user.ID, Message: text, CreatedAt: fixedNow.Add(-5 * time.Minute)},
		Username:    user.Username,
		DisplayName: user.DisplayName,
	}
}

func TestChatPageRendersSession(t *testing.T) {
	events := new(mocks.EventRepositoryMock)
	router := setupChatRouter(NewChatHandler(events, nil, nil, nil), &author)
	events.On("GetEvent", mock.Anything, int64(7)).Return(liveEvent, nil).Once()

	rec := get(router, "/chat/7/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `data-event-id="7"`)
	assert.Contains(t, body, `data-username="bob"`)
	assert.Contains(t, body, "Launch")
	events.AssertExpectations(t)
}

func TestChatPageUnknownEvent(t *testing.T) {
	events := new(mocks.EventRepositoryMock)
	router := setupChatRouter(NewChatHandler(events, nil, nil, nil), nil)
	events.On("GetEvent", mock.Anything, int64(9)).Return(nil, repositories.ErrEventNotFound).Once()

	assert.Equal(t, http.StatusNotFound, get(router, "/chat/9/").Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/chat/abc/").Code)
}

func TestLoadMessagesComputesPermissions(t *testing.T) {
	cases := []struct {
		name      string
		viewer    *models.User
		canDelete []bool
	}{
		{"anonymous", nil, []bool{false, false}},
		{"author", &author, []bool{true, false}},
		{"other author", &otherAuth, []bool{false, true}},
		{"outsider", &outsider, []bool{false, false}},
		{"event creator", &creator, []bool{true, true}},
		{"staff", &staff, []bool{true, true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events := new(mocks.EventRepositoryMock)
			msgs := new(mocks.ChatMessageRepositoryMock)
			router := setupChatRouter(NewChatHandler(events, msgs, nil, nil), tc.viewer)
			events.On("GetEvent", mock.Anything, int64(7)).Return(liveEvent, nil).Once()
			msgs.On("ListVisible", mock.Anything, int64(7), MessageListLimit).
				Return([]models.ChatMessageWithAuthor{row(1, author, "hi"), row(2, otherAuth, "yo")}, nil).Once()

			rec := get(router, "/chat/7/messages/")

			require.Equal(t, http.StatusOK, rec.Code)
			var resp models.MessageList
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			require.Len(t, resp.Messages, 2)
			for i, want := range tc.canDelete {
				assert.Equal(t, want, resp.Messages[i].CanDelete, "message %d", i)
			}
			first := resp.Messages[0]
			assert.Equal(t, models.MessageID("1"), first.ID)
			assert.Equal(t, "bob", first.User)
			assert.Equal(t, "Bob", first.DisplayName)
			assert.Equal(t, "5 minutes ago", first.CreatedAt)
			assert.Equal(t, "carol", resp.Messages[1].DisplayName)
			msgs.AssertExpectations(t)
		})
	}
}

func TestLoadMessagesFailuresReturnEmptyList(t *testing.T) {
	t.Run("unknown event", func(t *testing.T) {
		events := new(mocks.EventRepositoryMock)
		router := setupChatRouter(NewChatHandler(events, new(mocks.ChatMessageRepositoryMock), nil, nil), nil)
		events.On("GetEvent", mock.Anything, int64(7)).Return(nil, repositories.ErrEventNotFound).Once()

		rec := get(router, "/chat/7/messages/")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"messages":[]}`, rec.Body.String())
	})
	t.Run("repository error", func(t *testing.T) {
		events := new(mocks.EventRepositoryMock)
		msgs := new(mocks.ChatMessageRepositoryMock)
		router := setupChatRouter(NewChatHandler(events, msgs, nil, nil), nil)
		events.On("GetEvent", mock.Anything, int64(7)).Return(liveEvent, nil).Once()
		msgs.On("ListVisible", mock.Anything, int64(7), MessageListLimit).Return(nil, assert.AnError).Once()

		rec := get(router, "/chat/7/messages/")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"messages":[]}`, rec.Body.String())
	})
	t.Run("bad id", func(t *testing.T) {
		router := setupChatRouter(NewChatHandler(nil, nil, nil, nil), nil)
		rec := get(router, "/chat/x/messages/")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"messages":[]}`, rec.Body.String())
	})
}

func TestSendMessageSuccess(t *testing.T) {
	events := new(mocks.EventRepositoryMock)
	msgs := new(mocks.ChatMessageRepositoryMock)
	publisher := new(mocks.PublisherMock)
	audit := telemetry.NewAuditEmitter(publisher, "audit.events", "event-chat", "test", nil)
	router := setupChatRouter(NewChatHandler(events, msgs, audit, nil), &author)

	events.On("GetEvent", mock.Anything, int64(7)).Return(liveEvent, nil).Once()
	msgs.On("Create", mock.Anything, int64(7), author.ID, "hello all").
		Return(models.ChatMessage{ID: 11, EventID: 7, UserID: author.ID, Message: "hello all", CreatedAt: fixedNow}, nil).Once()
	publisher.On("Publish", mock.Anything, "chat_events.message_created", mock.Anything, mock.Anything).Return(nil).Once()

	rec := postForm(router, "/chat/7/send/", url.Values{"message": {"  hello all \n"}})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.SendResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Message)
	assert.Equal(t, models.MessageID("11"), resp.Message.ID)
	assert.Equal(t, "Bob", resp.Message.DisplayName)
	assert.True(t, resp.Message.CanDelete)
	msgs.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestSendMessageValidation(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"blank", "   ", "Message cannot be empty."},
		{"too long", strings.Repeat("a", MaxMessageLength+1), "Message cannot exceed 500 characters."},
		{"offensive", "what an IDIOTA", "Message contains offensive words."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events := new(mocks.EventRepositoryMock)
			msgs := new(mocks.ChatMessageRepositoryMock)
			router := setupChatRouter(NewChatHandler(events, msgs, nil, nil), &author)
			events.On("GetEvent", mock.Anything, int64(7)).Return(liveEvent, nil).Once()

			rec := postForm(router, "/chat/7/send/", url.Values{"message": {tc.text}})

			require.Equal(t, http.StatusBadRequest, rec.Code)
			var resp models.SendResult
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.False(t, resp.Success)
			assert.Equal(t, []string{tc.want}, resp.Errors["message"])
			msgs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSendMessageMultibyteLengthCountsCharacters(t *testing.T) {
	text, errs := messageForm{Message: strings.Repeat("é", MaxMessageLength)}.clean()
	assert.Nil(t, errs)
	assert.Equal(t, MaxMessageLength, len([]rune(text)))
}

func TestSendMessageEventNotLive(t *testing.T) {
	events := new(mocks.EventRepositoryMock)
	msgs := new(mocks.ChatMessageRepositoryMock)
	router := setupChatRouter(NewChatHandler(events, msgs, nil, nil), &author)
	finished := liveEvent
	finished.Status = models.EventStatusFinished
	events.On("GetEvent", mock.Anything, int64(7)).Return(finished, nil).Once()

	rec := postForm(router, "/chat/7/send/", url.Values{"message": {"hi"}})

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"The event is not live"}`, rec.Body.String())
	msgs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendMessageUnknownEvent(t *testing.T) {
	events := new(mocks.EventRepositoryMock)
	router := setupChatRouter(NewChatHandler(events, nil, nil, nil), &author)
	events.On("GetEvent", mock.Anything, int64(8)).Return(nil, repositories.ErrEventNotFound).Once()

	rec := postForm(router, "/chat/8/send/", url.Values{"message": {"hi"}})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteMessagePermissions(t *testing.T) {
	cases := []struct {
		name   string
		viewer models.User
		status int
	}{
		{"author", author, http.StatusOK},
		{"event creator", creator, http.StatusOK},
		{"staff", staff, http.StatusOK},
		{"other author", otherAuth, http.StatusForbidden},
		{"outsider", outsider, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			events := new(mocks.EventRepositoryMock)
			msgs := new(mocks.ChatMessageRepositoryMock)
			viewer := tc.viewer
			router := setupChatRouter(NewChatHandler(events, msgs, nil, nil), &viewer)
			msgs.On("Get", mock.Anything, int64(5)).Return(row(5, author, "hi").ChatMessage, nil).Once()
			events.On("GetEvent", mock.Anything, int64(7)).Return(liveEvent, nil).Once()
			if tc.status == http.StatusOK {
				msgs.On("SoftDelete", mock.Anything, int64(5)).Return(nil).Once()
			}

			rec := postForm(router, "/chat/message/5/delete/", nil)

			require.Equal(t, tc.status, rec.Code)
			var resp models.ActionResult
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tc.status == http.StatusOK, resp.Success)
			if !resp.Success {
				assert.Equal(t, "You do not have permission to delete this message", resp.Error)
				msgs.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
			}
			msgs.AssertExpectations(t)
		})
	}
}

func TestDeleteMessageNotFound(t *testing.T) {
	msgs := new(mocks.ChatMessageRepositoryMock)
	router := setupChatRouter(NewChatHandler(new(mocks.EventRepositoryMock), msgs, nil, nil), &staff)
	msgs.On("Get", mock.Anything, int64(5)).Return(nil, repositories.ErrMessageNotFound).Once()
	deleted := row(6, author, "gone").ChatMessage
	deleted.IsDeleted = true
	msgs.On("Get", mock.Anything, int64(6)).Return(deleted, nil).Once()

	assert.Equal(t, http.StatusNotFound, postForm(router, "/chat/message/5/delete/", nil).Code)
	assert.Equal(t, http.StatusNotFound, postForm(router, "/chat/message/6/delete/", nil).Code)
	assert.Equal(t, http.StatusNotFound, postForm(router, "/chat/message/abc/delete/", nil).Code)
}

func TestDeleteMessageRepositoryError(t *testing.T) {
	events := new(mocks.EventRepositoryMock)
	msgs := new(mocks.ChatMessageRepositoryMock)
	router := setupChatRouter(NewChatHandler(events, msgs, nil, nil), &author)
	msgs.On("Get", mock.Anything, int64(5)).Return(row(5, author, "hi").ChatMessage, nil).Once()
	events.On("GetEvent", mock.Anything, int64(7)).Return(liveEvent, nil).Once()
	msgs.On("SoftDelete", mock.Anything, int64(5)).Return(assert.AnError).Once()

	rec := postForm(router, "/chat/message/5/delete/", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHighlightMessage(t *testing.T) {
	events := new(mocks.EventRepositoryMock)
	msgs := new(mocks.ChatMessageRepositoryMock)
	router := setupChatRouter(NewChatHandler(events, msgs, nil, nil), &creator)
	msgs.On("Get", mock.Anything, int64(5)).Return(row(5, author, "hi").ChatMessage, nil).Once()
	events.On("GetEvent", mock.Anything, int64(7)).Return(liveEvent, nil).Once()
	msgs.On("ToggleHighlight", mock.Anything, int64(5)).Return(true, nil).Once()

	rec := postForm(router, "/chat/message/5/highlight/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"is_highlighted":true}`, rec.Body.String())
	msgs.AssertExpectations(t)
}

func TestHighlightMessageCreatorOnly(t *testing.T) {
	for _, viewer := range []models.User{author, staff} {
		viewer := viewer
		t.Run(viewer.Username, func(t *testing.T) {
			events := new(mocks.EventRepositoryMock)
			msgs := new(mocks.ChatMessageRepositoryMock)
			router := setupChatRouter(NewChatHandler(events, msgs, nil, nil), &viewer)
			msgs.On("Get", mock.Anything, int64(5)).Return(row(5, author, "hi").ChatMessage, nil).Once()
			events.On("GetEvent", mock.Anything, int64(7)).Return(liveEvent, nil).Once()

			rec := postForm(router, "/chat/message/5/highlight/", nil)

			require.Equal(t, http.StatusForbidden, rec.Code)
			assert.JSONEq(t, `{"success":false,"error":"Only the event creator can highlight messages"}`, rec.Body.String())
			msgs.AssertNotCalled(t, "ToggleHighlight", mock.Anything, mock.Anything)
		})
	}
}
