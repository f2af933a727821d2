package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"event-chat/internal/middleware"
	"event-chat/internal/models"
	"event-chat/internal/observability"
	"event-chat/internal/render"
	"event-chat/internal/repositories"
	"event-chat/internal/telemetry"
)

// MessageListLimit caps the messages returned by one poll.
const MessageListLimit = 50

const (
	errEventNotLive  = "The event is not live"
	errNoDeletePerm  = "You do not have permission to delete this message"
	errNoHighlight   = "Only the event creator can highlight messages"
	errEventNotFound = "Event not found"
	errMsgNotFound   = "Message not found"
	errInternal      = "Internal server error"
)

const (
	actionSend      = "send"
	actionDelete    = "delete"
	actionHighlight = "highlight"

	outcomeOK        = "ok"
	outcomeRejected  = "rejected"
	outcomeNotFound  = "not_found"
	outcomeForbidden = "forbidden"
	outcomeFailed    = "error"
)

// ChatHandler serves the event chat page and its JSON endpoints.
type ChatHandler struct {
	events   repositories.EventRepository
	messages repositories.ChatMessageRepository
	audit    *telemetry.AuditEmitter
	logger   *zap.Logger
	now      func() time.Time
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(events repositories.EventRepository, messages repositories.ChatMessageRepository, audit *telemetry.AuditEmitter, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{
		events:   events,
		messages: messages,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

// ChatPage renders the host page the widget reads its session from.
func (h *ChatHandler) ChatPage(c *gin.Context) {
	eventID, ok := parseID(c, "event_id")
	if !ok {
		c.String(http.StatusNotFound, errEventNotFound)
		return
	}

	event, err := h.events.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			c.String(http.StatusNotFound, errEventNotFound)
			return
		}
		h.logger.Error("load event for chat page", zap.Int64("event_id", eventID), zap.Error(err))
		c.String(http.StatusInternalServerError, errInternal)
		return
	}

	data := render.PageData{
		EventID:    event.ID,
		EventTitle: event.Title,
		CSRFToken:  middleware.CSRFToken(c),
		Live:       event.IsLive(),
	}
	if viewer := middleware.CurrentUser(c); viewer != nil {
		data.Username = viewer.Username
	}

	page, err := render.Page(data)
	if err != nil {
		h.logger.Error("render chat page", zap.Error(err))
		c.String(http.StatusInternalServerError, errInternal)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// LoadMessages returns the visible messages of an event. Failures yield an
// empty list so that polling clients keep running.
func (h *ChatHandler) LoadMessages(c *gin.Context) {
	empty := models.MessageList{Messages: []models.MessageView{}}

	eventID, ok := parseID(c, "event_id")
	if !ok {
		c.JSON(http.StatusOK, empty)
		return
	}

	ctx := c.Request.Context()
	event, err := h.events.GetEvent(ctx, eventID)
	if err != nil {
		if !errors.Is(err, repositories.ErrEventNotFound) {
			h.logger.Warn("load event for message list", zap.Int64("event_id", eventID), zap.Error(err))
		}
		c.JSON(http.StatusOK, empty)
		return
	}

	rows, err := h.messages.ListVisible(ctx, eventID, MessageListLimit)
	if err != nil {
		h.logger.Warn("list messages", zap.Int64("event_id", eventID), zap.Error(err))
		c.JSON(http.StatusOK, empty)
		return
	}

	viewer := middleware.CurrentUser(c)
	out := models.MessageList{Messages: make([]models.MessageView, 0, len(rows))}
	for _, row := range rows {
		out.Messages = append(out.Messages, h.view(row, viewer, event))
	}
	c.JSON(http.StatusOK, out)
}

// SendMessage validates and stores a new message from the viewer.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	viewer := middleware.CurrentUser(c)
	eventID, ok := parseID(c, "event_id")
	if !ok {
		c.JSON(http.StatusNotFound, models.SendResult{Error: errEventNotFound})
		return
	}

	ctx := c.Request.Context()
	event, err := h.events.GetEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			observability.IncChatAction(actionSend, outcomeNotFound)
			c.JSON(http.StatusNotFound, models.SendResult{Error: errEventNotFound})
			return
		}
		h.fail(c, actionSend, "load event", err)
		return
	}
	if !event.IsLive() {
		observability.IncChatAction(actionSend, outcomeRejected)
		c.JSON(http.StatusForbidden, models.SendResult{Error: errEventNotLive})
		return
	}

	var form messageForm
	if err := c.ShouldBind(&form); err != nil {
		observability.IncChatAction(actionSend, outcomeRejected)
		c.JSON(http.StatusBadRequest, models.SendResult{Error: "invalid form"})
		return
	}
	text, fieldErrs := form.clean()
	if fieldErrs != nil {
		observability.IncChatAction(actionSend, outcomeRejected)
		c.JSON(http.StatusBadRequest, models.SendResult{Errors: fieldErrs})
		return
	}

	msg, err := h.messages.Create(ctx, event.ID, viewer.ID, text)
	if err != nil {
		h.fail(c, actionSend, "create message", err)
		return
	}

	observability.IncChatAction(actionSend, outcomeOK)
	h.audit.EmitChatEvent(ctx, "message_created", requestIDFromContext(c), map[string]any{
		"message_id": msg.ID,
		"event_id":   event.ID,
		"user_id":    viewer.ID,
	})

	view := h.view(models.ChatMessageWithAuthor{ChatMessage: msg, Username: viewer.Username, DisplayName: viewer.DisplayName}, viewer, event)
	c.JSON(http.StatusOK, models.SendResult{Success: true, Message: &view})
}

// DeleteMessage soft-deletes a message if the viewer may delete it.
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	viewer := middleware.CurrentUser(c)
	msg, event, ok := h.loadMessage(c, actionDelete)
	if !ok {
		return
	}

	if !models.CanDeleteMessage(viewer, msg, event) {
		observability.IncChatAction(actionDelete, outcomeForbidden)
		c.JSON(http.StatusForbidden, models.ActionResult{Error: errNoDeletePerm})
		return
	}

	ctx := c.Request.Context()
	if err := h.messages.SoftDelete(ctx, msg.ID); err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			observability.IncChatAction(actionDelete, outcomeNotFound)
			c.JSON(http.StatusNotFound, models.ActionResult{Error: errMsgNotFound})
			return
		}
		h.fail(c, actionDelete, "soft delete message", err)
		return
	}

	observability.IncChatAction(actionDelete, outcomeOK)
	h.audit.EmitChatEvent(ctx, "message_deleted", requestIDFromContext(c), map[string]any{
		"message_id": msg.ID,
		"event_id":   msg.EventID,
		"deleted_by": viewer.ID,
		"author_id":  msg.UserID,
	})
	c.JSON(http.StatusOK, models.ActionResult{Success: true})
}

// HighlightMessage toggles the highlight flag. Only the event creator may.
func (h *ChatHandler) HighlightMessage(c *gin.Context) {
	viewer := middleware.CurrentUser(c)
	msg, event, ok := h.loadMessage(c, actionHighlight)
	if !ok {
		return
	}

	if viewer == nil || event.CreatorID != viewer.ID {
		observability.IncChatAction(actionHighlight, outcomeForbidden)
		c.JSON(http.StatusForbidden, models.ActionResult{Error: errNoHighlight})
		return
	}

	ctx := c.Request.Context()
	highlighted, err := h.messages.ToggleHighlight(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			observability.IncChatAction(actionHighlight, outcomeNotFound)
			c.JSON(http.StatusNotFound, models.ActionResult{Error: errMsgNotFound})
			return
		}
		h.fail(c, actionHighlight, "toggle highlight", err)
		return
	}

	observability.IncChatAction(actionHighlight, outcomeOK)
	h.audit.EmitChatEvent(ctx, "message_highlighted", requestIDFromContext(c), map[string]any{
		"message_id":     msg.ID,
		"event_id":       msg.EventID,
		"is_highlighted": highlighted,
	})
	c.JSON(http.StatusOK, models.ActionResult{Success: true, IsHighlighted: &highlighted})
}

// loadMessage resolves the :id message and its event, writing the error response itself.
func (h *ChatHandler) loadMessage(c *gin.Context, action string) (models.ChatMessage, models.Event, bool) {
	messageID, ok := parseID(c, "id")
	if !ok {
		observability.IncChatAction(action, outcomeNotFound)
		c.JSON(http.StatusNotFound, models.ActionResult{Error: errMsgNotFound})
		return models.ChatMessage{}, models.Event{}, false
	}

	ctx := c.Request.Context()
	msg, err := h.messages.Get(ctx, messageID)
	if err == nil && msg.IsDeleted {
		err = repositories.ErrMessageNotFound
	}
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			observability.IncChatAction(action, outcomeNotFound)
			c.JSON(http.StatusNotFound, models.ActionResult{Error: errMsgNotFound})
			return models.ChatMessage{}, models.Event{}, false
		}
		h.fail(c, action, "load message", err)
		return models.ChatMessage{}, models.Event{}, false
	}

	event, err := h.events.GetEvent(ctx, msg.EventID)
	if err != nil {
		h.fail(c, action, "load event", err)
		return models.ChatMessage{}, models.Event{}, false
	}
	return msg, event, true
}

func (h *ChatHandler) view(row models.ChatMessageWithAuthor, viewer *models.User, event models.Event) models.MessageView {
	return models.MessageView{
		ID:            models.MessageID(strconv.FormatInt(row.ID, 10)),
		User:          row.Username,
		DisplayName:   row.AuthorName(),
		Message:       row.Message,
		CreatedAt:     humanize.RelTime(row.CreatedAt, h.now(), "ago", "from now"),
		IsHighlighted: row.IsHighlighted,
		CanDelete:     models.CanDeleteMessage(viewer, row.ChatMessage, event),
	}
}

func (h *ChatHandler) fail(c *gin.Context, action, op string, err error) {
	observability.IncChatAction(action, outcomeFailed)
	h.logger.Error(op, zap.String("action", action), zap.String("request_id", requestIDFromContext(c)), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": errInternal})
}

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
