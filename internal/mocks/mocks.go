package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"event-chat/internal/models"
	"event-chat/internal/repositories"
)

type EventRepositoryMock struct {
	mock.Mock
}

func (m *EventRepositoryMock) GetEvent(ctx context.Context, eventID int64) (models.Event, error) {
	args := m.Called(ctx, eventID)
	var event models.Event
	if val := args.Get(0); val != nil {
		event = val.(models.Event)
	}
	return event, args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) GetUserBySession(ctx context.Context, token string) (models.User, error) {
	args := m.Called(ctx, token)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int64) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

type ChatMessageRepositoryMock struct {
	mock.Mock
}

func (m *ChatMessageRepositoryMock) ListVisible(ctx context.Context, eventID int64, limit int) ([]models.ChatMessageWithAuthor, error) {
	args := m.Called(ctx, eventID, limit)
	var list []models.ChatMessageWithAuthor
	if val := args.Get(0); val != nil {
		list = val.([]models.ChatMessageWithAuthor)
	}
	return list, args.Error(1)
}

func (m *ChatMessageRepositoryMock) Create(ctx context.Context, eventID int64, userID int64, text string) (models.ChatMessage, error) {
	args := m.Called(ctx, eventID, userID, text)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}

func (m *ChatMessageRepositoryMock) Get(ctx context.Context, messageID int64) (models.ChatMessage, error) {
	args := m.Called(ctx, messageID)
	var msg models.ChatMessage
	if val := args.Get(0); val != nil {
		msg = val.(models.ChatMessage)
	}
	return msg, args.Error(1)
}

func (m *ChatMessageRepositoryMock) SoftDelete(ctx context.Context, messageID int64) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *ChatMessageRepositoryMock) ToggleHighlight(ctx context.Context, messageID int64) (bool, error) {
	args := m.Called(ctx, messageID)
	return args.Bool(0), args.Error(1)
}

var (
	_ repositories.EventRepository       = (*EventRepositoryMock)(nil)
	_ repositories.UserRepository        = (*UserRepositoryMock)(nil)
	_ repositories.ChatMessageRepository = (*ChatMessageRepositoryMock)(nil)
)
