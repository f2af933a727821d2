package mocks

import (
	"context"
	"net/url"

	"github.com/stretchr/testify/mock"

	"event-chat/internal/models"
	"event-chat/internal/widget"
)

type ChatAPIMock struct {
	mock.Mock
}

func (m *ChatAPIMock) ListMessages(ctx context.Context, eventID string) (models.MessageList, error) {
	args := m.Called(ctx, eventID)
	var list models.MessageList
	if val := args.Get(0); val != nil {
		list = val.(models.MessageList)
	}
	return list, args.Error(1)
}

func (m *ChatAPIMock) SendMessage(ctx context.Context, eventID string, form url.Values) (models.SendResult, error) {
	args := m.Called(ctx, eventID, form)
	var res models.SendResult
	if val := args.Get(0); val != nil {
		res = val.(models.SendResult)
	}
	return res, args.Error(1)
}

func (m *ChatAPIMock) DeleteMessage(ctx context.Context, id models.MessageID, csrfToken string) (models.ActionResult, error) {
	args := m.Called(ctx, id, csrfToken)
	var res models.ActionResult
	if val := args.Get(0); val != nil {
		res = val.(models.ActionResult)
	}
	return res, args.Error(1)
}

type PrompterMock struct {
	mock.Mock
}

func (m *PrompterMock) Confirm(ctx context.Context, message string) bool {
	args := m.Called(ctx, message)
	return args.Bool(0)
}

func (m *PrompterMock) Alert(message string) {
	m.Called(message)
}

var (
	_ widget.API      = (*ChatAPIMock)(nil)
	_ widget.Prompter = (*PrompterMock)(nil)
)
