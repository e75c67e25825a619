package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bnema/dockyard/internal/domain"
)

// MockIngestService is a mock implementation of in.IngestService.
type MockIngestService struct {
	mock.Mock
}

func NewMockIngestService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockIngestService {
	m := &MockIngestService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockIngestService) ProcessPushEvent(ctx context.Context, ev domain.NotificationEvent) (*domain.Repository, error) {
	args := m.Called(ctx, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Repository), args.Error(1)
}

func (m *MockIngestService) HandleNotification(ctx context.Context, n domain.Notification) domain.IngestSummary {
	args := m.Called(ctx, n)
	return args.Get(0).(domain.IngestSummary)
}
