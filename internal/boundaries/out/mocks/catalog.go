package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockCatalogSource is a mock implementation of out.CatalogSource.
type MockCatalogSource struct {
	mock.Mock
}

func NewMockCatalogSource(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCatalogSource {
	m := &MockCatalogSource{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCatalogSource) Repositories(ctx context.Context, hostname string) ([]string, error) {
	args := m.Called(ctx, hostname)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCatalogSource) Tags(ctx context.Context, hostname, repository string) ([]string, error) {
	args := m.Called(ctx, hostname, repository)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockRateLimiter is a mock implementation of out.RateLimiter.
type MockRateLimiter struct {
	mock.Mock
}

func NewMockRateLimiter(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRateLimiter {
	m := &MockRateLimiter{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRateLimiter) Allow(ctx context.Context, key string) bool {
	args := m.Called(ctx, key)
	return args.Bool(0)
}

func (m *MockRateLimiter) AllowN(ctx context.Context, key string, n int) bool {
	args := m.Called(ctx, key, n)
	return args.Bool(0)
}
