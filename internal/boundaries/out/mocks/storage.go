// Package mocks provides testify mocks for the outbound ports.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/bnema/dockyard/internal/domain"
)

// MockRegistryStore is a mock implementation of out.RegistryStore.
type MockRegistryStore struct {
	mock.Mock
}

// NewMockRegistryStore creates a mock whose expectations are asserted when
// the test ends.
func NewMockRegistryStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRegistryStore {
	m := &MockRegistryStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRegistryStore) RegistryByHostname(ctx context.Context, hostname string) (*domain.Registry, error) {
	args := m.Called(ctx, hostname)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Registry), args.Error(1)
}

func (m *MockRegistryStore) CreateRegistry(ctx context.Context, reg *domain.Registry) error {
	args := m.Called(ctx, reg)
	return args.Error(0)
}

func (m *MockRegistryStore) ListRegistries(ctx context.Context) ([]domain.Registry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Registry), args.Error(1)
}

// MockNamespaceStore is a mock implementation of out.NamespaceStore.
type MockNamespaceStore struct {
	mock.Mock
}

func NewMockNamespaceStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockNamespaceStore {
	m := &MockNamespaceStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockNamespaceStore) NamespaceByID(ctx context.Context, id int64) (*domain.Namespace, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Namespace), args.Error(1)
}

func (m *MockNamespaceStore) NamespaceByName(ctx context.Context, registryID int64, name string) (*domain.Namespace, error) {
	args := m.Called(ctx, registryID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Namespace), args.Error(1)
}

func (m *MockNamespaceStore) CreateNamespace(ctx context.Context, ns *domain.Namespace) error {
	args := m.Called(ctx, ns)
	return args.Error(0)
}

func (m *MockNamespaceStore) NamespacesOf(ctx context.Context, registryID int64) ([]domain.Namespace, error) {
	args := m.Called(ctx, registryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Namespace), args.Error(1)
}

// MockRepositoryStore is a mock implementation of out.RepositoryStore.
type MockRepositoryStore struct {
	mock.Mock
}

func NewMockRepositoryStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRepositoryStore {
	m := &MockRepositoryStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRepositoryStore) RepositoryByNamespaceAndName(ctx context.Context, namespaceID int64, name string) (*domain.Repository, error) {
	args := m.Called(ctx, namespaceID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Repository), args.Error(1)
}

func (m *MockRepositoryStore) CreateRepository(ctx context.Context, repo *domain.Repository) error {
	args := m.Called(ctx, repo)
	return args.Error(0)
}

func (m *MockRepositoryStore) TouchRepository(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockRepositoryStore) RepositoriesOf(ctx context.Context, namespaceID int64) ([]domain.Repository, error) {
	args := m.Called(ctx, namespaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Repository), args.Error(1)
}

func (m *MockRepositoryStore) DeleteRepository(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepositoryStore) DeleteEmptyRepository(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// MockTagStore is a mock implementation of out.TagStore.
type MockTagStore struct {
	mock.Mock
}

func NewMockTagStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTagStore {
	m := &MockTagStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTagStore) TagByRepositoryAndName(ctx context.Context, repositoryID int64, name string) (*domain.Tag, error) {
	args := m.Called(ctx, repositoryID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tag), args.Error(1)
}

func (m *MockTagStore) CreateTag(ctx context.Context, tag *domain.Tag) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}

func (m *MockTagStore) TagsOf(ctx context.Context, repositoryID int64) ([]domain.Tag, error) {
	args := m.Called(ctx, repositoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Tag), args.Error(1)
}

func (m *MockTagStore) DeleteTags(ctx context.Context, repositoryID int64, names []string) (int64, error) {
	args := m.Called(ctx, repositoryID, names)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserStore is a mock implementation of out.UserStore.
type MockUserStore struct {
	mock.Mock
}

func NewMockUserStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockUserStore {
	m := &MockUserStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockUserStore) UserByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserStore) CreateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockActivityStore is a mock implementation of out.ActivityStore.
type MockActivityStore struct {
	mock.Mock
}

func NewMockActivityStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockActivityStore {
	m := &MockActivityStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockActivityStore) AppendActivity(ctx context.Context, activity *domain.Activity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

func (m *MockActivityStore) RecentActivities(ctx context.Context, limit int) ([]domain.ActivityView, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ActivityView), args.Error(1)
}

// MockStarStore is a mock implementation of out.StarStore.
type MockStarStore struct {
	mock.Mock
}

func NewMockStarStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStarStore {
	m := &MockStarStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockStarStore) StarByUserAndRepository(ctx context.Context, userID, repositoryID int64) (*domain.Star, error) {
	args := m.Called(ctx, userID, repositoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Star), args.Error(1)
}

func (m *MockStarStore) CreateStar(ctx context.Context, star *domain.Star) error {
	args := m.Called(ctx, star)
	return args.Error(0)
}

func (m *MockStarStore) DeleteStar(ctx context.Context, userID, repositoryID int64) error {
	args := m.Called(ctx, userID, repositoryID)
	return args.Error(0)
}

func (m *MockStarStore) StarCount(ctx context.Context, repositoryID int64) (int, error) {
	args := m.Called(ctx, repositoryID)
	return args.Int(0), args.Error(1)
}
