package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/bnema/dockyard/internal/adapters/out/sqlite"
	"github.com/bnema/dockyard/internal/boundaries/out/mocks"
	"github.com/bnema/dockyard/internal/domain"
	"github.com/bnema/dockyard/internal/testutils"
	"github.com/bnema/dockyard/internal/usecase/namespace"
)

// fixedClock returns a clock that advances one second per call.
func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func newTestService(t *testing.T) (*Service, *sqlite.Store) {
	t.Helper()
	store := testutils.NewStore(t)
	svc := NewService(namespace.NewResolver(store), store, store)
	svc.nowFn = fixedClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return svc, store
}

func globalNamespace(t *testing.T, store *sqlite.Store, reg *domain.Registry) *domain.Namespace {
	t.Helper()
	ns, err := store.NamespaceByID(context.Background(), reg.GlobalNamespaceID)
	require.NoError(t, err)
	return ns
}

func TestReconcilePush_CreatesRepositoryAndTag(t *testing.T) {
	svc, store := newTestService(t)
	ctx := testutils.TestContext(t)
	reg := testutils.MustRegistry(t, store, "registry.test:5000")
	alice := testutils.MustUser(t, store, "alice")

	repo, tag, err := svc.ReconcilePush(ctx, globalNamespace(t, store, reg), "busybox", "latest", alice)
	require.NoError(t, err)
	assert.Equal(t, "busybox", repo.Name)
	assert.Equal(t, reg.GlobalNamespaceID, repo.NamespaceID)
	assert.Equal(t, "latest", tag.Name)
	assert.Equal(t, alice.ID, tag.AuthorID)

	stored, err := store.TagByRepositoryAndName(ctx, repo.ID, "latest")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, stored.AuthorID)
}

func TestReconcilePush_IsIdempotent(t *testing.T) {
	svc, store := newTestService(t)
	ctx := testutils.TestContext(t)
	reg := testutils.MustRegistry(t, store, "registry.test:5000")
	alice := testutils.MustUser(t, store, "alice")
	ns := globalNamespace(t, store, reg)

	first, firstTag, err := svc.ReconcilePush(ctx, ns, "busybox", "latest", alice)
	require.NoError(t, err)
	second, secondTag, err := svc.ReconcilePush(ctx, ns, "busybox", "latest", alice)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, firstTag.ID, secondTag.ID)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt, "no tag change, no touch")

	repos, err := store.RepositoriesOf(ctx, ns.ID)
	require.NoError(t, err)
	assert.Len(t, repos, 1)
	assert.Equal(t, []string{"latest"}, testutils.TagNames(t, store, first.ID))
}

// Re-pushing an existing tag must not reassign it: the first pusher stays
// the author.
func TestReconcilePush_FirstPusherKeepsAuthorship(t *testing.T) {
	svc, store := newTestService(t)
	ctx := testutils.TestContext(t)
	reg := testutils.MustRegistry(t, store, "registry.test:5000")
	alice := testutils.MustUser(t, store, "alice")
	bob := testutils.MustUser(t, store, "bob")
	ns := globalNamespace(t, store, reg)

	_, _, err := svc.ReconcilePush(ctx, ns, "busybox", "latest", alice)
	require.NoError(t, err)
	_, tag, err := svc.ReconcilePush(ctx, ns, "busybox", "latest", bob)
	require.NoError(t, err)

	assert.Equal(t, alice.ID, tag.AuthorID)
}

func TestReconcilePush_NewTagTouchesRepository(t *testing.T) {
	svc, store := newTestService(t)
	ctx := testutils.TestContext(t)
	reg := testutils.MustRegistry(t, store, "registry.test:5000")
	alice := testutils.MustUser(t, store, "alice")
	ns := globalNamespace(t, store, reg)

	repo, _, err := svc.ReconcilePush(ctx, ns, "busybox", "latest", alice)
	require.NoError(t, err)
	updated, _, err := svc.ReconcilePush(ctx, ns, "busybox", "1.36", alice)
	require.NoError(t, err)

	assert.True(t, updated.UpdatedAt.After(repo.UpdatedAt))
	stored, err := store.RepositoryByNamespaceAndName(ctx, ns.ID, "busybox")
	require.NoError(t, err)
	assert.Equal(t, updated.UpdatedAt.UnixMilli(), stored.UpdatedAt.UnixMilli())
	assert.Equal(t, []string{"latest", "1.36"}, testutils.TagNames(t, store, repo.ID))
}

func TestReconcilePush_SameNameInDifferentNamespaces(t *testing.T) {
	svc, store := newTestService(t)
	ctx := testutils.TestContext(t)
	reg := testutils.MustRegistry(t, store, "registry.test:5000")
	alice := testutils.MustUser(t, store, "alice")
	team := testutils.MustNamespace(t, store, reg, "team")

	global, _, err := svc.ReconcilePush(ctx, globalNamespace(t, store, reg), "busybox", "latest", alice)
	require.NoError(t, err)
	scoped, _, err := svc.ReconcilePush(ctx, team, "busybox", "latest", alice)
	require.NoError(t, err)

	assert.NotEqual(t, global.ID, scoped.ID)
	assert.Equal(t, team.ID, scoped.NamespaceID)
}

func TestReconcilePush_ConcurrentDuplicatesConverge(t *testing.T) {
	svc, store := newTestService(t)
	ctx := testutils.TestContext(t)
	reg := testutils.MustRegistry(t, store, "registry.test:5000")
	alice := testutils.MustUser(t, store, "alice")
	ns := globalNamespace(t, store, reg)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = svc.ReconcilePush(ctx, ns, "busybox", "latest", alice)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	repos, err := store.RepositoriesOf(ctx, ns.ID)
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, []string{"latest"}, testutils.TagNames(t, store, repos[0].ID))
}

func TestReconcilePush_RepositoryRaceRetriesLookup(t *testing.T) {
	repos := mocks.NewMockRepositoryStore(t)
	tags := mocks.NewMockTagStore(t)
	svc := NewService(nil, repos, tags)

	ns := &domain.Namespace{ID: 7}
	existing := &domain.Repository{ID: 3, NamespaceID: 7, Name: "busybox"}
	tag := &domain.Tag{ID: 9, RepositoryID: 3, Name: "latest", AuthorID: 1}

	repos.On("RepositoryByNamespaceAndName", mock.Anything, int64(7), "busybox").Return(nil, domain.ErrNotFound).Once()
	repos.On("CreateRepository", mock.Anything, mock.Anything).Return(fmt.Errorf("insert: %w", domain.ErrAlreadyExists)).Once()
	repos.On("RepositoryByNamespaceAndName", mock.Anything, int64(7), "busybox").Return(existing, nil).Once()
	tags.On("TagByRepositoryAndName", mock.Anything, int64(3), "latest").Return(tag, nil).Once()

	repo, got, err := svc.ReconcilePush(testutils.TestContext(t), ns, "busybox", "latest", &domain.User{ID: 2})
	require.NoError(t, err)
	assert.Same(t, existing, repo)
	assert.Same(t, tag, got)
}

// brokenTags stores tags in a real store but fails every tag insert, running
// before first when set.
type brokenTags struct {
	*sqlite.Store
	before func()
}

func (b brokenTags) CreateTag(ctx context.Context, tag *domain.Tag) error {
	if b.before != nil {
		b.before()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.New("disk I/O error")
}

func TestReconcilePush_TagFailureLeavesNoRepository(t *testing.T) {
	store := testutils.NewStore(t)
	reg := testutils.MustRegistry(t, store, "registry.test:5000")
	ns := globalNamespace(t, store, reg)
	svc := NewService(namespace.NewResolver(store), store, brokenTags{Store: store})

	_, _, err := svc.ReconcilePush(testutils.TestContext(t), ns, "busybox", "latest", nil)
	require.Error(t, err)

	repos, err := store.RepositoriesOf(context.Background(), ns.ID)
	require.NoError(t, err)
	assert.Empty(t, repos)
}

func TestReconcilePush_CancelledBeforeTagLeavesNoRepository(t *testing.T) {
	store := testutils.NewStore(t)
	reg := testutils.MustRegistry(t, store, "registry.test:5000")
	ns := globalNamespace(t, store, reg)

	ctx, cancel := context.WithCancel(testutils.TestContext(t))
	defer cancel()
	svc := NewService(namespace.NewResolver(store), store, brokenTags{Store: store, before: cancel})

	_, _, err := svc.ReconcilePush(ctx, ns, "busybox", "latest", nil)
	require.ErrorIs(t, err, context.Canceled)

	repos, err := store.RepositoriesOf(context.Background(), ns.ID)
	require.NoError(t, err)
	assert.Empty(t, repos)
}

func TestReconcilePush_TagFailureKeepsExistingRepository(t *testing.T) {
	store := testutils.NewStore(t)
	reg := testutils.MustRegistry(t, store, "registry.test:5000")
	ns := globalNamespace(t, store, reg)
	ctx := testutils.TestContext(t)

	existing := &domain.Repository{NamespaceID: ns.ID, Name: "busybox"}
	require.NoError(t, store.CreateRepository(ctx, existing))

	svc := NewService(namespace.NewResolver(store), store, brokenTags{Store: store})
	_, _, err := svc.ReconcilePush(ctx, ns, "busybox", "latest", nil)
	require.Error(t, err)

	_, err = store.RepositoryByNamespaceAndName(ctx, ns.ID, "busybox")
	assert.NoError(t, err)
}

func TestReconcilePush_ConcurrentTagKeepsRepository(t *testing.T) {
	repos := mocks.NewMockRepositoryStore(t)
	tags := mocks.NewMockTagStore(t)
	svc := NewService(nil, repos, tags)

	ns := &domain.Namespace{ID: 7}
	repos.On("RepositoryByNamespaceAndName", mock.Anything, int64(7), "busybox").Return(nil, domain.ErrNotFound).Once()
	repos.On("CreateRepository", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Repository).ID = 3 }).
		Return(nil).Once()
	tags.On("TagByRepositoryAndName", mock.Anything, int64(3), "latest").Return(nil, domain.ErrNotFound).Once()
	tags.On("CreateTag", mock.Anything, mock.Anything).Return(errors.New("disk I/O error")).Once()
	repos.On("DeleteEmptyRepository", mock.Anything, int64(3)).Return(false, nil).Once()

	_, _, err := svc.ReconcilePush(testutils.TestContext(t), ns, "busybox", "latest", nil)
	require.Error(t, err)
}

func TestReconcile_CreatesAndDeletesTags(t *testing.T) {
	svc, store := newTestService(t)
	ctx := testutils.TestContext(t)
	reg := testutils.MustRegistry(t, store, "registry.test:5000")

	repo, changes, err := svc.Reconcile(ctx, reg, domain.RepositoryDescriptor{Name: "busybox", Tags: []string{"latest", "1.0"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"latest", "1.0"}, changes.Created)
	assert.Empty(t, changes.Deleted)

	repo2, changes, err := svc.Reconcile(ctx, reg, domain.RepositoryDescriptor{Name: "busybox", Tags: []string{"1.0", "2.0"}})
	require.NoError(t, err)
	assert.Equal(t, repo.ID, repo2.ID)
	assert.Equal(t, []string{"2.0"}, changes.Created)
	assert.Equal(t, []string{"latest"}, changes.Deleted)
	assert.True(t, repo2.UpdatedAt.After(repo.UpdatedAt))

	assert.ElementsMatch(t, []string{"1.0", "2.0"}, testutils.TagNames(t, store, repo.ID))

	tags, err := store.TagsOf(ctx, repo.ID)
	require.NoError(t, err)
	for _, tag := range tags {
		assert.False(t, tag.HasAuthor(), "bulk tags have no author")
	}
}

func TestReconcile_UnchangedDoesNotTouch(t *testing.T) {
	svc, store := newTestService(t)
	ctx := testutils.TestContext(t)
	reg := testutils.MustRegistry(t, store, "registry.test:5000")
	desc := domain.RepositoryDescriptor{Name: "busybox", Tags: []string{"latest"}}

	first, _, err := svc.Reconcile(ctx, reg, desc)
	require.NoError(t, err)
	second, changes, err := svc.Reconcile(ctx, reg, desc)
	require.NoError(t, err)

	assert.True(t, changes.Empty())
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
}

func TestReconcile_EmptyTagListClearsRepository(t *testing.T) {
	svc, store := newTestService(t)
	ctx := testutils.TestContext(t)
	reg := testutils.MustRegistry(t, store, "registry.test:5000")

	repo, err := svc.CreateOrUpdate(ctx, reg, domain.RepositoryDescriptor{Name: "busybox", Tags: []string{"a", "b"}})
	require.NoError(t, err)
	_, err = svc.CreateOrUpdate(ctx, reg, domain.RepositoryDescriptor{Name: "busybox"})
	require.NoError(t, err)

	assert.Empty(t, testutils.TagNames(t, store, repo.ID))
}

func TestReconcile_DeletionIsScopedToRepository(t *testing.T) {
	svc, store := newTestService(t)
	ctx := testutils.TestContext(t)
	reg := testutils.MustRegistry(t, store, "registry.test:5000")

	other, err := svc.CreateOrUpdate(ctx, reg, domain.RepositoryDescriptor{Name: "alpine", Tags: []string{"latest", "3.19"}})
	require.NoError(t, err)
	_, err = svc.CreateOrUpdate(ctx, reg, domain.RepositoryDescriptor{Name: "busybox", Tags: []string{"latest"}})
	require.NoError(t, err)
	_, err = svc.CreateOrUpdate(ctx, reg, domain.RepositoryDescriptor{Name: "busybox", Tags: []string{"1.0"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"latest", "3.19"}, testutils.TagNames(t, store, other.ID))
}

func TestReconcile_NamespacedRepository(t *testing.T) {
	svc, store := newTestService(t)
	ctx := testutils.TestContext(t)
	reg := testutils.MustRegistry(t, store, "registry.test:5000")
	team := testutils.MustNamespace(t, store, reg, "team")

	repo, err := svc.CreateOrUpdate(ctx, reg, domain.RepositoryDescriptor{Name: "team/app", Tags: []string{"v1"}})
	require.NoError(t, err)
	assert.Equal(t, team.ID, repo.NamespaceID)
	assert.Equal(t, "app", repo.Name)
}

func TestReconcile_UnknownNamespace(t *testing.T) {
	svc, store := newTestService(t)
	ctx := testutils.TestContext(t)
	reg := testutils.MustRegistry(t, store, "registry.test:5000")

	_, err := svc.CreateOrUpdate(ctx, reg, domain.RepositoryDescriptor{Name: "ghost/app", Tags: []string{"v1"}})
	assert.ErrorIs(t, err, domain.ErrUnknownNamespace)

	namespaces, err := store.NamespacesOf(ctx, reg.ID)
	require.NoError(t, err)
	assert.Len(t, namespaces, 1, "namespaces are never created by reconciliation")
}

func TestReconcile_InvalidDescriptor(t *testing.T) {
	svc, store := newTestService(t)
	ctx := testutils.TestContext(t)
	reg := testutils.MustRegistry(t, store, "registry.test:5000")

	_, err := svc.CreateOrUpdate(ctx, reg, domain.RepositoryDescriptor{Name: "Bad Name"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.CreateOrUpdate(ctx, reg, domain.RepositoryDescriptor{Name: "busybox", Tags: []string{"ok", "not ok"}})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	repos, err := store.RepositoriesOf(ctx, reg.GlobalNamespaceID)
	require.NoError(t, err)
	assert.Empty(t, repos)
}

// After any sequence of bulk reconciliations the stored tag set equals the
// distinct names of the last listing.
func TestReconcile_TagSetMatchesLastListing(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		svc, store := newTestService(t)
		ctx := context.Background()
		reg := &domain.Registry{Name: "registry", Hostname: "registry.test:5000"}
		require.NoError(rt, store.CreateRegistry(ctx, reg))

		tagGen := rapid.SampledFrom([]string{"latest", "1.0", "1.1", "2.0", "edge", "stable"})
		rounds := rapid.IntRange(1, 5).Draw(rt, "rounds")

		var (
			repo *domain.Repository
			last []string
		)
		for i := 0; i < rounds; i++ {
			last = rapid.SliceOfN(tagGen, 0, 8).Draw(rt, fmt.Sprintf("tags%d", i))
			var err error
			repo, err = svc.CreateOrUpdate(ctx, reg, domain.RepositoryDescriptor{Name: "busybox", Tags: last})
			require.NoError(rt, err)
		}

		want := map[string]bool{}
		for _, tag := range last {
			want[tag] = true
		}
		tags, err := store.TagsOf(ctx, repo.ID)
		require.NoError(rt, err)
		got := map[string]bool{}
		for _, tag := range tags {
			assert.False(rt, got[tag.Name], "duplicate tag %s", tag.Name)
			got[tag.Name] = true
		}
		assert.Equal(rt, want, got)
	})
}
