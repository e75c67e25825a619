package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/dockyard/internal/domain"
)

const seedDoc = `
registries:
  - name: local
    hostname: registry.test:5000
users:
  - username: alice
namespaces:
  - registry: registry.test:5000
    name: team
`

func pushEnvelope(repo, tag string) string {
	return fmt.Sprintf(`{"events":[{
	  "id": "e1",
	  "action": "push",
	  "target": {
	    "mediaType": "application/vnd.oci.image.manifest.v1+json",
	    "repository": %q,
	    "url": "http://registry.test:5000/v2/%s/manifests/%s"
	  },
	  "request": {"host": "registry.test:5000"},
	  "actor": {"name": "alice"}
	}]}`, repo, repo, tag)
}

func newTestKernel(t *testing.T, extra string) *Kernel {
	t.Helper()
	dir := t.TempDir()
	path := writeConfig(t, "server:\n  addr: 127.0.0.1:0\n  data_dir: "+dir+"\n"+extra)

	k, err := NewKernel(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = k.Close() })
	return k
}

func TestKernel_WebhookEndToEnd(t *testing.T) {
	k := newTestKernel(t, "webhook:\n  token: s3cret\n")
	ctx := k.Context(context.Background())

	_, err := k.Admin().Seed(ctx, strings.NewReader(seedDoc))
	require.NoError(t, err)

	handler, _, err := k.httpHandler()
	require.NoError(t, err)

	for _, repo := range []string{"busybox", "team/api", "ghost/app"} {
		req := httptest.NewRequest(http.MethodPost, "/v2/webhooks/events", strings.NewReader(pushEnvelope(repo, "latest")))
		req.Header.Set("Authorization", "Bearer s3cret")
		req.Header.Set("Content-Type", domain.NotificationMediaType)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, repo)
	}

	views, err := k.Admin().ListRepositories(ctx, "registry.test:5000")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "busybox", views[0].FullName())
	assert.Equal(t, "team/api", views[1].FullName())

	activities, err := k.Admin().ListActivities(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, activities, 2)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestKernel_ServeStopsOnCancel(t *testing.T) {
	k := newTestKernel(t, "sync:\n  enabled: true\n  schedule: weekly\n")

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	handler, _, err := k.httpHandler()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- k.serveHTTP(ctx, lis, handler) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + lis.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestKernel_StartScheduler(t *testing.T) {
	k := newTestKernel(t, "sync:\n  enabled: true\n  schedule: hourly\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler, err := k.startScheduler(ctx)
	require.NoError(t, err)
	require.NotNil(t, scheduler)
	defer scheduler.Stop()

	entries := scheduler.List()
	require.Len(t, entries, 1)
	assert.Equal(t, syncJobID, entries[0].ID)
	assert.Equal(t, domain.ScheduleHourly, entries[0].Schedule.Preset)

	require.NoError(t, scheduler.RunNow(ctx, syncJobID), "no registries means nothing to sync")
}

func TestKernel_SchedulerDisabled(t *testing.T) {
	k := newTestKernel(t, "")

	scheduler, err := k.startScheduler(context.Background())
	require.NoError(t, err)
	assert.Nil(t, scheduler)
}
