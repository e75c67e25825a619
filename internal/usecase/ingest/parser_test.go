package ingest

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/bnema/dockyard/internal/domain"
)

func manifestURL(repo, ref string) string {
	return "http://registry.test.lan/v2/" + repo + "/manifests/" + ref
}

func pushEvent(host, actor, repo, url string) domain.NotificationEvent {
	return domain.NotificationEvent{
		ID:     "event-1",
		Action: domain.ActionPush,
		Target: &domain.EventTarget{
			MediaType:  "application/vnd.docker.distribution.manifest.v2+json",
			Repository: repo,
			URL:        url,
		},
		Request: &domain.EventRequest{Host: host},
		Actor:   &domain.EventActor{Name: actor},
	}
}

func TestParsePushEvent(t *testing.T) {
	digest := "sha256:" + strings.Repeat("a", 64)

	tests := []struct {
		name    string
		event   func() domain.NotificationEvent
		want    domain.PushEvent
		wantErr bool
	}{
		{
			name: "top level repository",
			event: func() domain.NotificationEvent {
				return pushEvent("registry.test.lan", "alice", "busybox", manifestURL("busybox", "latest"))
			},
			want: domain.PushEvent{RepositoryPath: "busybox", TagName: "latest", ActorName: "alice", SourceHost: "registry.test.lan"},
		},
		{
			name: "namespaced repository",
			event: func() domain.NotificationEvent {
				return pushEvent("registry.test.lan", "alice", "suse/busybox", manifestURL("suse/busybox", "1.0.0"))
			},
			want: domain.PushEvent{RepositoryPath: "suse/busybox", TagName: "1.0.0", ActorName: "alice", SourceHost: "registry.test.lan"},
		},
		{
			name: "digest reference with tag",
			event: func() domain.NotificationEvent {
				ev := pushEvent("registry.test.lan", "alice", "busybox", manifestURL("busybox", digest))
				ev.Target.Tag = "latest"
				return ev
			},
			want: domain.PushEvent{RepositoryPath: "busybox", TagName: "latest", ActorName: "alice", SourceHost: "registry.test.lan"},
		},
		{
			name: "missing actor and request",
			event: func() domain.NotificationEvent {
				ev := pushEvent("", "", "busybox", manifestURL("busybox", "latest"))
				ev.Actor, ev.Request = nil, nil
				return ev
			},
			want: domain.PushEvent{RepositoryPath: "busybox", TagName: "latest"},
		},
		{
			name: "url without manifests segment",
			event: func() domain.NotificationEvent {
				return pushEvent("registry.test.lan", "alice", "busybox", "http://registry.test.lan/v2/busybox/wrong/latest")
			},
			wantErr: true,
		},
		{
			name: "url for another repository",
			event: func() domain.NotificationEvent {
				return pushEvent("registry.test.lan", "alice", "busybox", manifestURL("alpine", "latest"))
			},
			wantErr: true,
		},
		{
			name: "digest reference without tag",
			event: func() domain.NotificationEvent {
				return pushEvent("registry.test.lan", "alice", "busybox", manifestURL("busybox", digest))
			},
			wantErr: true,
		},
		{
			name: "missing target",
			event: func() domain.NotificationEvent {
				ev := pushEvent("registry.test.lan", "alice", "busybox", "")
				ev.Target = nil
				return ev
			},
			wantErr: true,
		},
		{
			name: "invalid repository name",
			event: func() domain.NotificationEvent {
				return pushEvent("registry.test.lan", "alice", "Bad Repo", manifestURL("Bad Repo", "latest"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePushEvent(tt.event())
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrMalformedEvent)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePushEvent_TagNotFoundCarriesURL(t *testing.T) {
	url := "http://registry.test.lan/v2/busybox/wrong/latest"
	_, err := ParsePushEvent(pushEvent("registry.test.lan", "alice", "busybox", url))

	var notFound *TagNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, url, notFound.URL)
}

// Any well-formed manifest URL yields back the repository and tag it was
// built from.
func TestParsePushEvent_RoundTripsManifestURLs(t *testing.T) {
	component := rapid.StringMatching(`[a-z0-9]{1,8}(?:[._-][a-z0-9]{1,8}){0,2}`)
	tagGen := rapid.StringMatching(`[a-zA-Z0-9_][a-zA-Z0-9._-]{0,20}`)

	rapid.Check(t, func(rt *rapid.T) {
		repo := component.Draw(rt, "name")
		if rapid.Bool().Draw(rt, "namespaced") {
			repo = component.Draw(rt, "namespace") + "/" + repo
		}
		tag := tagGen.Draw(rt, "tag")

		got, err := ParsePushEvent(pushEvent("registry.test.lan", "alice", repo, manifestURL(repo, tag)))
		require.NoError(rt, err)
		assert.Equal(rt, repo, got.RepositoryPath)
		assert.Equal(rt, tag, got.TagName)
	})
}
