package catalog

import (
	"context"
	"io"
	"log"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/bnema/zerowrap"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/registry"
	"github.com/google/go-containerregistry/pkg/v1/random"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startRegistry(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(registry.New(registry.Logger(log.New(io.Discard, "", 0))))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return u.Host
}

func push(t *testing.T, host, ref string) {
	t.Helper()
	img, err := random.Image(64, 1)
	require.NoError(t, err)

	tag, err := name.NewTag(host + "/" + ref)
	require.NoError(t, err)
	require.NoError(t, remote.Write(tag, img))
}

func TestSource_ListsCatalogueAndTags(t *testing.T) {
	host := startRegistry(t)
	push(t, host, "busybox:latest")
	push(t, host, "busybox:1.36")
	push(t, host, "team/api:v1")

	src := NewSource(map[string]Credentials{host: {Insecure: true}}, zerowrap.Default())
	ctx := context.Background()

	repos, err := src.Repositories(ctx, host)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"busybox", "team/api"}, repos)

	tags, err := src.Tags(ctx, host, "busybox")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"latest", "1.36"}, tags)

	tags, err = src.Tags(ctx, host, "team/api")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, tags)
}

func TestSource_UnknownRepository(t *testing.T) {
	host := startRegistry(t)
	src := NewSource(nil, zerowrap.Default())

	_, err := src.Tags(context.Background(), host, "missing")
	assert.Error(t, err)
}

func TestSource_InvalidNames(t *testing.T) {
	src := NewSource(nil, zerowrap.Default())

	_, err := src.Repositories(context.Background(), "bad host")
	assert.Error(t, err)

	_, err = src.Tags(context.Background(), "registry.test", "UPPER/case")
	assert.Error(t, err)
}
