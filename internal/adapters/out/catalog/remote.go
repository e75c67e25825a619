// Package catalog lists registry contents over the registry HTTP API.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bnema/zerowrap"
	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bnema/dockyard/internal/boundaries/out"
)

// Credentials authenticate catalogue requests against one registry.
type Credentials struct {
	Username string
	Password string
	Token    string
	Insecure bool
}

// Source implements out.CatalogSource with go-containerregistry.
type Source struct {
	credentials map[string]Credentials
	transport   http.RoundTripper
	log         zerowrap.Logger
}

var _ out.CatalogSource = (*Source)(nil)

// NewSource creates a catalogue source. credentials is keyed by registry
// hostname; hosts without an entry use the local docker keychain.
func NewSource(credentials map[string]Credentials, log zerowrap.Logger) *Source {
	creds := make(map[string]Credentials, len(credentials))
	for host, c := range credentials {
		creds[strings.ToLower(host)] = c
	}
	return &Source{
		credentials: creds,
		transport:   otelhttp.NewTransport(remote.DefaultTransport),
		log:         log,
	}
}

// Repositories returns every repository in the registry catalogue.
func (s *Source) Repositories(ctx context.Context, hostname string) ([]string, error) {
	creds := s.credentials[strings.ToLower(hostname)]

	var opts []name.Option
	if creds.Insecure {
		opts = append(opts, name.Insecure)
	}
	reg, err := name.NewRegistry(hostname, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid registry %q: %w", hostname, err)
	}

	repos, err := remote.Catalog(ctx, reg, s.options(ctx, creds)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalogue of %s: %w", hostname, err)
	}

	s.log.Debug().
		Str(zerowrap.FieldLayer, "adapter").
		Str(zerowrap.FieldAdapter, "catalog").
		Str(zerowrap.FieldHost, hostname).
		Int(zerowrap.FieldCount, len(repos)).
		Msg("catalogue listed")

	return repos, nil
}

// Tags returns the tags of one repository.
func (s *Source) Tags(ctx context.Context, hostname, repository string) ([]string, error) {
	creds := s.credentials[strings.ToLower(hostname)]

	opts := []name.Option{name.StrictValidation}
	if creds.Insecure {
		opts = append(opts, name.Insecure)
	}
	repo, err := name.NewRepository(hostname+"/"+repository, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid repository %q: %w", repository, err)
	}

	tags, err := remote.List(repo, s.options(ctx, creds)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags of %s: %w", repo.Name(), err)
	}
	return tags, nil
}

func (s *Source) options(ctx context.Context, creds Credentials) []remote.Option {
	opts := []remote.Option{
		remote.WithContext(ctx),
		remote.WithTransport(s.transport),
	}

	switch {
	case creds.Token != "":
		opts = append(opts, remote.WithAuth(&authn.Bearer{Token: creds.Token}))
	case creds.Username != "":
		opts = append(opts, remote.WithAuth(&authn.Basic{Username: creds.Username, Password: creds.Password}))
	default:
		opts = append(opts, remote.WithAuthFromKeychain(authn.DefaultKeychain))
	}
	return opts
}
