// Package namespace resolves repository paths to the namespace that owns
// them.
package namespace

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/zerowrap"

	"github.com/bnema/dockyard/internal/boundaries/out"
	"github.com/bnema/dockyard/internal/domain"
)

// Resolver maps "name" and "namespace/name" paths onto existing namespaces.
// It never creates namespaces.
type Resolver struct {
	namespaces out.NamespaceStore
}

// NewResolver creates a namespace resolver.
func NewResolver(namespaces out.NamespaceStore) *Resolver {
	return &Resolver{namespaces: namespaces}
}

// Split separates a repository path at its first "/". A path without one
// belongs to the global namespace, reported as an empty namespace name.
func Split(path string) (namespace, name string) {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i], path[i+1:]
	}
	return "", path
}

// Resolve returns the namespace owning path within reg and the bare
// repository name. A qualified path whose namespace does not exist yields
// domain.ErrUnknownNamespace.
func (r *Resolver) Resolve(ctx context.Context, reg *domain.Registry, path string) (*domain.Namespace, string, error) {
	log := zerowrap.FromCtx(ctx)

	if !strings.Contains(path, "/") {
		ns, err := r.namespaces.NamespaceByID(ctx, reg.GlobalNamespaceID)
		if err != nil {
			return nil, "", fmt.Errorf("global namespace of %s: %w", reg.Hostname, err)
		}
		return ns, path, nil
	}

	nsName, name := Split(path)
	if nsName == "" || name == "" {
		return nil, "", fmt.Errorf("%w: %q", domain.ErrUnknownNamespace, path)
	}

	ns, err := r.namespaces.NamespaceByName(ctx, reg.ID, nsName)
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug().
			Str("namespace", nsName).
			Str(zerowrap.FieldHost, reg.Hostname).
			Msg("namespace not provisioned")
		return nil, "", fmt.Errorf("%w: %s", domain.ErrUnknownNamespace, nsName)
	}
	if err != nil {
		return nil, "", err
	}

	return ns, name, nil
}
