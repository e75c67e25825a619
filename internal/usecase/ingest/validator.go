package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/zerowrap"

	"github.com/bnema/dockyard/internal/boundaries/out"
	"github.com/bnema/dockyard/internal/domain"
)

// OriginValidator checks that a push came from a known registry and was made
// by a known user.
type OriginValidator struct {
	registries out.RegistryStore
	users      out.UserStore
}

// NewOriginValidator creates an origin validator.
func NewOriginValidator(registries out.RegistryStore, users out.UserStore) *OriginValidator {
	return &OriginValidator{registries: registries, users: users}
}

// Validate resolves the event's source host and actor. The registry is
// checked first; an unknown registry is logged at info and an unknown actor
// at error.
func (v *OriginValidator) Validate(ctx context.Context, ev domain.PushEvent) (*domain.Registry, *domain.User, error) {
	log := zerowrap.FromCtx(ctx)

	reg, err := v.registries.RegistryByHostname(ctx, ev.SourceHost)
	if errors.Is(err, domain.ErrNotFound) {
		log.Info().
			Str(zerowrap.FieldHost, ev.SourceHost).
			Msg("Event coming from unknown registry: " + ev.SourceHost)
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrUnknownRegistry, ev.SourceHost)
	}
	if err != nil {
		return nil, nil, log.WrapErr(err, "failed to look up registry")
	}

	user, err := v.users.UserByUsername(ctx, ev.ActorName)
	if errors.Is(err, domain.ErrNotFound) {
		log.Error().
			Str("actor", ev.ActorName).
			Msg("Cannot find user " + ev.ActorName)
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrUnknownActor, ev.ActorName)
	}
	if err != nil {
		return nil, nil, log.WrapErr(err, "failed to look up actor")
	}

	return reg, user, nil
}
