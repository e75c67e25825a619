package admin

import (
	"context"
	"fmt"
	"io"

	"github.com/bnema/zerowrap"
	"gopkg.in/yaml.v3"

	"github.com/bnema/dockyard/internal/domain"
)

// SeedFile is the YAML document accepted by Seed.
//
//	registries:
//	  - name: local
//	    hostname: registry.local:5000
//	users:
//	  - username: alice
//	    email: alice@example.com
//	namespaces:
//	  - registry: registry.local:5000
//	    name: team
//	    team: platform
type SeedFile struct {
	Registries []SeedRegistry  `yaml:"registries"`
	Users      []SeedUser      `yaml:"users"`
	Namespaces []SeedNamespace `yaml:"namespaces"`
}

// SeedRegistry declares a registry.
type SeedRegistry struct {
	Name     string `yaml:"name"`
	Hostname string `yaml:"hostname"`
}

// SeedUser declares a user.
type SeedUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
}

// SeedNamespace declares a namespace on a registry.
type SeedNamespace struct {
	Registry string `yaml:"registry"`
	Name     string `yaml:"name"`
	Team     string `yaml:"team"`
}

// Seed applies a YAML seed document. Applying the same document twice
// creates nothing the second time.
func (s *Service) Seed(ctx context.Context, r io.Reader) (*domain.SeedResult, error) {
	ctx = zerowrap.CtxWithFields(ctx, map[string]any{
		zerowrap.FieldLayer:   "usecase",
		zerowrap.FieldUseCase: "Seed",
	})
	log := zerowrap.FromCtx(ctx)

	var file SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: seed file: %v", domain.ErrInvalidConfig, err)
	}

	result := &domain.SeedResult{}

	for _, reg := range file.Registries {
		_, created, err := s.CreateRegistry(ctx, reg.Name, reg.Hostname)
		if err != nil {
			return result, fmt.Errorf("registry %q: %w", reg.Hostname, err)
		}
		if created {
			result.Registries++
		}
	}

	for _, user := range file.Users {
		_, created, err := s.CreateUser(ctx, user.Username, user.Email)
		if err != nil {
			return result, fmt.Errorf("user %q: %w", user.Username, err)
		}
		if created {
			result.Users++
		}
	}

	for _, ns := range file.Namespaces {
		_, created, err := s.CreateNamespace(ctx, ns.Registry, ns.Name, ns.Team)
		if err != nil {
			return result, fmt.Errorf("namespace %q: %w", ns.Name, err)
		}
		if created {
			result.Namespaces++
		}
	}

	log.Info().
		Int("registries", result.Registries).
		Int("users", result.Users).
		Int("namespaces", result.Namespaces).
		Msg("seed applied")

	return result, nil
}
