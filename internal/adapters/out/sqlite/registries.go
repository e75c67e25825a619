package sqlite

import (
	"context"
	"database/sql"

	"github.com/bnema/dockyard/internal/domain"
)

// RegistryByHostname finds a registry by hostname, case-insensitively.
func (s *Store) RegistryByHostname(ctx context.Context, hostname string) (*domain.Registry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+registryColumns+` FROM registries WHERE hostname = ?`, hostname)
	reg, err := scanRegistry(row)
	if err != nil {
		return nil, translate(err, "find registry "+hostname)
	}
	return reg, nil
}

// CreateRegistry inserts the registry and its global namespace in a single
// transaction and sets both IDs on reg.
func (s *Store) CreateRegistry(ctx context.Context, reg *domain.Registry) error {
	createdAt := s.now(reg.CreatedAt)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO registries (name, hostname, created_at) VALUES (?, ?, ?)`,
			reg.Name, reg.Hostname, toMillis(createdAt))
		if err != nil {
			return err
		}
		regID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx,
			`INSERT INTO namespaces (registry_id, name, global, team, created_at) VALUES (?, '', 1, '', ?)`,
			regID, toMillis(createdAt))
		if err != nil {
			return err
		}
		nsID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE registries SET global_namespace_id = ? WHERE id = ?`, nsID, regID); err != nil {
			return err
		}

		reg.ID = regID
		reg.GlobalNamespaceID = nsID
		return nil
	})
	if err != nil {
		return translate(err, "create registry "+reg.Hostname)
	}

	reg.CreatedAt = createdAt
	return nil
}

// ListRegistries returns all registries ordered by creation.
func (s *Store) ListRegistries(ctx context.Context) ([]domain.Registry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+registryColumns+` FROM registries ORDER BY created_at, id`)
	if err != nil {
		return nil, translate(err, "list registries")
	}
	defer rows.Close()

	var registries []domain.Registry
	for rows.Next() {
		reg, err := scanRegistry(rows)
		if err != nil {
			return nil, translate(err, "scan registry")
		}
		registries = append(registries, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "list registries")
	}
	return registries, nil
}
