package sqlite

import (
	"context"
	"fmt"

	"github.com/bnema/dockyard/internal/domain"
)

// NamespaceByID finds a namespace by ID.
func (s *Store) NamespaceByID(ctx context.Context, id int64) (*domain.Namespace, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+namespaceColumns+` FROM namespaces WHERE id = ?`, id)
	ns, err := scanNamespace(row)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("find namespace %d", id))
	}
	return ns, nil
}

// NamespaceByName finds a namespace of a registry by name. The global
// namespace has the empty name.
func (s *Store) NamespaceByName(ctx context.Context, registryID int64, name string) (*domain.Namespace, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+namespaceColumns+` FROM namespaces WHERE registry_id = ? AND name = ?`,
		registryID, name)
	ns, err := scanNamespace(row)
	if err != nil {
		return nil, translate(err, "find namespace "+name)
	}
	return ns, nil
}

// CreateNamespace stores ns and sets its ID; a duplicate name within the
// registry yields domain.ErrAlreadyExists.
func (s *Store) CreateNamespace(ctx context.Context, ns *domain.Namespace) error {
	createdAt := s.now(ns.CreatedAt)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO namespaces (registry_id, name, global, team, created_at) VALUES (?, ?, ?, ?, ?)`,
		ns.RegistryID, ns.Name, ns.Global, ns.Team, toMillis(createdAt))
	if err != nil {
		return translate(err, "create namespace "+ns.Name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return translate(err, "create namespace "+ns.Name)
	}
	ns.ID = id
	ns.CreatedAt = createdAt
	return nil
}

// NamespacesOf returns the namespaces of a registry ordered by creation.
func (s *Store) NamespacesOf(ctx context.Context, registryID int64) ([]domain.Namespace, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+namespaceColumns+` FROM namespaces WHERE registry_id = ? ORDER BY created_at, id`,
		registryID)
	if err != nil {
		return nil, translate(err, "list namespaces")
	}
	defer rows.Close()

	var namespaces []domain.Namespace
	for rows.Next() {
		ns, err := scanNamespace(rows)
		if err != nil {
			return nil, translate(err, "scan namespace")
		}
		namespaces = append(namespaces, *ns)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err, "list namespaces")
	}
	return namespaces, nil
}
