// Package domain contains pure business types without external dependencies.
package domain

import "time"

// Registry identifies a registry host. Each registry owns exactly one global
// namespace, created together with it.
type Registry struct {
	ID                int64
	Name              string
	Hostname          string
	GlobalNamespaceID int64
	CreatedAt         time.Time
}

// Namespace groups repositories inside a registry. The global namespace has
// an empty name and Global set.
type Namespace struct {
	ID         int64
	RegistryID int64
	Name       string
	Global     bool
	Team       string
	CreatedAt  time.Time
}

// Repository is a named image repository inside a namespace.
type Repository struct {
	ID          int64
	NamespaceID int64
	Name        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Tag is a named reference inside a repository. AuthorID is zero when the
// tag was created without a known pusher (bulk synchronization).
type Tag struct {
	ID           int64
	RepositoryID int64
	Name         string
	AuthorID     int64
	CreatedAt    time.Time
}

// HasAuthor reports whether the tag was attributed to a user.
func (t Tag) HasAuthor() bool {
	return t.AuthorID != 0
}

// User is an actor able to push images.
type User struct {
	ID        int64
	Username  string
	Email     string
	CreatedAt time.Time
}

// Star marks a repository as followed by a user. A user stars a repository
// at most once.
type Star struct {
	ID           int64
	UserID       int64
	RepositoryID int64
	CreatedAt    time.Time
}

// RepositoryDescriptor describes the upstream state of a repository as
// reported by a registry catalogue: a name, optionally namespace-qualified,
// and the complete list of tags that currently exist.
type RepositoryDescriptor struct {
	Name string   `json:"name" yaml:"name"`
	Tags []string `json:"tags" yaml:"tags"`
}

// RepositoryView is a read model pairing a repository with its namespace and
// its tags ordered by creation.
type RepositoryView struct {
	Registry   string
	Namespace  Namespace
	Repository Repository
	Tags       []Tag
	Stars      int
}

// FullName returns the namespace-qualified repository name.
func (v RepositoryView) FullName() string {
	if v.Namespace.Global || v.Namespace.Name == "" {
		return v.Repository.Name
	}
	return v.Namespace.Name + "/" + v.Repository.Name
}

// SeedResult counts what a provisioning run created. Entries that already
// existed are not counted.
type SeedResult struct {
	Registries int
	Users      int
	Namespaces int
}
