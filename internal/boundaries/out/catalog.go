package out

import "context"

// CatalogSource lists the repositories and tags a registry currently holds.
type CatalogSource interface {
	// Repositories returns every repository name in the registry catalogue.
	Repositories(ctx context.Context, hostname string) ([]string, error)

	// Tags returns the tags of one repository.
	Tags(ctx context.Context, hostname, repository string) ([]string, error)
}
