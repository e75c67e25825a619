package domain

import "time"

// ActivityKeyRepositoryPush is recorded for every successfully ingested push.
const ActivityKeyRepositoryPush = "repository.push"

// Entity kinds referenced by activity records.
const (
	EntityRepository = "repository"
	EntityTag        = "tag"
	EntityNamespace  = "namespace"
)

// Activity is an immutable audit entry: who (owner) did what (key) to which
// entity (trackable), with an optional secondary entity (recipient).
type Activity struct {
	ID            int64
	Key           string
	OwnerID       int64
	TrackableType string
	TrackableID   int64
	RecipientType string
	RecipientID   int64
	CreatedAt     time.Time
}

// ActivityView joins an activity with the names of the entities it references.
type ActivityView struct {
	Activity
	Owner      string
	Repository string
	Tag        string
}
