package domain

import (
	"strings"
	"time"
)

// NotificationMediaType is the content type registries use when delivering
// notification envelopes.
const NotificationMediaType = "application/vnd.docker.distribution.events.v1+json"

// Notification actions emitted by registries.
const (
	ActionPush   = "push"
	ActionPull   = "pull"
	ActionDelete = "delete"
	ActionMount  = "mount"
)

// Notification is the envelope a registry posts to its endpoints.
type Notification struct {
	Events []NotificationEvent `json:"events"`
}

// NotificationEvent is a single registry event as delivered on the wire.
// Pointer fields are nil when the registry omitted the section.
type NotificationEvent struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Action    string        `json:"action"`
	Target    *EventTarget  `json:"target,omitempty"`
	Request   *EventRequest `json:"request,omitempty"`
	Actor     *EventActor   `json:"actor,omitempty"`
	Source    *EventSource  `json:"source,omitempty"`
}

// EventTarget describes the object the event acted upon.
type EventTarget struct {
	MediaType  string `json:"mediaType"`
	Digest     string `json:"digest"`
	Size       int64  `json:"size"`
	Length     int64  `json:"length"`
	Repository string `json:"repository"`
	URL        string `json:"url"`
	Tag        string `json:"tag,omitempty"`
}

// EventRequest describes the request that triggered the event.
type EventRequest struct {
	ID        string `json:"id"`
	Addr      string `json:"addr"`
	Host      string `json:"host"`
	Method    string `json:"method"`
	UserAgent string `json:"useragent"`
}

// EventActor identifies who performed the action.
type EventActor struct {
	Name string `json:"name"`
}

// EventSource identifies the registry node that emitted the event.
type EventSource struct {
	Addr       string `json:"addr"`
	InstanceID string `json:"instanceID"`
}

// IsManifestPush reports whether the event is a push of an image manifest,
// the only kind of event that changes repository state. Some registries
// leave target.mediaType empty; such pushes count as manifest pushes and the
// parser decides from the target URL.
func (e NotificationEvent) IsManifestPush() bool {
	if e.Action != ActionPush || e.Target == nil {
		return false
	}
	mt := e.Target.MediaType
	return mt == "" ||
		strings.HasPrefix(mt, "application/vnd.docker.distribution.manifest") ||
		strings.HasPrefix(mt, "application/vnd.oci.image.manifest") ||
		strings.HasPrefix(mt, "application/vnd.oci.image.index")
}

// PushEvent is the parsed form of a manifest push notification.
type PushEvent struct {
	RepositoryPath string
	TagName        string
	ActorName      string
	SourceHost     string
}

// IngestSummary counts the outcomes of processing one notification envelope.
type IngestSummary struct {
	Processed int
	Skipped   int
	Rejected  int
	Failed    int
}
