package ingest

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/bnema/dockyard/internal/domain"
	"github.com/bnema/dockyard/pkg/validation"
)

// TagNotFoundError reports a target URL that does not end in
// "<repository>/manifests/<reference>".
type TagNotFoundError struct {
	URL string
}

func (e *TagNotFoundError) Error() string {
	return "cannot find tag inside of event url: " + e.URL
}

func (e *TagNotFoundError) Unwrap() error {
	return domain.ErrMalformedEvent
}

// ParsePushEvent extracts the repository path, tag, actor and source host
// from a registry notification event. It performs no lookups.
//
// The tag is the last path segment of the target URL, which must have the
// form ".../<repository>/manifests/<tag>". Registries that address the
// manifest by digest also send target.tag, which is used instead. Missing
// actor or request sections leave the corresponding fields empty; the origin
// check rejects those later.
func ParsePushEvent(ev domain.NotificationEvent) (domain.PushEvent, error) {
	if ev.Target == nil {
		return domain.PushEvent{}, fmt.Errorf("%w: event %q has no target", domain.ErrMalformedEvent, ev.ID)
	}

	repo := ev.Target.Repository
	if err := validation.ValidateRepositoryName(repo); err != nil {
		return domain.PushEvent{}, fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err)
	}

	reference, ok := manifestReference(ev.Target.URL, repo)
	if !ok {
		return domain.PushEvent{}, &TagNotFoundError{URL: ev.Target.URL}
	}

	tag := reference
	if validation.LooksLikeDigest(reference) {
		if ev.Target.Tag == "" {
			return domain.PushEvent{}, &TagNotFoundError{URL: ev.Target.URL}
		}
		tag = ev.Target.Tag
	}
	if err := validation.ValidateTag(tag); err != nil {
		return domain.PushEvent{}, fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err)
	}

	pe := domain.PushEvent{
		RepositoryPath: repo,
		TagName:        tag,
	}
	if ev.Actor != nil {
		pe.ActorName = ev.Actor.Name
	}
	if ev.Request != nil {
		pe.SourceHost = ev.Request.Host
	}
	return pe, nil
}

// manifestReference returns the reference segment of a manifest URL for
// repository repo.
func manifestReference(rawURL, repo string) (string, bool) {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		path = u.Path
	}

	re, err := regexp.Compile(`/` + regexp.QuoteMeta(repo) + `/manifests/([^/]+)$`)
	if err != nil {
		return "", false
	}
	m := re.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	return m[1], true
}
