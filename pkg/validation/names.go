// Package validation checks the names that flow in from registry events,
// catalogue listings and provisioning input before they reach the store.
package validation

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

// A path component is lowercase alphanumerics joined by ".", "_", "__" or
// runs of "-". Separators never start or end a component.
const componentPattern = `[a-z0-9]+(?:(?:[._]|__|[-]+)[a-z0-9]+)*`

var (
	componentRegex = regexp.MustCompile(`^` + componentPattern + `$`)
	repoNameRegex  = regexp.MustCompile(`^` + componentPattern + `(?:/` + componentPattern + `)*$`)

	// Tags are case-sensitive, start with an alphanumeric or underscore and
	// are at most 128 characters long.
	tagRegex = regexp.MustCompile(`^[a-zA-Z0-9_][a-zA-Z0-9._-]{0,127}$`)

	digestRegex = regexp.MustCompile(`^(sha256:[a-f0-9]{64}|sha512:[a-f0-9]{128})$`)

	hostLabelRegex = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)

	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,63}$`)
)

// MaxRepositoryNameLength is the maximum allowed length for repository paths.
const MaxRepositoryNameLength = 255

// ValidateRepositoryName validates a repository path such as "busybox" or
// "team/app".
func ValidateRepositoryName(name string) error {
	if name == "" {
		return fmt.Errorf("repository name cannot be empty")
	}
	if len(name) > MaxRepositoryNameLength {
		return fmt.Errorf("repository name too long: %d chars (max %d)", len(name), MaxRepositoryNameLength)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("repository name contains path traversal sequence")
	}
	if !repoNameRegex.MatchString(name) {
		return fmt.Errorf("invalid repository name format: %q", name)
	}
	return nil
}

// ValidateNamespaceName validates a single namespace path component.
func ValidateNamespaceName(name string) error {
	if name == "" {
		return fmt.Errorf("namespace name cannot be empty")
	}
	if !componentRegex.MatchString(name) {
		return fmt.Errorf("invalid namespace name format: %q", name)
	}
	return nil
}

// ValidateTag validates a tag name. Digests are not tags.
func ValidateTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("tag cannot be empty")
	}
	if !tagRegex.MatchString(tag) {
		return fmt.Errorf("invalid tag format: %q", tag)
	}
	return nil
}

// ValidateReference accepts either a tag or a digest.
func ValidateReference(reference string) error {
	if reference == "" {
		return fmt.Errorf("reference cannot be empty")
	}
	if IsDigest(reference) {
		return nil
	}
	if !tagRegex.MatchString(reference) {
		return fmt.Errorf("invalid reference format: must be a valid tag or digest")
	}
	return nil
}

// ValidateDigest validates a content digest of the form algorithm:hex.
func ValidateDigest(digest string) error {
	if digest == "" {
		return fmt.Errorf("digest cannot be empty")
	}
	if !digestRegex.MatchString(digest) {
		return fmt.Errorf("invalid digest format: must be sha256:<64 hex chars> or sha512:<128 hex chars>")
	}
	return nil
}

// IsDigest reports whether s is a well-formed content digest.
func IsDigest(s string) bool {
	return ValidateDigest(s) == nil
}

// LooksLikeDigest reports whether s is shaped like algorithm:hex, well-formed
// or not. Tags cannot contain ":" so anything with one is a digest attempt.
func LooksLikeDigest(s string) bool {
	return strings.Contains(s, ":")
}

// ValidateHostname validates a registry host, optionally followed by a port,
// as it appears in the Host header of registry requests.
func ValidateHostname(hostname string) error {
	if hostname == "" {
		return fmt.Errorf("hostname cannot be empty")
	}

	host := hostname
	if h, port, err := net.SplitHostPort(hostname); err == nil {
		n, convErr := strconv.Atoi(port)
		if convErr != nil || n < 1 || n > 65535 {
			return fmt.Errorf("invalid port in hostname %q", hostname)
		}
		host = h
	}

	if net.ParseIP(host) != nil {
		return nil
	}

	if len(host) > 253 {
		return fmt.Errorf("hostname too long: %d chars (max 253)", len(host))
	}
	for _, label := range strings.Split(host, ".") {
		if !hostLabelRegex.MatchString(label) {
			return fmt.Errorf("invalid hostname %q", hostname)
		}
	}
	return nil
}

// ValidateUsername validates a registry account name.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("invalid username format: %q", username)
	}
	return nil
}
