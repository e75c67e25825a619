// Package testutils holds helpers shared by package tests.
package testutils

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bnema/zerowrap"
	"github.com/stretchr/testify/require"

	"github.com/bnema/dockyard/internal/adapters/out/sqlite"
	"github.com/bnema/dockyard/internal/domain"
)

// TestContext creates a test context with a timeout and the default logger.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return zerowrap.WithCtx(ctx, zerowrap.Default())
}

// LogBuffer gives access to the JSON lines written by a test logger.
type LogBuffer struct {
	path string
}

// LogEntry is one decoded log line.
type LogEntry map[string]any

// Level returns the entry's level.
func (e LogEntry) Level() string {
	s, _ := e["level"].(string)
	return s
}

// Message returns the entry's message.
func (e LogEntry) Message() string {
	s, _ := e["message"].(string)
	return s
}

// Entries decodes every line written so far.
func (b *LogBuffer) Entries(t *testing.T) []LogEntry {
	t.Helper()
	data, err := os.ReadFile(b.path)
	require.NoError(t, err)

	var entries []LogEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry LogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "log line is not JSON: %s", line)
		entries = append(entries, entry)
	}
	return entries
}

// AtOrAbove returns the entries logged at level or higher.
func (b *LogBuffer) AtOrAbove(t *testing.T, level string) []LogEntry {
	t.Helper()
	rank := map[string]int{"trace": 0, "debug": 1, "info": 2, "warn": 3, "error": 4, "fatal": 5, "panic": 6}
	var out []LogEntry
	for _, e := range b.Entries(t) {
		if rank[e.Level()] >= rank[level] {
			out = append(out, e)
		}
	}
	return out
}

// stdioMu serializes the brief stdout/stderr swap in LogContext.
var stdioMu sync.Mutex

// LogContext returns a test context whose logger writes JSON at debug level
// into a file read back through the returned LogBuffer. The logger binds to
// the process stdio when it is built, so stdout and stderr point at the
// file for the duration of the constructor call only.
func LogContext(t *testing.T) (context.Context, *LogBuffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log.jsonl")
	f, err := os.Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	stdioMu.Lock()
	stdout, stderr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = f, f
	log := zerowrap.New(zerowrap.Config{Level: "debug", Format: "json"})
	os.Stdout, os.Stderr = stdout, stderr
	stdioMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return zerowrap.WithCtx(ctx, log), &LogBuffer{path: path}
}

// NewStore opens a migrated SQLite store in a temporary directory.
func NewStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "dockyard.db"), zerowrap.Default())
	require.NoError(t, err, "failed to open test store")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// MustRegistry creates a registry (and its global namespace).
func MustRegistry(t *testing.T, store *sqlite.Store, hostname string) *domain.Registry {
	t.Helper()
	reg := &domain.Registry{Name: hostname, Hostname: hostname}
	require.NoError(t, store.CreateRegistry(context.Background(), reg))
	return reg
}

// MustUser creates a user.
func MustUser(t *testing.T, store *sqlite.Store, username string) *domain.User {
	t.Helper()
	user := &domain.User{Username: username, Email: username + "@example.com"}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

// MustNamespace creates a non-global namespace in reg.
func MustNamespace(t *testing.T, store *sqlite.Store, reg *domain.Registry, name string) *domain.Namespace {
	t.Helper()
	ns := &domain.Namespace{RegistryID: reg.ID, Name: name}
	require.NoError(t, store.CreateNamespace(context.Background(), ns))
	return ns
}

// TagNames returns the names of the stored tags of a repository in order.
func TagNames(t *testing.T, store *sqlite.Store, repositoryID int64) []string {
	t.Helper()
	tags, err := store.TagsOf(context.Background(), repositoryID)
	require.NoError(t, err)
	names := make([]string, 0, len(tags))
	for _, tag := range tags {
		names = append(names, tag.Name)
	}
	return names
}
