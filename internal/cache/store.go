// Package cache implements the expiring cache store for normalized ratings
// tables. Entries are wrapped in a versioned envelope so a format change can
// be detected and discarded instead of surfacing as a parse failure. Reads
// absorb corruption (delete + log + miss); writes propagate storage errors.
package cache

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"
)

// schemaVersion tags every persisted record. Records carrying a different
// version are treated as corrupted and discarded on read.
const schemaVersion = 1

// Entry is a cache record as seen by callers. Freshness is the caller's
// decision: Get returns stale entries and the caller checks Fresh against
// its own TTL.
type Entry struct {
	Key       string
	CreatedAt time.Time
	Payload   []byte
}

// Fresh reports whether the entry is younger than ttl.
func (e Entry) Fresh(ttl time.Duration) bool {
	return time.Since(e.CreatedAt) < ttl
}

// Store is a durable key-value store with timestamped entries.
//
// Get returns (entry, true) on hit. Read errors and corrupted records are
// absorbed: the broken record is deleted, a diagnostic is logged, and the
// call reports a miss. Put fully replaces any prior record for the key;
// write errors are fatal to the call and propagate. Sweep deletes every
// record older than ttl and returns how many it removed.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool)
	Put(ctx context.Context, key string, payload []byte) error
	Delete(ctx context.Context, keys ...string) error
	Sweep(ctx context.Context, ttl time.Duration) (int, error)
	Close() error
}

// Key builds a deterministic cache key from a logical operation name and its
// arguments. Arguments are query-escaped before joining so distinct argument
// combinations can never collide and identical ones always produce the same
// key.
func Key(op string, args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, op)
	for _, arg := range args {
		parts = append(parts, url.QueryEscape(arg))
	}
	return strings.Join(parts, ":")
}

// record is the persisted envelope shared by every backend.
type record struct {
	SchemaVersion int             `json:"schema_version"`
	Key           string          `json:"key"`
	CreatedAt     int64           `json:"created_at"` // unix nanoseconds
	Payload       json.RawMessage `json:"payload"`
}

func encodeRecord(key string, payload []byte, now time.Time) ([]byte, error) {
	return json.Marshal(record{
		SchemaVersion: schemaVersion,
		Key:           key,
		CreatedAt:     now.UnixNano(),
		Payload:       json.RawMessage(payload),
	})
}

// decodeRecord parses a persisted envelope. ok is false when the data is
// corrupted or was written by a different schema version.
func decodeRecord(data []byte, key string) (Entry, bool) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Entry{}, false
	}
	if rec.SchemaVersion != schemaVersion || rec.Key != key {
		return Entry{}, false
	}
	return Entry{
		Key:       rec.Key,
		CreatedAt: time.Unix(0, rec.CreatedAt),
		Payload:   []byte(rec.Payload),
	}, true
}

// recordAge returns the age of a raw envelope without requiring the key to
// match, for sweep scans. ok is false for undecodable data.
func recordAge(data []byte, now time.Time) (time.Duration, bool) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return 0, false
	}
	if rec.SchemaVersion != schemaVersion {
		return 0, false
	}
	return now.Sub(time.Unix(0, rec.CreatedAt)), true
}
