// Package auditlog implements the Audit Journal (SPEC_FULL.md §4.11): a
// bbolt-backed append-only log of what the supervisor did and when.
// Supervisor correctness never depends on this store; it exists purely so
// `isd history [tag]` can answer "what happened", mirroring the teacher's
// builddb run history.
//
// Grounded on builddb/db.go (bolt.Open + bucket init) and builddb/runs.go
// (cursor-prefix scans for listing records).
package auditlog

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"isd/errs"
	"isd/log"
)

// BucketEvents is the single bucket events are stored in.
const BucketEvents = "events"

// Event is one recorded state transition.
type Event struct {
	Time     time.Time `json:"time"`
	Kind     string    `json:"kind"`
	Tag      string    `json:"tag"`
	Group    string    `json:"group"`
	Runlevel string    `json:"runlevel"`
	Detail   string    `json:"detail"`
}

// Log wraps a bbolt database for audit events.
type Log struct {
	db *bolt.DB
}

// Open opens or creates a bbolt database at path and ensures the events
// bucket exists. The database is opened with 0600 permissions, per the
// teacher's builddb.OpenDB.
func Open(path string) (*Log, error) {
	bdb, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, &errs.AuditError{Op: "open", Err: err}
	}

	err = bdb.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(BucketEvents))
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, &errs.AuditError{Op: "create bucket", Err: err}
	}

	return &Log{db: bdb}, nil
}

// OpenReadOnly opens an existing journal file for the `isd history` client,
// never creating one if absent.
func OpenReadOnly(path string) (*Log, error) {
	bdb, err := bolt.Open(path, 0600, &bolt.Options{ReadOnly: true, Timeout: 1 * time.Second})
	if err != nil {
		return nil, &errs.AuditError{Op: "open read-only", Err: err}
	}
	return &Log{db: bdb}, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Record implements supervisor.AuditRecorder directly: it matches the
// interface's signature and swallows write failures, since audit-journal
// correctness must never affect supervision (SPEC_FULL.md §8). Prefer
// Sink when a failed write should also be logged.
func (l *Log) Record(kind, tag, group, runlevel, detail string) {
	l.append(Event{
		Time:     time.Now(),
		Kind:     kind,
		Tag:      tag,
		Group:    group,
		Runlevel: runlevel,
		Detail:   detail,
	})
}

// Sink wraps a Log with a logger so write failures (AuditUnavailable) are
// at least visible in the diagnostics log, while still never propagating
// to the Reconciler.
type Sink struct {
	Log    *Log
	Logger log.LibraryLogger
}

// Record implements supervisor.AuditRecorder.
func (s *Sink) Record(kind, tag, group, runlevel, detail string) {
	if err := s.Log.append(Event{
		Time:     time.Now(),
		Kind:     kind,
		Tag:      tag,
		Group:    group,
		Runlevel: runlevel,
		Detail:   detail,
	}); err != nil {
		s.Logger.Warn("audit write failed: %v", err)
	}
}

func (l *Log) append(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return &errs.AuditError{Op: "marshal", Err: err}
	}

	key := eventKey(ev.Time)
	err = l.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(BucketEvents))
		if bucket == nil {
			return &errs.AuditError{Op: "get bucket", Err: errs.ErrAuditUnavailable}
		}
		return bucket.Put(key, data)
	})
	if err != nil {
		return &errs.AuditError{Op: "put", Err: err}
	}
	return nil
}

// All returns every recorded event in chronological order.
func (l *Log) All() ([]Event, error) {
	return l.scan(nil)
}

// ForTag returns every recorded event for tag, in chronological order.
func (l *Log) ForTag(tag string) ([]Event, error) {
	return l.scan(func(ev Event) bool { return ev.Tag == tag })
}

func (l *Log) scan(match func(Event) bool) ([]Event, error) {
	var events []Event
	err := l.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(BucketEvents))
		if bucket == nil {
			return &errs.AuditError{Op: "get bucket", Err: errs.ErrAuditUnavailable}
		}

		c := bucket.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var ev Event
			if err := json.Unmarshal(v, &ev); err != nil {
				continue // skip a corrupt record rather than fail the whole scan
			}
			if match == nil || match(ev) {
				events = append(events, ev)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// eventKey builds a monotonically-discoverable key: 8-byte big-endian
// timestamp nanos, so bucket iteration order is chronological, followed by
// a uuid suffix to disambiguate events recorded within the same nanosecond.
func eventKey(t time.Time) []byte {
	var buf bytes.Buffer
	var nanos [8]byte
	binary.BigEndian.PutUint64(nanos[:], uint64(t.UnixNano()))
	buf.Write(nanos[:])
	buf.WriteByte('-')
	buf.WriteString(uuid.NewString())
	return buf.Bytes()
}
