// Package supervisor holds the Process Table and Reconciler: the
// in-memory state the daemon's accept loop threads through every
// directive and child-death drain.
package supervisor

import (
	"sync"
	"time"
)

// WaitPlaceholder is the sentinel pid value a wait-mode tag occupies in
// the table from just before its synchronous command starts until the tag
// is stopped or leaves the active set; it stays after the command finishes.
const WaitPlaceholder = -1

// Entry is one supervised tag tracked in the Process Table.
type Entry struct {
	Tag       string
	Group     string
	Pid       int // WaitPlaceholder for a wait-mode tag, during and after its command
	Mode      string
	StartedAt time.Time
}

// throttleState is the per-tag respawn-throttle bookkeeping: a 10s window
// (reset once 10s have passed since it opened, not sliding) capped at 5
// starts, then a 60s cool-down. windowStart uses a
// monotonic clock (time.Time values produced by time.Now carry a monotonic
// reading) to avoid wall-clock-jump pathologies per spec.md §9.
//
// Kept independent of Entry/byTag: spec.md §4.2 requires throttle counters
// to "survive across reconciliations until the tag leaves the active set",
// which includes periods where the tag has no live entry (mid-termination,
// or between a respawn's death and its next relaunch).
type throttleState struct {
	windowStart time.Time
	count       int
}

// Table is the bidirectional tag<->pid mapping described in spec.md §3/§4.2.
// Both sides are updated under the same critical section so the bijection
// invariant always holds between calls.
//
// Grounded on pkg/buildstate.go's BuildStateRegistry (RWMutex-guarded map,
// get-or-create accessor) generalized from "package -> build state" to
// "tag -> supervised entry" plus the added pid reverse index spec.md
// invariant (1) requires.
type Table struct {
	mu          sync.RWMutex
	byTag       map[string]*Entry
	byPid       map[int]string // pid -> tag; WaitPlaceholder is never indexed here
	cachedModes map[string]string
	throttles   map[string]*throttleState
	completed   map[string]bool
}

// NewTable returns an empty Process Table.
func NewTable() *Table {
	return &Table{
		byTag:       make(map[string]*Entry),
		byPid:       make(map[int]string),
		cachedModes: make(map[string]string),
		throttles:   make(map[string]*throttleState),
		completed:   make(map[string]bool),
	}
}

// Get returns the entry for tag and whether it is present.
func (t *Table) Get(tag string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.byTag[tag]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// TagForPid returns the tag owning pid, if any.
func (t *Table) TagForPid(pid int) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tag, ok := t.byPid[pid]
	return tag, ok
}

// PutLive records tag as running under pid within group. Replaces any
// prior entry.
func (t *Table) PutLive(tag, group string, pid int, mode string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(tag)
	e := &Entry{Tag: tag, Group: group, Pid: pid, Mode: mode, StartedAt: time.Now()}
	t.byTag[tag] = e
	if pid != WaitPlaceholder {
		t.byPid[pid] = tag
	}
}

// PutWaiting records tag as occupying the WAIT_PLACEHOLDER slot, visible
// to any later reconciliation step before the synchronous command starts.
func (t *Table) PutWaiting(tag, group, mode string) {
	t.PutLive(tag, group, WaitPlaceholder, mode)
}

// Remove deletes tag from both sides of the table. Safe to call when tag
// is already absent.
func (t *Table) Remove(tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(tag)
}

func (t *Table) removeLocked(tag string) {
	e, ok := t.byTag[tag]
	if !ok {
		return
	}
	if e.Pid != WaitPlaceholder {
		delete(t.byPid, e.Pid)
	}
	delete(t.byTag, tag)
}

// RemoveByPid deletes the entry owning pid, if any, returning its tag.
func (t *Table) RemoveByPid(pid int) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tag, ok := t.byPid[pid]
	if !ok {
		return "", false
	}
	delete(t.byPid, pid)
	delete(t.byTag, tag)
	return tag, true
}

// Tags returns a snapshot of every tag currently in the table.
func (t *Table) Tags() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tags := make([]string, 0, len(t.byTag))
	for tag := range t.byTag {
		tags = append(tags, tag)
	}
	return tags
}

// Snapshot returns a copy of every entry currently in the table, used by
// the status control verb and the Monitor TUI.
func (t *Table) Snapshot() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entries := make([]Entry, 0, len(t.byTag))
	for _, e := range t.byTag {
		entries = append(entries, *e)
	}
	return entries
}

// CacheMode records the most recently observed mode for tag so the Reaper
// can act on it without re-reading the tag table, per spec.md §4.6 step 1.
func (t *Table) CacheMode(tag, mode string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cachedModes[tag] = mode
}

// CachedMode returns the last mode recorded via CacheMode.
func (t *Table) CachedMode(tag string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.cachedModes[tag]
	return m, ok
}

// DropCachedMode removes a tag's cached mode once it leaves the active set.
func (t *Table) DropCachedMode(tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.cachedModes, tag)
}

// MarkCompleted records tag as having run to completion in a non-respawn
// mode (a reaped once-mode child; a finished wait command keeps its
// WaitPlaceholder entry instead and is never marked here), so a later
// walk over the same target does not re-launch it. Kept independent of
// byTag for the same reason as throttles: the tag is no longer present in
// the table once its process has exited, but its "already ran" status
// must survive until it leaves the active set.
func (t *Table) MarkCompleted(tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.completed[tag] = true
}

// IsCompleted reports whether tag was previously marked completed.
func (t *Table) IsCompleted(tag string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.completed[tag]
}

// DropCompleted clears tag's completed marker once it leaves the active
// set, allowing a once-mode tag to run again the next time its runlevel
// is entered.
func (t *Table) DropCompleted(tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.completed, tag)
}

// CompletedTags returns a snapshot of every tag currently marked
// completed, used to purge stale markers for tags no longer in the
// active set (see Reconciler.walk).
func (t *Table) CompletedTags() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tags := make([]string, 0, len(t.completed))
	for tag := range t.completed {
		tags = append(tags, tag)
	}
	return tags
}

// throttleLocked returns (creating if absent) the throttle state for tag.
// Callers must hold t.mu.
func (t *Table) throttleLocked(tag string) *throttleState {
	ts, ok := t.throttles[tag]
	if !ok {
		ts = &throttleState{}
		t.throttles[tag] = ts
	}
	return ts
}

// DropThrottle discards tag's throttle state once it leaves the active set,
// per spec.md §4.2 ("survive ... until the tag leaves the active set").
func (t *Table) DropThrottle(tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.throttles, tag)
}
