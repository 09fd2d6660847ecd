package supervisor

import (
	"fmt"
	"sync"
	"time"

	"isd/config"
	"isd/control"
	"isd/launcher"
	"isd/log"
	"isd/reaper"
	"isd/terminator"
)

// AuditRecorder receives observational events from the Reconciler. It is
// never consulted for decisions — purely a sink, per SPEC_FULL.md §4.11
// ("Supervisor correctness never depends on this store"). A nil
// AuditRecorder is valid; Reconciler skips recording in that case.
type AuditRecorder interface {
	Record(kind, tag, group, runlevel, detail string)
}

// maxRespawnRounds bounds the Reaper-triggered re-reconcile cycle (design
// note: "break by having the Reconciler return to the loop, which then
// drains the Reaper; do not call Reaper recursively from within a
// child-death notification"). A handful of rounds is enough to settle a
// batch of simultaneous exits without risking an unbounded loop if a
// command exits instantly forever (the per-tag throttle bounds that case
// independently).
const maxRespawnRounds = 8

// Reconciler is the Reconciler (C6), the heart of the supervisor: given a
// target (group, runlevel), it walks the tag table in file order and
// applies the start/stop delta against the Process Table.
type Reconciler struct {
	mu sync.Mutex

	Table     *Table
	TablePath string
	Logger    log.LibraryLogger
	Audit     AuditRecorder
	Reaper    *reaper.Reaper
	Backoff   []time.Duration

	current Target
}

// NewReconciler constructs a Reconciler. logger must not be nil; audit may
// be nil (see AuditRecorder). gracePeriod is SPEC_FULL.md §4.9's
// configurable grace_period; it is rescaled via terminator.Scale into the
// backoff sequence every termination uses, so a zero value (or the
// default 31s) falls back to terminator.DefaultBackoff.
func NewReconciler(tablePath string, logger log.LibraryLogger, audit AuditRecorder, gracePeriod time.Duration) *Reconciler {
	return &Reconciler{
		Table:     NewTable(),
		TablePath: tablePath,
		Logger:    logger,
		Audit:     audit,
		Reaper:    reaper.New(),
		Backoff:   terminator.Scale(gracePeriod),
	}
}

// Current returns the last applied target.
func (r *Reconciler) Current() Target {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// record forwards an observational event to Audit, if configured.
func (r *Reconciler) record(kind, tag, group, runlevel, detail string) {
	if r.Audit != nil {
		r.Audit.Record(kind, tag, group, runlevel, detail)
	}
}

// Reconcile applies a new (possibly partially-unchanged) target and
// performs one full walk of the tag table, per spec.md §4.6. An empty
// Group or Runlevel in newTarget reuses the corresponding component of the
// current target (the "unchanged" sentinel spec.md §4.6 describes).
//
// After the walk, Reconcile drains the Reaper and, if any children
// exited, re-walks with the same target so respawn tags come back under
// throttle — bounded by maxRespawnRounds.
func (r *Reconciler) Reconcile(newTarget Target) error {
	r.mu.Lock()
	target := r.current
	if newTarget.Group != "" {
		target.Group = newTarget.Group
	}
	if newTarget.Runlevel != "" {
		target.Runlevel = newTarget.Runlevel
	}
	r.current = target
	r.mu.Unlock()

	if err := r.walk(target); err != nil {
		return err
	}

	for round := 0; round < maxRespawnRounds; round++ {
		exits := r.Reaper.Drain()
		if len(exits) == 0 {
			return nil
		}
		r.handleExits(exits)
		if err := r.walk(target); err != nil {
			return err
		}
	}
	return nil
}

// DrainReaper performs a Reaper drain outside of a directive — used by the
// daemon's child-death notification path and its periodic drain_tick —
// and re-reconciles with the unchanged current target if anything was
// harvested.
func (r *Reconciler) DrainReaper() error {
	exits := r.Reaper.Drain()
	if len(exits) == 0 {
		return nil
	}
	r.handleExits(exits)
	return r.Reconcile(Target{})
}

// handleExits processes harvested child exits. Per the Open Question
// decision recorded in DESIGN.md, the reap result is trusted outright: no
// post-reap liveness double-check is performed, since that check can
// discard legitimate exits on PID reuse.
//
// Only respawn-mode tags are meant to come back via the re-walk below
// (spec.md §3: "once is the default non-respawn mode - fork, exec, do
// not restart"). A non-respawn tag is marked completed here, using the
// mode walk cached via Table.CacheMode, so the following walk's start()
// leaves it absent instead of launching it again.
func (r *Reconciler) handleExits(exits []reaper.Exit) {
	for _, e := range exits {
		tag, ok := r.Table.RemoveByPid(e.Pid)
		if !ok {
			continue
		}
		if mode, ok := r.Table.CachedMode(tag); ok && mode != string(config.ModeRespawn) {
			r.Table.MarkCompleted(tag)
		}
		r.record("reap", tag, "", "", fmt.Sprintf("pid=%d status=%v", e.Pid, e.Status))
		r.Logger.Debug("reaped tag=%s pid=%d status=%v", tag, e.Pid, e.Status)
	}
}

// walk performs one pass over the tag table for target, per spec.md §4.6
// steps 1-7 plus the purge-departed-tags pass.
func (r *Reconciler) walk(target Target) error {
	records, err := config.ParseFile(r.TablePath)
	if err != nil {
		r.Logger.Error("reconcile aborted, config unavailable: %v", err)
		return err
	}

	active := make(map[string]bool, len(records))

	for _, rec := range records {
		r.Table.CacheMode(rec.Tag, string(rec.Mode))

		if rec.Mode == config.ModeOff {
			continue
		}
		active[rec.Tag] = true

		if rec.Group != target.Group {
			continue
		}

		shouldRun := rec.HasLevel(target.Runlevel)
		if shouldRun {
			r.start(rec)
		} else if _, ok := r.Table.Get(rec.Tag); ok {
			r.stop(rec.Tag)
		}
	}

	// Purge tags no longer present in the config, or now off, from every
	// group — not just the current target's group.
	for _, tag := range r.Table.Tags() {
		if active[tag] {
			continue
		}
		r.stop(tag)
		r.Table.DropCachedMode(tag)
		r.Table.DropThrottle(tag)
		r.Table.DropCompleted(tag)
	}

	// A completed once tag has already left byTag (its entry was removed
	// when it was reaped), so the loop above never sees it. Purge its
	// completed marker the same way once it is no longer active, so a
	// later re-entry into this runlevel runs it again.
	for _, tag := range r.Table.CompletedTags() {
		if active[tag] {
			continue
		}
		r.Table.DropCompleted(tag)
		r.Table.DropCachedMode(tag)
	}

	return nil
}

// start launches rec if it is not already tracked, applying wait-mode
// synchronous execution and respawn throttling as spec.md §4.6 step 6
// describes.
func (r *Reconciler) start(rec config.Record) {
	if _, ok := r.Table.Get(rec.Tag); ok {
		return
	}

	switch rec.Mode {
	case config.ModeWait:
		r.Table.PutWaiting(rec.Tag, rec.Group, string(rec.Mode))
		r.record("launch", rec.Tag, rec.Group, "", "mode=wait")
		if err := launcher.RunSync(rec.Tag, rec.Cmd); err != nil {
			r.Logger.Error("wait command failed for tag=%s: %v", rec.Tag, err)
			r.record("launch-failed", rec.Tag, rec.Group, "", err.Error())
		}
		// Placeholder stays in place; it is cleared when the tag leaves
		// the active set or the runlevel changes away from this one.

	case config.ModeRespawn:
		if !r.Table.AllowRespawn(rec.Tag, time.Now()) {
			r.Logger.Warn("respawn throttled for tag=%s", rec.Tag)
			r.record("throttle", rec.Tag, rec.Group, "", "respawn throttled")
			return
		}
		r.launch(rec)

	default: // once
		if r.Table.IsCompleted(rec.Tag) {
			return
		}
		r.launch(rec)
	}
}

func (r *Reconciler) launch(rec config.Record) {
	pid, err := launcher.Launch(rec.Tag, rec.Cmd)
	if err != nil {
		r.Logger.Error("launch failed for tag=%s: %v", rec.Tag, err)
		r.record("launch-failed", rec.Tag, rec.Group, "", err.Error())
		return
	}
	r.Table.PutLive(rec.Tag, rec.Group, pid, string(rec.Mode))
	r.Logger.Info("launched tag=%s pid=%d mode=%s", rec.Tag, pid, rec.Mode)
	r.record("launch", rec.Tag, rec.Group, "", fmt.Sprintf("pid=%d mode=%s", pid, rec.Mode))
}

// stop hands tag to the Terminator if it is currently tracked.
func (r *Reconciler) stop(tag string) {
	entry, ok := r.Table.Get(tag)
	if !ok {
		return
	}

	if entry.Pid == WaitPlaceholder {
		r.Table.Remove(tag)
		return
	}

	result := terminator.Terminate(entry.Pid, r.Backoff, func() bool {
		_, tracked := r.Table.Get(tag)
		return tracked
	})
	r.Table.Remove(tag)

	if result.Escalated {
		r.Logger.Info("TerminationEscalated tag=%s pid=%d", tag, entry.Pid)
		r.record("terminate-escalated", tag, "", "", fmt.Sprintf("pid=%d", entry.Pid))
	} else {
		r.record("terminate", tag, "", "", fmt.Sprintf("pid=%d", entry.Pid))
	}
}

// StopAll terminates every tag currently in the Process Table, for the
// stopall control verb (spec.md §4.7).
func (r *Reconciler) StopAll() {
	for _, tag := range r.Table.Tags() {
		r.stop(tag)
		r.Table.DropCachedMode(tag)
		r.Table.DropThrottle(tag)
	}
}

// Tell implements control.Handler for the "<group> <runlevel>" verb.
func (r *Reconciler) Tell(group, runlevel string) error {
	return r.Reconcile(Target{Group: group, Runlevel: runlevel})
}

// Status implements control.Handler for the status verb (SPEC_FULL.md §6),
// reporting a snapshot line per supervised tag.
func (r *Reconciler) Status() []control.StatusLine {
	entries := r.Table.Snapshot()
	lines := make([]control.StatusLine, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, control.StatusLine{
			Tag:           e.Tag,
			Group:         e.Group,
			Mode:          e.Mode,
			Pid:           e.Pid,
			UptimeSeconds: int64(time.Since(e.StartedAt).Seconds()),
		})
	}
	return lines
}
