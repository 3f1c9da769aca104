// Package forest provides the paged tree data source.
// It serves windowed child lookups over an in-memory forest of records and
// applies validated reparent mutations, notifying observers after each commit.
package forest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/treegrid/pkg/core"
)

// Observer receives committed moves. Observers run synchronously on the
// goroutine that called Reparent and must not call Reparent themselves.
type Observer func(core.MoveEvent)

// Committer persists a move before it becomes visible in memory.
// A non-nil error aborts the move.
type Committer interface {
	CommitMove(ctx context.Context, ev core.MoveEvent) error
}

// DropPolicy can further restrict where records may be dropped.
type DropPolicy interface {
	AllowDrop(candidate, target core.Record) (bool, error)
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCommitter makes every reparent write through to c.
func WithCommitter(c Committer) Option {
	return func(s *Source) { s.committer = c }
}

// WithPolicy installs an additional drop policy.
func WithPolicy(p DropPolicy) Option {
	return func(s *Source) { s.policy = p }
}

// WithClock overrides the time source used for move timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Source) { s.now = now }
}

// snapshot is one installed version of the forest. Installed snapshots are
// never mutated: Load and Reparent build a new one and swap it in.
type snapshot struct {
	order   []core.RecordID
	records map[core.RecordID]*core.Record
}

// Source is the paged tree data source.
type Source struct {
	mu   sync.RWMutex
	tree snapshot

	// commitMu serialises writers (Reparent, Load) and observer delivery so
	// that events arrive in commit order. Readers only take mu.
	commitMu sync.Mutex

	obsMu     sync.Mutex
	observers map[int]Observer
	nextObs   int

	committer Committer
	policy    DropPolicy
	logger    *slog.Logger
	now       func() time.Time
}

// New creates an empty Source.
func New(opts ...Option) *Source {
	s := &Source{
		tree: snapshot{
			records: make(map[core.RecordID]*core.Record),
		},
		observers: make(map[int]Observer),
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load validates records and installs them as the new forest.
// On error the current forest is left untouched.
func (s *Source) Load(records []core.Record) error {
	tree, err := build(records)
	if err != nil {
		return err
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	s.install(tree)

	s.logger.Debug("forest loaded", "records", len(tree.order))
	return nil
}

// Validate checks that records form a valid forest without installing them.
func Validate(records []core.Record) error {
	_, err := build(records)
	return err
}

// build checks id uniqueness, parent references and acyclicity.
func build(records []core.Record) (snapshot, error) {
	tree := snapshot{
		order:   make([]core.RecordID, 0, len(records)),
		records: make(map[core.RecordID]*core.Record, len(records)),
	}

	for i := range records {
		rec := records[i].Clone()
		if rec.ID == "" {
			return snapshot{}, fmt.Errorf("%w: record at position %d has an empty id", core.ErrInvalidArgument, i)
		}
		if _, exists := tree.records[rec.ID]; exists {
			return snapshot{}, fmt.Errorf("%w: duplicate record id %q", core.ErrInvalidArgument, rec.ID)
		}
		tree.records[rec.ID] = &rec
		tree.order = append(tree.order, rec.ID)
	}

	for _, id := range tree.order {
		rec := tree.records[id]
		if rec.IsRoot() {
			continue
		}
		parent, ok := tree.records[rec.ParentID]
		if !ok {
			return snapshot{}, fmt.Errorf("%w: record %q references unknown parent %q", core.ErrInvalidArgument, id, rec.ParentID)
		}
		if !parent.IsContainer {
			return snapshot{}, fmt.Errorf("%w: record %q has parent %q which is not a container", core.ErrInvalidArgument, id, rec.ParentID)
		}
	}

	if hasCycle, path := tree.findCycle(); hasCycle {
		return snapshot{}, fmt.Errorf("%w: %w: %v", core.ErrInvalidArgument, core.ErrCycleDetected, path)
	}

	return tree, nil
}

// findCycle walks each record's parent chain and reports the first loop.
func (t snapshot) findCycle() (bool, []core.RecordID) {
	// 0 = unvisited, 1 = on current chain, 2 = known to reach a root
	state := make(map[core.RecordID]int, len(t.order))

	for _, start := range t.order {
		var chain []core.RecordID
		for id := start; id != core.NoParent; id = t.records[id].ParentID {
			if state[id] == 2 {
				break
			}
			if state[id] == 1 {
				// reconstruct the loop starting at id
				for i, c := range chain {
					if c == id {
						return true, append(chain[i:], id)
					}
				}
				return true, append(chain, id)
			}
			state[id] = 1
			chain = append(chain, id)
		}
		for _, id := range chain {
			state[id] = 2
		}
	}
	return false, nil
}

// Len returns the number of records in the forest.
func (s *Source) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tree.order)
}

// Get returns a copy of the record with the given id.
func (s *Source) Get(id core.RecordID) (core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tree.records[id]
	if !ok {
		return core.Record{}, fmt.Errorf("%w: %q", core.ErrNotFound, id)
	}
	return rec.Clone(), nil
}

// All returns copies of every record in insertion order.
func (s *Source) All() []core.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Record, 0, len(s.tree.order))
	for _, id := range s.tree.order {
		out = append(out, s.tree.records[id].Clone())
	}
	return out
}

// FetchPage returns the requested window of the children of req.ParentID,
// or of the roots when ParentID is empty. The full set is recomputed from the
// current forest on every call, in insertion order.
func (s *Source) FetchPage(req core.PageRequest) (core.PageResult, error) {
	if err := req.Validate(); err != nil {
		return core.PageResult{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tree.page(req), nil
}

// page computes a window. Callers hold at least the read lock.
func (t snapshot) page(req core.PageRequest) core.PageResult {
	start, end := req.Window()

	result := core.PageResult{Items: []core.Record{}}
	for _, id := range t.order {
		rec := t.records[id]
		if rec.ParentID != req.ParentID {
			continue
		}
		if result.TotalCount >= start && result.TotalCount < end {
			result.Items = append(result.Items, rec.Clone())
		}
		result.TotalCount++
	}
	return result
}

// children returns the full child set of id in insertion order.
func (t snapshot) children(id core.RecordID) []*core.Record {
	var out []*core.Record
	for _, cid := range t.order {
		if rec := t.records[cid]; rec.ParentID == id {
			out = append(out, rec)
		}
	}
	return out
}

// CanDrag reports whether the record may be dragged: only non-container
// records are draggable.
func (s *Source) CanDrag(id core.RecordID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tree.records[id]
	if !ok {
		return false, &core.MoveError{Op: "drag", Candidate: id, Err: core.ErrNotFound}
	}
	return !rec.IsContainer, nil
}

// CanDrop reports whether candidate may be dropped onto target: the target
// must be a container other than the candidate's current parent, and any
// configured drop policy must agree.
func (s *Source) CanDrop(candidateID, targetID core.RecordID) (bool, error) {
	s.mu.RLock()
	target, ok := s.tree.records[targetID]
	if !ok {
		s.mu.RUnlock()
		return false, &core.MoveError{Op: "drop", Candidate: candidateID, Target: targetID, Err: core.ErrNotFound}
	}
	candidate, ok := s.tree.records[candidateID]
	if !ok {
		s.mu.RUnlock()
		return false, &core.MoveError{Op: "drop", Candidate: candidateID, Target: targetID, Err: core.ErrNotFound}
	}
	allowed := target.IsContainer && target.ID != candidate.ParentID
	c, tg := candidate.Clone(), target.Clone()
	s.mu.RUnlock()

	if !allowed || s.policy == nil {
		return allowed, nil
	}
	return s.allowedByPolicy(c, tg), nil
}

func (s *Source) allowedByPolicy(candidate, target core.Record) bool {
	ok, err := s.policy.AllowDrop(candidate, target)
	if err != nil {
		s.logger.Warn("drop policy failed, denying drop",
			"candidate", candidate.ID, "target", target.ID, "error", err)
		return false
	}
	return ok
}

// Reparent moves candidate under newParent. Preconditions are checked in
// order and the first failure wins: unknown candidate (ErrNotFound), target
// missing or not a container (ErrInvalidTarget), target is the current parent
// (ErrNoOp), target is the candidate or one of its descendants
// (ErrCycleDetected), drop policy refusal (ErrInvalidTarget).
//
// Checks run against the installed snapshot and the committer runs without
// holding the read-write lock; a new snapshot is swapped in once the commit
// succeeds. Readers see either the old forest or the new one, never a
// half-applied move. A committer failure aborts the move.
func (s *Source) Reparent(ctx context.Context, candidateID, newParentID core.RecordID) (core.MoveEvent, error) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	ev, err := s.apply(ctx, candidateID, newParentID)
	if err != nil {
		return core.MoveEvent{}, err
	}

	s.logger.Debug("record reparented",
		"record", candidateID, "from", ev.OldParentID, "to", newParentID)

	s.deliver(ev)
	return ev, nil
}

// apply validates, commits and installs one move. Callers hold commitMu, so
// the snapshot read here stays current until install.
func (s *Source) apply(ctx context.Context, candidateID, newParentID core.RecordID) (core.MoveEvent, error) {
	fail := func(err error) (core.MoveEvent, error) {
		return core.MoveEvent{}, &core.MoveError{Op: "reparent", Candidate: candidateID, Target: newParentID, Err: err}
	}

	s.mu.RLock()
	tree := s.tree
	s.mu.RUnlock()

	candidate, ok := tree.records[candidateID]
	if !ok {
		return fail(core.ErrNotFound)
	}
	target, ok := tree.records[newParentID]
	if !ok || !target.IsContainer {
		return fail(core.ErrInvalidTarget)
	}
	if candidate.ParentID == newParentID {
		return fail(core.ErrNoOp)
	}
	if newParentID == candidateID || tree.isAncestor(candidateID, newParentID) {
		return fail(core.ErrCycleDetected)
	}
	if s.policy != nil && !s.allowedByPolicy(candidate.Clone(), target.Clone()) {
		return fail(fmt.Errorf("%w: denied by drop policy", core.ErrInvalidTarget))
	}

	ev := core.MoveEvent{
		ID:          uuid.New().String(),
		RecordID:    candidateID,
		OldParentID: candidate.ParentID,
		NewParentID: newParentID,
		MovedAt:     s.now().UTC(),
	}

	if s.committer != nil {
		if err := s.committer.CommitMove(ctx, ev); err != nil {
			return core.MoveEvent{}, fmt.Errorf("failed to commit move of %q: %w", candidateID, err)
		}
	}

	moved := candidate.Clone()
	moved.ParentID = newParentID
	s.install(tree.with(&moved))
	return ev, nil
}

// install swaps in a new snapshot.
func (s *Source) install(tree snapshot) {
	s.mu.Lock()
	s.tree = tree
	s.mu.Unlock()
}

// with returns a copy of t in which rec replaces the entry with its ID.
// The order slice is shared; it never changes after build.
func (t snapshot) with(rec *core.Record) snapshot {
	records := make(map[core.RecordID]*core.Record, len(t.records))
	for id, r := range t.records {
		records[id] = r
	}
	records[rec.ID] = rec
	return snapshot{order: t.order, records: records}
}

// isAncestor reports whether ancestor appears on the parent chain of id.
func (t snapshot) isAncestor(ancestor, id core.RecordID) bool {
	for cur := t.records[id]; cur != nil && !cur.IsRoot(); cur = t.records[cur.ParentID] {
		if cur.ParentID == ancestor {
			return true
		}
	}
	return false
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Source) Subscribe(o Observer) (cancel func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = o
	s.obsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.obsMu.Lock()
			delete(s.observers, id)
			s.obsMu.Unlock()
		})
	}
}

func (s *Source) deliver(ev core.MoveEvent) {
	s.obsMu.Lock()
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	observers := make([]Observer, 0, len(ids))
	for _, id := range ids {
		observers = append(observers, s.observers[id])
	}
	s.obsMu.Unlock()

	for _, o := range observers {
		o(ev)
	}
}
