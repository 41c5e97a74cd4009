package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/triage/internal/core/queue"
	"github.com/example/triage/internal/ports/primary"
	"github.com/example/triage/internal/ports/secondary"
)

// QueueServiceImpl implements the QueueService interface for one staff
// session. It owns the session's ranked view and reconciles it with the
// record store. The mutex guards local state only; it is never held across
// a store call.
type QueueServiceImpl struct {
	entryRepo secondary.EntryRepository
	logWriter secondary.LogWriter
	store     storeCaller
	observer  Observer
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string

	mu       sync.Mutex
	state    queue.Queue
	inflight map[string]bool
	busy     map[queue.Partition]bool
	pending  map[string]queue.PendingAction
}

// QueueServiceOption configures a QueueServiceImpl.
type QueueServiceOption func(*QueueServiceImpl)

// WithStoreTimeout bounds every record store call.
func WithStoreTimeout(d time.Duration) QueueServiceOption {
	return func(s *QueueServiceImpl) { s.store.timeout = d }
}

// WithObserver reports service events to o.
func WithObserver(o Observer) QueueServiceOption {
	return func(s *QueueServiceImpl) {
		s.observer = o
		s.store.observer = o
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) QueueServiceOption {
	return func(s *QueueServiceImpl) { s.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) QueueServiceOption {
	return func(s *QueueServiceImpl) { s.now = now }
}

// WithActionIDs overrides the pending action ID generator.
func WithActionIDs(newID func() string) QueueServiceOption {
	return func(s *QueueServiceImpl) { s.newID = newID }
}

// NewQueueService creates a new QueueService with injected dependencies.
func NewQueueService(entryRepo secondary.EntryRepository, logWriter secondary.LogWriter, opts ...QueueServiceOption) *QueueServiceImpl {
	s := &QueueServiceImpl{
		entryRepo: entryRepo,
		logWriter: logWriter,
		store:     storeCaller{observer: NopObserver{}},
		observer:  NopObserver{},
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.NewString() },
		inflight:  make(map[string]bool),
		busy:      make(map[queue.Partition]bool),
		pending:   make(map[string]queue.PendingAction),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches both partitions from the store and replaces the session view.
func (s *QueueServiceImpl) Load(ctx context.Context) (*primary.QueueView, error) {
	s.mu.Lock()
	if len(s.inflight) > 0 || s.busy[queue.PartitionActive] || s.busy[queue.PartitionShipped] {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: wait for outstanding saves before reloading", ErrEntryBusy)
	}
	s.busy[queue.PartitionActive] = true
	s.busy[queue.PartitionShipped] = true
	s.mu.Unlock()

	entries, err := s.list(ctx, nil)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, queue.PartitionActive)
	delete(s.busy, queue.PartitionShipped)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}
	s.state = queue.Load(entries)
	s.logger.Debug("queue loaded", "active", len(s.state.Active), "shipped", len(s.state.Shipped))
	return toView(s.state), nil
}

// Snapshot returns the current session view.
func (s *QueueServiceImpl) Snapshot() *primary.QueueView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return toView(s.state)
}

// Reorder moves an entry within its partition. The new order is shown
// immediately and then persisted. If persisting fails the view is rolled
// back, or re-fetched when some writes may have landed.
func (s *QueueServiceImpl) Reorder(ctx context.Context, req primary.ReorderRequest) (*primary.ReorderResponse, error) {
	p := queue.Partition(req.Partition)
	now := s.now()

	s.mu.Lock()
	next, changes, err := queue.Reorder(s.state, queue.ReorderRequest{
		EntryID:   req.EntryID,
		Partition: p,
		Position:  req.Position,
	}, now)
	if err != nil {
		s.mu.Unlock()
		s.finish("reorder", OutcomeRejected)
		return nil, err
	}
	if len(changes) == 0 {
		view := toView(s.state)
		s.mu.Unlock()
		return &primary.ReorderResponse{Queue: view}, nil
	}
	// An in-flight ship or unship can land in p, so both partitions are checked
	guard := queue.CanMutate(queue.MutateContext{
		EntryIDs:      append(s.state.IDs(queue.PartitionActive), s.state.IDs(queue.PartitionShipped)...),
		InFlight:      s.inflight,
		PartitionBusy: s.busy[p],
		Partition:     p,
	})
	if !guard.Allowed {
		s.mu.Unlock()
		s.finish("reorder", OutcomeRejected)
		return nil, guard.Error()
	}
	snapshot := s.state
	s.state = next
	s.claim(p, changes.IDs())
	s.mu.Unlock()

	landed, err := s.persistScores(ctx, changes, now)
	if err != nil {
		perr := s.recoverReorder(ctx, p, snapshot, changes, landed, err)
		s.release(p, changes.IDs())
		s.finish("reorder", OutcomeFailed)
		return nil, perr
	}
	s.release(p, changes.IDs())

	for _, c := range changes {
		s.audit(ctx, func(ctx context.Context) error {
			return s.logWriter.LogUpdate(ctx, c.EntryID, secondary.AuditFieldOverrideScore, formatScore(c.PreviousScore), strconv.Itoa(c.Score))
		})
	}
	s.finish("reorder", OutcomeOK)
	s.logger.Info("queue reordered", "entry_id", req.EntryID, "partition", p, "position", req.Position, "changed", len(changes))

	return &primary.ReorderResponse{Changed: changes.IDs(), Queue: s.Snapshot()}, nil
}

// RequestShipToggle stages a ship (or unship, for shipped entries).
func (s *QueueServiceImpl) RequestShipToggle(ctx context.Context, entryID string) (*primary.PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, _, ok := s.state.Find(entryID)
	toggle := queue.ToggleContext{EntryID: entryID, Exists: ok, Shipped: e.Shipped}
	guard := queue.CanShip(toggle)
	if e.Shipped {
		guard = queue.CanUnship(toggle)
	}
	if !guard.Allowed {
		return nil, guard.Error()
	}
	if result := s.canMutate(entryID, queue.PartitionActive, queue.PartitionShipped); !result.Allowed {
		return nil, result.Error()
	}

	action := queue.NewShipToggle(s.newID(), e)
	s.pending[action.ID] = action
	return toPendingAction(action), nil
}

// RequestDelete stages a delete.
func (s *QueueServiceImpl) RequestDelete(ctx context.Context, entryID string) (*primary.PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, p, ok := s.state.Find(entryID)
	if result := queue.CanDelete(queue.DeleteContext{EntryID: entryID, Exists: ok}); !result.Allowed {
		return nil, result.Error()
	}
	if result := s.canMutate(entryID, p); !result.Allowed {
		return nil, result.Error()
	}

	action := queue.NewDelete(s.newID(), e)
	s.pending[action.ID] = action
	return toPendingAction(action), nil
}

// Resolve confirms or cancels a staged action. A cancel touches nothing. A
// confirm issues the store call and changes the local view only once the
// store has accepted it.
func (s *QueueServiceImpl) Resolve(ctx context.Context, req primary.ResolveRequest) (*primary.ResolveResponse, error) {
	s.mu.Lock()
	action, ok := s.pending[req.ActionID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNoPendingAction, req.ActionID)
	}
	delete(s.pending, req.ActionID)

	if !req.Confirmed {
		view := toView(s.state)
		s.mu.Unlock()
		s.finish(string(action.Kind), OutcomeCancelled)
		return &primary.ResolveResponse{Applied: false, Action: *toPendingAction(action), Queue: view}, nil
	}

	e, p, found := s.state.Find(action.EntryID)
	if guard := s.canResolve(action, e, found); !guard.Allowed {
		s.mu.Unlock()
		s.finish(string(action.Kind), OutcomeRejected)
		return nil, guard.Error()
	}
	if guard := s.canMutate(action.EntryID, p, otherPartition(p)); !guard.Allowed {
		s.pending[action.ID] = action
		s.mu.Unlock()
		s.finish(string(action.Kind), OutcomeRejected)
		return nil, guard.Error()
	}
	s.inflight[action.EntryID] = true
	s.mu.Unlock()

	now := s.now()
	err := s.applyAction(ctx, action, now)

	s.mu.Lock()
	delete(s.inflight, action.EntryID)
	if err != nil {
		if errors.Is(err, secondary.ErrNotFound) {
			// Another session removed the row; drop it here too.
			s.state, _ = queue.Remove(s.state, action.EntryID)
			view := toView(s.state)
			s.mu.Unlock()
			s.logger.Debug("entry already gone from store", "entry_id", action.EntryID, "action", action.Kind)
			if action.Kind == queue.ActionDelete {
				s.finish(string(action.Kind), OutcomeOK)
				return &primary.ResolveResponse{Applied: true, Action: *toPendingAction(action), Queue: view}, nil
			}
			s.finish(string(action.Kind), OutcomeFailed)
			return nil, fmt.Errorf("%w: %s no longer exists", ErrNotFound, action.EntryID)
		}
		s.mu.Unlock()
		s.finish(string(action.Kind), OutcomeFailed)
		s.logger.Warn("store write failed", "entry_id", action.EntryID, "action", action.Kind, "error", err)
		return nil, &PersistenceError{Op: string(action.Kind), EntryIDs: []string{action.EntryID}, Err: err}
	}

	switch action.Kind {
	case queue.ActionShip:
		s.state, err = queue.Promote(s.state, action.EntryID, now)
	case queue.ActionUnship:
		s.state, err = queue.Demote(s.state, action.EntryID, now)
	case queue.ActionDelete:
		s.state, err = queue.Remove(s.state, action.EntryID)
	}
	view := toView(s.state)
	s.mu.Unlock()
	if err != nil {
		// The store accepted the write but the entry left the local view
		// meanwhile; nothing more to apply.
		s.logger.Debug("local view already updated", "entry_id", action.EntryID, "error", err)
	}

	s.auditAction(ctx, action)
	s.finish(string(action.Kind), OutcomeOK)
	s.logger.Info("queue entry updated", "entry_id", action.EntryID, "action", action.Kind)
	return &primary.ResolveResponse{Applied: true, Action: *toPendingAction(action), Queue: view}, nil
}

func (s *QueueServiceImpl) applyAction(ctx context.Context, action queue.PendingAction, now time.Time) error {
	switch action.Kind {
	case queue.ActionShip, queue.ActionUnship:
		shipped := action.Kind == queue.ActionShip
		return s.store.call(ctx, "update", func(ctx context.Context) error {
			return s.entryRepo.Update(ctx, secondary.EntryPatch{
				EntryID:   action.EntryID,
				Shipped:   &shipped,
				UpdatedAt: now,
			})
		})
	case queue.ActionDelete:
		return s.store.call(ctx, "delete", func(ctx context.Context) error {
			return s.entryRepo.Delete(ctx, action.EntryID)
		})
	default:
		return fmt.Errorf("unknown action kind %q", action.Kind)
	}
}

// persistScores writes the reorder's override scores. It returns how many
// patches are known to have landed.
func (s *QueueServiceImpl) persistScores(ctx context.Context, changes queue.ChangeSet, now time.Time) (int, error) {
	manual := true
	patches := make([]secondary.EntryPatch, len(changes))
	for i, c := range changes {
		score := c.Score
		patches[i] = secondary.EntryPatch{
			EntryID:        c.EntryID,
			OverrideScore:  &score,
			ManualOverride: &manual,
			UpdatedAt:      now,
		}
	}

	if batch, ok := s.entryRepo.(secondary.BatchUpdater); ok {
		err := s.store.call(ctx, "update_batch", func(ctx context.Context) error {
			return batch.UpdateBatch(ctx, patches)
		})
		if err != nil {
			return 0, err
		}
		return len(patches), nil
	}

	for i, patch := range patches {
		err := s.store.call(ctx, "update", func(ctx context.Context) error {
			return s.entryRepo.Update(ctx, patch)
		})
		if err != nil {
			return i, err
		}
	}
	return len(patches), nil
}

// recoverReorder brings the local view back in line after a failed reorder.
func (s *QueueServiceImpl) recoverReorder(ctx context.Context, p queue.Partition, snapshot queue.Queue, changes queue.ChangeSet, landed int, cause error) *PersistenceError {
	perr := &PersistenceError{Op: "reorder", EntryIDs: changes.IDs(), Err: cause}

	if landed == 0 && !indeterminate(cause) && !errors.Is(cause, secondary.ErrNotFound) {
		s.mu.Lock()
		s.state = queue.Restore(s.state, snapshot, p)
		s.mu.Unlock()
		perr.RolledBack = true
		s.observer.RolledBack("rollback")
		s.logger.Warn("reorder rolled back", "partition", p, "error", cause)
		return perr
	}

	shipped := p == queue.PartitionShipped
	entries, err := s.list(context.WithoutCancel(ctx), &shipped)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = queue.Restore(s.state, snapshot, p)
		perr.RolledBack = true
		perr.Stale = true
		s.observer.RolledBack("stale")
		s.logger.Error("reorder re-fetch failed", "partition", p, "error", err, "cause", cause)
		return perr
	}
	s.state = queue.WithPartition(s.state, p, entries)
	perr.Refetched = true
	s.observer.RolledBack("refetch")
	s.logger.Warn("reorder partially applied; re-fetched partition", "partition", p, "landed", landed, "error", cause)
	return perr
}

func (s *QueueServiceImpl) list(ctx context.Context, shipped *bool) ([]queue.Entry, error) {
	var records []*secondary.EntryRecord
	err := s.store.call(ctx, "list", func(ctx context.Context) error {
		var err error
		records, err = s.entryRepo.List(ctx, secondary.EntryFilters{Shipped: shipped})
		return err
	})
	if err != nil {
		return nil, err
	}
	entries := make([]queue.Entry, len(records))
	for i, r := range records {
		entries[i] = recordToEntry(r)
	}
	return entries, nil
}

// canResolve re-checks a staged action against the current view.
func (s *QueueServiceImpl) canResolve(action queue.PendingAction, e queue.Entry, found bool) queue.GuardResult {
	switch action.Kind {
	case queue.ActionShip:
		return queue.CanShip(queue.ToggleContext{EntryID: action.EntryID, Exists: found, Shipped: e.Shipped})
	case queue.ActionUnship:
		return queue.CanUnship(queue.ToggleContext{EntryID: action.EntryID, Exists: found, Shipped: e.Shipped})
	default:
		return queue.CanDelete(queue.DeleteContext{EntryID: action.EntryID, Exists: found})
	}
}

// canMutate must be called with s.mu held.
func (s *QueueServiceImpl) canMutate(entryID string, partitions ...queue.Partition) queue.GuardResult {
	for _, p := range partitions {
		if s.busy[p] {
			return queue.CanMutate(queue.MutateContext{PartitionBusy: true, Partition: p})
		}
	}
	return queue.CanMutate(queue.MutateContext{EntryIDs: []string{entryID}, InFlight: s.inflight})
}

// claim must be called with s.mu held.
func (s *QueueServiceImpl) claim(p queue.Partition, ids []string) {
	s.busy[p] = true
	for _, id := range ids {
		s.inflight[id] = true
	}
}

func (s *QueueServiceImpl) release(p queue.Partition, ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, p)
	for _, id := range ids {
		delete(s.inflight, id)
	}
}

func (s *QueueServiceImpl) auditAction(ctx context.Context, action queue.PendingAction) {
	switch action.Kind {
	case queue.ActionShip:
		s.audit(ctx, func(ctx context.Context) error {
			return s.logWriter.LogUpdate(ctx, action.EntryID, secondary.AuditFieldShipped, "false", "true")
		})
	case queue.ActionUnship:
		s.audit(ctx, func(ctx context.Context) error {
			return s.logWriter.LogUpdate(ctx, action.EntryID, secondary.AuditFieldShipped, "true", "false")
		})
	case queue.ActionDelete:
		s.audit(ctx, func(ctx context.Context) error {
			return s.logWriter.LogDelete(ctx, action.EntryID)
		})
	}
}

// audit writes one audit record. Failures are logged, never returned.
func (s *QueueServiceImpl) audit(ctx context.Context, write func(context.Context) error) {
	if s.logWriter == nil {
		return
	}
	if err := s.store.call(ctx, "audit", write); err != nil {
		s.logger.Warn("audit log write failed", "error", err)
	}
}

func (s *QueueServiceImpl) finish(action, outcome string) {
	s.observer.MutationFinished(action, outcome)
}

// Helper methods

func otherPartition(p queue.Partition) queue.Partition {
	if p == queue.PartitionShipped {
		return queue.PartitionActive
	}
	return queue.PartitionShipped
}

func formatScore(score *int) string {
	if score == nil {
		return ""
	}
	return strconv.Itoa(*score)
}

func recordToEntry(r *secondary.EntryRecord) queue.Entry {
	return queue.Entry{
		ID:             r.ID,
		Name:           r.Answers.Name,
		Email:          r.Answers.Email,
		PriorityScore:  r.PriorityScore,
		OverrideScore:  r.OverrideScore,
		ManualOverride: r.ManualOverride,
		Shipped:        r.Shipped,
		UpdatedAt:      r.UpdatedAt,
	}
}

func toView(q queue.Queue) *primary.QueueView {
	view := &primary.QueueView{
		Active:  make([]*primary.Entry, len(q.Active)),
		Shipped: make([]*primary.Entry, len(q.Shipped)),
	}
	for i, e := range q.Active {
		view.Active[i] = toEntry(e)
	}
	for i, e := range q.Shipped {
		view.Shipped[i] = toEntry(e)
	}
	return view
}

func toEntry(e queue.Entry) *primary.Entry {
	var override *int
	if e.OverrideScore != nil {
		v := *e.OverrideScore
		override = &v
	}
	return &primary.Entry{
		ID:             e.ID,
		Name:           e.Name,
		Email:          e.Email,
		PriorityScore:  e.PriorityScore,
		OverrideScore:  override,
		ManualOverride: e.ManualOverride,
		EffectiveScore: e.EffectiveScore(),
		Shipped:        e.Shipped,
		UpdatedAt:      e.UpdatedAt,
	}
}

func toPendingAction(a queue.PendingAction) *primary.PendingAction {
	return &primary.PendingAction{
		ID:        a.ID,
		Kind:      string(a.Kind),
		EntryID:   a.EntryID,
		EntryName: a.EntryName,
		Prompt:    a.Prompt,
	}
}

// Ensure QueueServiceImpl implements the interface
var _ primary.QueueService = (*QueueServiceImpl)(nil)
