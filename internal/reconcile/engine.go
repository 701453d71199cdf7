package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/team-hierarchy-service/internal/domain"
	"github.com/spec-kit/team-hierarchy-service/internal/observability"
	"github.com/spec-kit/team-hierarchy-service/internal/store"
)

// ErrDependencyFailed marks an operation skipped because an operation it
// depends on did not succeed.
var ErrDependencyFailed = errors.New("dependent operation failed")

// FailedOperation pairs an operation with the error that stopped it.
type FailedOperation struct {
	Op  Operation
	Err error
}

// Result reports what the engine actually did. Reconciliation is best-effort
// per node, not transactional: callers decide how to surface Failed.
type Result struct {
	Applied []Operation
	Failed  []FailedOperation
}

// FullySucceeded reports whether every planned operation applied.
func (r Result) FullySucceeded() bool { return len(r.Failed) == 0 }

// Warnings renders one message per failed operation for the submit response.
func (r Result) Warnings() []string {
	if len(r.Failed) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		out = append(out, fmt.Sprintf("%s for user %s failed: %v", f.Op.Kind, f.Op.UserID, f.Err))
	}
	return out
}

// Engine drives a reconciliation plan against the team store.
type Engine struct {
	store   store.TeamStore
	logger  *zap.Logger
	metrics *observability.Metrics
}

// EngineDependencies bundles engine collaborators.
type EngineDependencies struct {
	Store   store.TeamStore
	Logger  *zap.Logger
	Metrics *observability.Metrics
}

// NewEngine constructs the engine.
func NewEngine(deps EngineDependencies) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{store: deps.Store, logger: logger, metrics: deps.Metrics}
}

// Reconcile plans and applies the diff between the hierarchy last known to
// the store and the edited one. It returns what was applied plus the edited
// tree with pending ids replaced by store-assigned ids from successful
// creates.
func (e *Engine) Reconcile(ctx context.Context, teamID string, original, current *domain.HierarchyTree) (Result, *domain.HierarchyTree) {
	plan := BuildPlan(original, current)
	return e.Apply(ctx, teamID, current, plan)
}

// Apply executes a plan. All deletes run before any create so a user moved
// across lineages is removed before being re-added. Lineages are independent
// and run concurrently; within a lineage operations are sequenced so a parent
// completes before any dependent child is issued. A failed operation never
// aborts siblings; operations depending on it are skipped and recorded.
func (e *Engine) Apply(ctx context.Context, teamID string, current *domain.HierarchyTree, plan Plan) (Result, *domain.HierarchyTree) {
	exec := &execution{
		engine:         e,
		teamID:         teamID,
		resolved:       make(map[string]string, len(plan.Resolved)),
		failedChildren: make(map[string]int),
	}
	for pending, persisted := range plan.Resolved {
		exec.resolved[pending] = persisted
	}

	var wg sync.WaitGroup
	for i := range plan.Lineages {
		wg.Add(1)
		go func(l *Lineage) {
			defer wg.Done()
			exec.runDeletes(ctx, l)
		}(&plan.Lineages[i])
	}
	wg.Wait()

	for i := range plan.Lineages {
		wg.Add(1)
		go func(l *Lineage) {
			defer wg.Done()
			exec.runCreates(ctx, l)
		}(&plan.Lineages[i])
	}
	wg.Wait()

	result := Result{Applied: exec.applied, Failed: exec.failed}
	e.recordMetrics(result)
	return result, exec.resolveTree(current)
}

type execution struct {
	engine *Engine
	teamID string

	mu             sync.Mutex
	applied        []Operation
	failed         []FailedOperation
	resolved       map[string]string
	failedChildren map[string]int
}

// runDeletes walks one lineage bottom-up: members, then their team lead, then
// the manager. A parent delete is skipped when any of its child deletes
// failed, since the store would reject it anyway.
func (x *execution) runDeletes(ctx context.Context, l *Lineage) {
	for _, op := range l.Deletes {
		if n := x.failedChildrenOf(op.Target); n > 0 {
			x.fail(op, fmt.Errorf("%w: %d child deletes did not complete", ErrDependencyFailed, n))
			continue
		}

		var err error
		switch op.Kind {
		case OpDeleteMember:
			err = x.engine.store.DeleteMember(ctx, op.Target.Value())
		case OpDeleteTeamLead:
			err = x.engine.store.DeleteTeamLead(ctx, op.Target.Value())
		case OpDeleteManager:
			err = x.engine.store.DeleteManager(ctx, op.Target.Value())
		default:
			err = fmt.Errorf("unexpected delete kind %s", op.Kind)
		}
		if err != nil {
			x.fail(op, err)
			continue
		}
		x.ok(op)
	}
}

// runCreates walks one lineage top-down: manager, then team leads, then
// members, resolving each parent's store id before its children are issued.
func (x *execution) runCreates(ctx context.Context, l *Lineage) {
	for _, op := range l.Creates {
		switch op.Kind {
		case OpCreateManager:
			node, err := x.engine.store.CreateManager(ctx, x.teamID, op.UserID)
			if err != nil {
				x.fail(op, err)
				continue
			}
			x.resolve(op.Target, node.ID.Value())
			x.ok(op)

		case OpCreateTeamLead:
			parentID, ok := x.parentID(op.Parent)
			if !ok {
				x.fail(op, fmt.Errorf("%w: manager for team lead %s was not created", ErrDependencyFailed, op.UserID))
				continue
			}
			node, err := x.engine.store.CreateTeamLead(ctx, x.teamID, parentID, op.UserID)
			if err != nil {
				x.fail(op, err)
				continue
			}
			x.resolve(op.Target, node.ID.Value())
			x.ok(op)

		case OpCreateMember:
			parentID, ok := x.parentID(op.Parent)
			if !ok {
				x.fail(op, fmt.Errorf("%w: team lead for member %s was not created", ErrDependencyFailed, op.UserID))
				continue
			}
			node, err := x.engine.store.CreateMember(ctx, x.teamID, parentID, op.UserID)
			if err != nil {
				x.fail(op, err)
				continue
			}
			x.resolve(op.Target, node.ID.Value())
			x.ok(op)

		default:
			x.fail(op, fmt.Errorf("unexpected create kind %s", op.Kind))
		}
	}
}

// parentID maps a plan-time parent reference to a store id.
func (x *execution) parentID(parent domain.NodeID) (string, bool) {
	if parent.Persisted() {
		return parent.Value(), true
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	id, ok := x.resolved[parent.Value()]
	return id, ok
}

func (x *execution) resolve(pending domain.NodeID, persisted string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.resolved[pending.Value()] = persisted
}

func (x *execution) ok(op Operation) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.applied = append(x.applied, op)
}

func (x *execution) fail(op Operation, err error) {
	x.engine.logger.Warn("hierarchy operation failed",
		zap.String("op", string(op.Kind)),
		zap.String("user_id", op.UserID),
		zap.String("team_id", x.teamID),
		zap.Error(err),
	)
	x.mu.Lock()
	defer x.mu.Unlock()
	x.failed = append(x.failed, FailedOperation{Op: op, Err: err})
	if op.Parent.Persisted() {
		x.failedChildren[op.Parent.Value()]++
	}
}

func (x *execution) failedChildrenOf(id domain.NodeID) int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.failedChildren[id.Value()]
}

// resolveTree returns a copy of the edited tree with pending ids swapped for
// the store ids obtained during this run (and for nodes matched unchanged
// against the original).
func (x *execution) resolveTree(current *domain.HierarchyTree) *domain.HierarchyTree {
	out := current.Clone()
	if out == nil {
		return nil
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	for i := range out.Managers {
		m := &out.Managers[i]
		m.ID = x.resolveIDLocked(m.ID)
		for j := range m.TeamLeads {
			l := &m.TeamLeads[j]
			l.ID = x.resolveIDLocked(l.ID)
			for k := range l.Members {
				l.Members[k].ID = x.resolveIDLocked(l.Members[k].ID)
			}
		}
	}
	return out
}

func (x *execution) resolveIDLocked(id domain.NodeID) domain.NodeID {
	if id.Persisted() {
		return id
	}
	if persisted, ok := x.resolved[id.Value()]; ok {
		return domain.PersistedID(persisted)
	}
	return id
}

func (e *Engine) recordMetrics(result Result) {
	if e.metrics == nil {
		return
	}
	applied := make(map[OpKind]int64)
	failed := make(map[OpKind]int64)
	for _, op := range result.Applied {
		applied[op.Kind]++
	}
	for _, f := range result.Failed {
		failed[f.Op.Kind]++
	}
	for kind := range applied {
		e.metrics.RecordReconciliation(string(kind), applied[kind], 0)
	}
	for kind := range failed {
		e.metrics.RecordReconciliation(string(kind), 0, failed[kind])
	}
}
