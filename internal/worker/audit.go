package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/team-hierarchy-service/internal/events"
	"github.com/spec-kit/team-hierarchy-service/internal/persistence"
)

const auditListPrefix = "audit:teams:"

// AuditWorker records team lifecycle and reconciliation events to a per-tenant
// redis list so partial reconciliation failures leave a durable trail.
type AuditWorker struct {
	cache  *persistence.Redis
	logger *zap.Logger
}

// NewAuditWorker constructs the worker.
func NewAuditWorker(cache *persistence.Redis, logger *zap.Logger) *AuditWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditWorker{cache: cache, logger: logger}
}

// StartAuditWorker registers the audit handlers on the dispatcher.
func StartAuditWorker(dispatcher events.Dispatcher, worker *AuditWorker) {
	if dispatcher == nil || worker == nil {
		return
	}
	dispatcher.Subscribe(events.EventTeamCreated, worker.handleEvent)
	dispatcher.Subscribe(events.EventTeamUpdated, worker.handleEvent)
	dispatcher.Subscribe(events.EventTeamDeleted, worker.handleEvent)
	dispatcher.Subscribe(events.EventHierarchyReconciled, worker.handleReconciled)
}

type auditEntry struct {
	EventID   string      `json:"event_id"`
	Type      string      `json:"type"`
	TeamID    string      `json:"team_id"`
	TenantID  string      `json:"tenant_id"`
	UserID    string      `json:"user_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload,omitempty"`
}

func (w *AuditWorker) handleEvent(ctx context.Context, event events.Event) error {
	w.logger.Info(string(event.Type),
		zap.String("team_id", event.TeamID),
		zap.String("tenant_id", event.Actor.TenantID),
		zap.Any("payload", event.Payload))
	return w.append(ctx, event)
}

func (w *AuditWorker) handleReconciled(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.HierarchyReconciledPayload)
	if !ok {
		return w.append(ctx, event)
	}
	log := w.logger.Info
	if payload.Failed > 0 {
		log = w.logger.Warn
	}
	log("HierarchyReconciled",
		zap.String("team_id", event.TeamID),
		zap.String("tenant_id", event.Actor.TenantID),
		zap.Int("applied", payload.Applied),
		zap.Int("failed", payload.Failed),
		zap.Strings("warnings", payload.Warnings))
	return w.append(ctx, event)
}

func (w *AuditWorker) append(ctx context.Context, event events.Event) error {
	entry := auditEntry{
		EventID:   event.ID,
		Type:      string(event.Type),
		TeamID:    event.TeamID,
		TenantID:  event.Actor.TenantID,
		UserID:    event.Actor.UserID,
		Timestamp: event.Timestamp,
		Payload:   event.Payload,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s%s", auditListPrefix, event.Actor.TenantID)
	if err := w.cache.PushList(ctx, key, string(raw)); err != nil {
		if errors.Is(err, persistence.ErrNotConfigured) {
			return nil
		}
		w.logger.Warn("audit append failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}
