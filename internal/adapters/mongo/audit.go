package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robertarktes/event-registration/internal/domain"
	"github.com/robertarktes/event-registration/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_logs"),
		logger: logger,
	}
}

type AuditLog struct {
	ID        uuid.UUID `bson:"_id"`
	Action    string    `bson:"action"`
	SessionID string    `bson:"session_id"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

func (a *AuditLogger) LogEvent(ctx context.Context, action, sessionID string, data map[string]interface{}) error {
	log := AuditLog{
		ID:        uuid.New(),
		Action:    action,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
		Data:      bson.M(data),
	}
	if _, err := a.coll.InsertOne(ctx, log); err != nil {
		a.logger.WithError(err).WithField("action", action).Error("failed to insert audit log")
		return err
	}
	return nil
}

// LogTransition records a wizard transition and the position it led to.
func (a *AuditLogger) LogTransition(ctx context.Context, sessionID, transition, view string, step int) error {
	return a.LogEvent(ctx, "wizard."+transition, sessionID, map[string]interface{}{
		"view": view,
		"step": step,
	})
}

func (a *AuditLogger) LogConfirmation(ctx context.Context, sessionID string, c domain.Confirmation) error {
	addons := make([]string, 0, len(c.AddOns))
	for _, addon := range c.AddOns {
		addons = append(addons, addon.ID)
	}
	return a.LogEvent(ctx, "registration.confirmed", sessionID, map[string]interface{}{
		"order_id":  c.OrderID,
		"event_id":  c.Event.ID,
		"ticket_id": c.Ticket.ID,
		"addons":    addons,
		"total":     c.Total,
	})
}
