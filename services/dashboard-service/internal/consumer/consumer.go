// Package consumer drops cached dashboard snapshots when booking, queue or
// billing events change the rows behind them.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/salondesk/salondesk/libs/kafkax"
	"github.com/salondesk/salondesk/services/dashboard-service/internal/dashboard"
)

var DefaultTopics = []string{
	"booking.appointment.booked.v1",
	"booking.appointment.cancelled.v1",
	"queue.walkin.updated.v1",
	"billing.invoice.finalized.v1",
}

var errMissingScope = errors.New("missing tenant_id or branch_id")

type Invalidator interface {
	Invalidate(ctx context.Context, keys ...string) error
}

type Config struct {
	Brokers string
	GroupID string
	Topics  []string
}

type Consumer struct {
	reader      *kafka.Reader
	logger      *slog.Logger
	invalidator Invalidator
	loc         *time.Location
}

func New(logger *slog.Logger, invalidator Invalidator, loc *time.Location, cfg Config) *Consumer {
	topics := cfg.Topics
	if len(topics) == 0 {
		topics = DefaultTopics
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     kafkax.SplitBrokers(cfg.Brokers),
		GroupID:     cfg.GroupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return &Consumer{
		reader:      reader,
		logger:      logger,
		invalidator: invalidator,
		loc:         loc,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("kafka read error", "err", err)
			time.Sleep(1 * time.Second)
			continue
		}

		ctxMsg := kafkax.ExtractTraceContext(ctx, msg)
		ctxSpan, span := otel.Tracer("kafka").Start(ctxMsg, "kafka.consume",
			trace.WithAttributes(
				attribute.String("messaging.system", "kafka"),
				attribute.String("messaging.destination", msg.Topic),
			),
		)
		if err := c.handle(ctxSpan, msg); err != nil {
			span.RecordError(err)
		}
		span.End()
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	meta := kafkax.ExtractEventMeta(msg)
	var ev Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		c.logger.Error("invalid event payload", "err", err, "topic", msg.Topic, "event_id", meta.EventID)
		return err
	}
	keys, err := KeysFor(ev, c.loc)
	if err != nil {
		c.logger.Error("event cannot be mapped to a dashboard", "err", err, "topic", msg.Topic, "event_id", meta.EventID)
		return err
	}
	if err := c.invalidator.Invalidate(ctx, keys...); err != nil {
		c.logger.Warn("dashboard cache invalidation failed", "err", err, "event_id", meta.EventID)
		return err
	}
	c.logger.Debug("dashboard cache invalidated", "tenant_id", ev.TenantID, "branch_id", ev.BranchID, "keys", len(keys))
	return nil
}

// Event is the subset of booking, queue and billing payloads the dashboard
// needs. Either Date or StartTime identifies the affected day.
type Event struct {
	TenantID  string `json:"tenant_id"`
	BranchID  string `json:"branch_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

// KeysFor lists the snapshots an event can make stale: the branch command
// center for the event's day and the owner views for the branch and the tenant.
func KeysFor(ev Event, loc *time.Location) ([]string, error) {
	if ev.TenantID == "" || ev.BranchID == "" {
		return nil, errMissingScope
	}
	var day time.Time
	switch {
	case ev.Date != "":
		d, err := dashboard.ParseDay(ev.Date, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid date: %w", err)
		}
		day = d
	case ev.StartTime != "":
		t, err := time.Parse(time.RFC3339, ev.StartTime)
		if err != nil {
			return nil, fmt.Errorf("invalid start_time: %w", err)
		}
		t = t.In(loc)
		day = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	default:
		return nil, errors.New("missing date or start_time")
	}
	branch := dashboard.Scope{TenantID: ev.TenantID, BranchID: ev.BranchID}
	tenant := dashboard.Scope{TenantID: ev.TenantID}
	return []string{
		dashboard.CommandCenterKey(branch, day),
		dashboard.OwnerKey(branch, day),
		dashboard.OwnerKey(tenant, day),
	}, nil
}
