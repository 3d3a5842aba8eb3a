// Package relay drains the transactional outbox into Pub/Sub. Each batch is
// claimed and settled inside one database transaction, so a crash mid-batch
// only re-sends events, never loses them.
package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/boost-backend/pkg/db/models"
	"github.com/angelmondragon/boost-backend/pkg/logger"
	"github.com/angelmondragon/boost-backend/pkg/metrics"
	"github.com/angelmondragon/boost-backend/pkg/outbox/registry"
	"github.com/angelmondragon/boost-backend/pkg/pubsub"
)

const (
	defaultBatchSize   = 50
	defaultPoll        = 500 * time.Millisecond
	defaultMaxBackoff  = 10 * time.Second
	defaultMaxAttempts = 10
	sendTimeout        = 15 * time.Second
)

// Sink delivers one message and blocks until it is acknowledged.
type Sink interface {
	Send(ctx context.Context, topic string, msg *gcppubsub.Message) error
}

type Store interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkDeadTx(tx *gorm.DB, id uuid.UUID, err error) error
}

type Resolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type Transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type Params struct {
	Logger      *logger.Logger
	Tx          Transactor
	Store       Store
	Resolver    Resolver
	Sink        Sink
	Metrics     *metrics.OutboxMetrics
	BatchSize   int
	MaxAttempts int
	Poll        time.Duration
	MaxBackoff  time.Duration
	Now         func() time.Time
}

type Relay struct {
	logg        *logger.Logger
	tx          Transactor
	store       Store
	resolver    Resolver
	sink        Sink
	metrics     *metrics.OutboxMetrics
	batchSize   int
	maxAttempts int
	poll        time.Duration
	maxBackoff  time.Duration
	now         func() time.Time
}

func New(p Params) (*Relay, error) {
	switch {
	case p.Logger == nil:
		return nil, errors.New("logger is required")
	case p.Tx == nil:
		return nil, errors.New("transactor is required")
	case p.Store == nil:
		return nil, errors.New("outbox store is required")
	case p.Resolver == nil:
		return nil, errors.New("event resolver is required")
	case p.Sink == nil:
		return nil, errors.New("sink is required")
	}
	r := &Relay{
		logg:        p.Logger,
		tx:          p.Tx,
		store:       p.Store,
		resolver:    p.Resolver,
		sink:        p.Sink,
		metrics:     p.Metrics,
		batchSize:   orDefault(p.BatchSize, defaultBatchSize),
		maxAttempts: orDefault(p.MaxAttempts, defaultMaxAttempts),
		poll:        orDefault(p.Poll, defaultPoll),
		maxBackoff:  orDefault(p.MaxBackoff, defaultMaxBackoff),
		now:         p.Now,
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r, nil
}

// Run drains until ctx is canceled. A full batch is followed immediately by
// the next one; an empty batch waits one poll interval; a failed batch backs
// off exponentially.
func (r *Relay) Run(ctx context.Context) error {
	bo := newBackoff(r.poll, r.maxBackoff)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.Drain(ctx)
		var wait time.Duration
		switch {
		case err != nil:
			r.logg.Error(ctx, "relay.batch_failed", err)
			wait = bo.next()
		case n == 0:
			bo.reset()
			wait = bo.jitter(r.poll)
		default:
			bo.reset()
			continue
		}

		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Drain claims one batch and settles every row in it. It returns the number
// of rows claimed.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	var claimed int
	err := r.tx.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := r.store.FetchUnpublishedForPublish(tx, r.batchSize, r.maxAttempts)
		if err != nil {
			return fmt.Errorf("fetch batch: %w", err)
		}
		claimed = len(events)
		r.metrics.SetBatchSize(claimed)

		for _, ev := range events {
			if err := r.settle(ctx, tx, ev, r.deliver(ctx, ev)); err != nil {
				return err
			}
		}
		return nil
	})
	return claimed, err
}

type verdict int

const (
	verdictPublished verdict = iota
	verdictRetry
	verdictDead
)

type delivery struct {
	verdict verdict
	topic   string
	reason  string
	err     error
}

// deliver resolves and sends one row and decides what happens to it.
func (r *Relay) deliver(ctx context.Context, ev models.OutboxEvent) delivery {
	resolved, err := r.resolver.Resolve(ev)
	if err != nil {
		return delivery{verdict: verdictDead, reason: "unresolvable", err: err}
	}
	topic := resolved.Descriptor.Topic

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	err = r.sink.Send(sendCtx, topic, message(ev, resolved))

	var nonRetry registry.NonRetryableError
	switch {
	case err == nil:
		return delivery{verdict: verdictPublished, topic: topic}
	case errors.As(err, &nonRetry), errors.Is(err, pubsub.ErrTopicNotConfigured):
		return delivery{verdict: verdictDead, topic: topic, reason: "non_retryable", err: err}
	case ev.AttemptCount+1 >= r.maxAttempts:
		return delivery{verdict: verdictDead, topic: topic, reason: "max_attempts", err: fmt.Errorf("max publish attempts reached: %w", err)}
	default:
		return delivery{verdict: verdictRetry, topic: topic, err: err}
	}
}

func (r *Relay) settle(ctx context.Context, tx *gorm.DB, ev models.OutboxEvent, d delivery) error {
	ctx = r.logg.WithFields(ctx, map[string]any{
		"outbox_id":     ev.ID.String(),
		"event_type":    string(ev.EventType),
		"aggregate_id":  ev.AggregateID.String(),
		"attempt_count": ev.AttemptCount,
		"topic":         d.topic,
	})
	eventType := string(ev.EventType)

	switch d.verdict {
	case verdictPublished:
		if err := r.store.MarkPublishedTx(tx, ev.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", ev.ID, err)
		}
		r.metrics.IncPublished(eventType)
		r.metrics.ObserveLag(eventType, r.now().Sub(ev.CreatedAt))
		r.logg.Debug(ctx, "relay.published")
	case verdictRetry:
		r.metrics.IncFailed(eventType)
		r.logg.Warn(r.logg.WithField(ctx, "error", d.err.Error()), "relay.retry_scheduled")
		if err := r.store.MarkFailedTx(tx, ev.ID, d.err); err != nil {
			return fmt.Errorf("mark failed %s: %w", ev.ID, err)
		}
	case verdictDead:
		// The row keeps its last_error until replayed.
		r.metrics.IncFailed(eventType)
		r.logg.Warn(r.logg.WithFields(ctx, map[string]any{
			"error":           d.err.Error(),
			"terminal_reason": d.reason,
		}), "relay.dead_lettered")
		if err := r.store.MarkDeadTx(tx, ev.ID, d.err); err != nil {
			return fmt.Errorf("mark dead %s: %w", ev.ID, err)
		}
	}
	return nil
}

// message forwards the stored envelope verbatim. Events of one aggregate
// share an ordering key so subscribers see them in insert order.
func message(ev models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	return &gcppubsub.Message{
		Data:        ev.Payload,
		OrderingKey: ev.AggregateID.String(),
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(ev.EventType),
			"aggregate_type": string(ev.AggregateType),
			"aggregate_id":   ev.AggregateID.String(),
			"created_at":     ev.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func orDefault[T int | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}
