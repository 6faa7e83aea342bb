package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gymslot/internal/logger"
	"gymslot/internal/metrics"
	"gymslot/internal/reservation"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultQueue      = "gymslot:events"
	defaultPopTimeout = 2 * time.Second
	defaultMaxTries   = 3
)

// Handler consumes one reservation event. A returned error schedules a retry.
type Handler func(ctx context.Context, e reservation.Event) error

type Options struct {
	Queue      string
	PopTimeout time.Duration
	RetryDelay time.Duration
	MaxTries   int
}

func (o Options) withDefaults() Options {
	if o.Queue == "" {
		o.Queue = DefaultQueue
	}
	if o.PopTimeout <= 0 {
		o.PopTimeout = defaultPopTimeout
	}
	if o.MaxTries <= 0 {
		o.MaxTries = defaultMaxTries
	}
	return o
}

type envelope struct {
	Event  reservation.Event `json:"event"`
	Tries  int               `json:"tries"`
	Queued time.Time         `json:"queued"`
}

type failedEnvelope struct {
	Payload string    `json:"payload"`
	Error   string    `json:"error"`
	Time    time.Time `json:"time"`
}

// Dispatcher is a Redis list backed outbox for reservation events.
// Publish enqueues; Start drains the queue and runs the handlers.
type Dispatcher struct {
	redis    redis.Cmdable
	opts     Options
	handlers []Handler
}

func NewDispatcher(rdb redis.Cmdable, opts Options, handlers ...Handler) *Dispatcher {
	return &Dispatcher{
		redis:    rdb,
		opts:     opts.withDefaults(),
		handlers: handlers,
	}
}

func (d *Dispatcher) failedQueue() string {
	return d.opts.Queue + ":failed"
}

func (d *Dispatcher) Publish(ctx context.Context, evts ...reservation.Event) error {
	if len(evts) == 0 {
		return nil
	}

	values := make([]any, 0, len(evts))
	for _, e := range evts {
		data, err := json.Marshal(envelope{Event: e, Queued: time.Now().UTC()})
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", e.ID, err)
		}
		values = append(values, string(data))
	}

	length, err := d.redis.LPush(ctx, d.opts.Queue, values...).Result()
	if err != nil {
		return fmt.Errorf("queue events: %w", err)
	}
	metrics.EventQueueLength.Set(float64(length))

	logger.Debug("events queued", "queue", d.opts.Queue, "count", len(evts))
	return nil
}

// Start blocks until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	logger.Info("event dispatcher started", "queue", d.opts.Queue)

	for {
		select {
		case <-ctx.Done():
			logger.Info("event dispatcher stopped")
			return
		default:
			d.processNext(ctx)
		}
	}
}

func (d *Dispatcher) processNext(ctx context.Context) {
	result, err := d.redis.BRPop(ctx, d.opts.PopTimeout, d.opts.Queue).Result()
	if err != nil {
		switch {
		case ctx.Err() != nil:
		case errors.Is(err, redis.Nil):
			// Idle: resync the gauge that Publish and requeue move incrementally.
			if _, err := d.QueueLength(ctx); err != nil {
				logger.Warn("failed to read event queue length", "queue", d.opts.Queue, "error", err)
			}
		default:
			logger.Error("failed to pop event", "queue", d.opts.Queue, "error", err)
			sleep(ctx, d.opts.PopTimeout)
		}
		return
	}
	metrics.EventQueueLength.Dec()

	payload := result[1]
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		logger.Error("bad event payload", "error", err)
		d.saveFailed(ctx, payload, err)
		return
	}

	env.Tries++
	if err := d.dispatch(ctx, env.Event); err != nil {
		eventType := string(env.Event.Type)
		logger.Error("event handler failed",
			"event_id", env.Event.ID,
			"type", eventType,
			"attempt", env.Tries,
			"error", err,
		)

		if env.Tries < d.opts.MaxTries {
			metrics.RecordEvent(eventType, "retried")
			d.requeue(ctx, env)
			return
		}

		metrics.RecordEvent(eventType, "failed")
		data, _ := json.Marshal(env)
		d.saveFailed(ctx, string(data), err)
		return
	}

	metrics.RecordEvent(string(env.Event.Type), "delivered")
}

func (d *Dispatcher) dispatch(ctx context.Context, e reservation.Event) error {
	var errs []error
	for _, h := range d.handlers {
		if err := h(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) requeue(ctx context.Context, env envelope) {
	if !sleep(ctx, d.opts.RetryDelay) {
		// Shutdown during the backoff must not lose the event.
		ctx = context.WithoutCancel(ctx)
	}

	data, _ := json.Marshal(env)
	if err := d.redis.LPush(ctx, d.opts.Queue, string(data)).Err(); err != nil {
		logger.Error("failed to requeue event", "event_id", env.Event.ID, "error", err)
		return
	}
	metrics.EventQueueLength.Inc()
	logger.Info("event requeued", "event_id", env.Event.ID, "attempt", env.Tries+1)
}

func (d *Dispatcher) saveFailed(ctx context.Context, payload string, cause error) {
	data, _ := json.Marshal(failedEnvelope{
		Payload: payload,
		Error:   cause.Error(),
		Time:    time.Now().UTC(),
	})
	if err := d.redis.LPush(context.WithoutCancel(ctx), d.failedQueue(), string(data)).Err(); err != nil {
		logger.Error("failed to store dead event", "queue", d.failedQueue(), "error", err)
		return
	}
	logger.Error("event moved to failed queue", "queue", d.failedQueue())
}

// QueueLength reads the pending event count and publishes it as the queue
// length gauge.
func (d *Dispatcher) QueueLength(ctx context.Context) (int64, error) {
	length, err := d.redis.LLen(ctx, d.opts.Queue).Result()
	if err != nil {
		return 0, fmt.Errorf("queue length: %w", err)
	}
	metrics.EventQueueLength.Set(float64(length))
	return length, nil
}

// sleep waits for d or until ctx is done. It reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
