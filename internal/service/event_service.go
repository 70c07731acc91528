package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/orbit-admin-api/internal/dto"
	"github.com/noah-isme/orbit-admin-api/internal/observability"
)

const eventBufferSize = 32

// EventPublisher broadcasts admin events.
type EventPublisher interface {
	Publish(ctx context.Context, event dto.AdminEvent) error
}

// EventService fans admin events out to local websocket subscribers and to the
// other API nodes over Redis pub/sub and NATS.
type EventService interface {
	EventPublisher
	Subscribe() (<-chan dto.AdminEvent, func())
	Start(ctx context.Context)
}

// EventConfig names the cross-node transports. Empty values disable a transport.
type EventConfig struct {
	RedisChannel string
	NATSSubject  string
	QueueGroup   string
}

type eventService struct {
	redis   *redis.Client
	nats    *nats.Conn
	cfg     EventConfig
	logger  zerolog.Logger
	tracer  trace.Tracer
	broker  *eventBroker
	nodeID  string
	started sync.Once
}

type eventEnvelope struct {
	Source string         `json:"source"`
	Event  dto.AdminEvent `json:"event"`
	SentAt time.Time      `json:"sent_at"`
}

type eventBroker struct {
	mu          sync.RWMutex
	subscribers map[chan dto.AdminEvent]struct{}
}

// NewEventService constructs the admin event service. Either transport client may be nil.
func NewEventService(redisClient *redis.Client, natsConn *nats.Conn, cfg EventConfig, logger zerolog.Logger) EventService {
	if cfg.QueueGroup == "" {
		cfg.QueueGroup = "orbit-admin-events"
	}
	return &eventService{
		redis:  redisClient,
		nats:   natsConn,
		cfg:    cfg,
		logger: logger.With().Str("component", "event_service").Logger(),
		tracer: otel.Tracer("github.com/noah-isme/orbit-admin-api/internal/service/events"),
		broker: &eventBroker{subscribers: make(map[chan dto.AdminEvent]struct{})},
		nodeID: uuid.NewString(),
	}
}

func (s *eventService) Start(ctx context.Context) {
	s.started.Do(func() {
		if s.redis != nil && s.cfg.RedisChannel != "" {
			go s.consumeRedis(ctx)
		}
		if s.nats != nil && s.cfg.NATSSubject != "" {
			s.consumeNATS(ctx)
		}
	})
}

func (s *eventService) Publish(ctx context.Context, event dto.AdminEvent) error {
	if strings.TrimSpace(event.Type) == "" {
		return errors.New("event type is required")
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	spanCtx, span := s.tracer.Start(ctx, "events.publish", trace.WithAttributes(
		attribute.String("event.type", event.Type),
		attribute.String("event.entity_id", event.EntityID),
	))
	defer span.End()

	s.broker.broadcast(event)
	observability.EventsPublished().WithLabelValues(event.Type, "local").Inc()

	payload, err := json.Marshal(eventEnvelope{Source: s.nodeID, Event: event, SentAt: time.Now().UTC()})
	if err != nil {
		span.RecordError(err)
		return err
	}

	var errs []error
	if s.redis != nil && s.cfg.RedisChannel != "" {
		if err := s.redis.Publish(spanCtx, s.cfg.RedisChannel, payload).Err(); err != nil {
			errs = append(errs, err)
		} else {
			observability.EventsPublished().WithLabelValues(event.Type, "redis").Inc()
		}
	}
	if s.nats != nil && s.cfg.NATSSubject != "" {
		if err := s.nats.Publish(s.cfg.NATSSubject, payload); err != nil {
			errs = append(errs, err)
		} else {
			observability.EventsPublished().WithLabelValues(event.Type, "nats").Inc()
		}
	}

	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *eventService) Subscribe() (<-chan dto.AdminEvent, func()) {
	channel := make(chan dto.AdminEvent, eventBufferSize)
	s.broker.subscribe(channel)

	var once sync.Once
	cleanup := func() {
		once.Do(func() { s.broker.unsubscribe(channel) })
	}
	return channel, cleanup
}

func (s *eventService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.cfg.RedisChannel)
	defer func() { _ = pubsub.Close() }()

	// A blocked read only notices cancellation once the connection is closed.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = pubsub.Close()
		case <-stop:
		}
	}()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, redis.ErrClosed) || ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Msg("admin event redis subscription closed")
			return
		}
		s.handleEnvelope([]byte(msg.Payload))
	}
}

func (s *eventService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.cfg.NATSSubject, s.cfg.QueueGroup, func(msg *nats.Msg) {
		s.handleEnvelope(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats admin events subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain admin events nats subscription")
		}
	}()
}

func (s *eventService) handleEnvelope(payload []byte) {
	var envelope eventEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid admin event payload")
		return
	}
	if envelope.Source == s.nodeID {
		return
	}
	if envelope.Event.Type == "" {
		return
	}
	s.broker.broadcast(envelope.Event)
}

func (b *eventBroker) subscribe(ch chan dto.AdminEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[ch] = struct{}{}
}

func (b *eventBroker) unsubscribe(ch chan dto.AdminEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
}

// broadcast never blocks; slow subscribers miss events.
func (b *eventBroker) broadcast(event dto.AdminEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
