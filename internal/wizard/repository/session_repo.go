package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vibeocm/vibeocm-backend/internal/logging"
	"github.com/vibeocm/vibeocm-backend/internal/wizard/domain"
)

const (
	sessionKeyPrefix    = "ocm:session:" // ocm:session:{session_id}
	eventChannelPrefix  = "ocm:events:"  // ocm:events:{session_id}
	defaultSessionTTL   = 24 * time.Hour
	progressChannelSize = 16
)

// SessionRepository keeps wizard sessions in Redis and fans out generation
// progress over Redis Pub/Sub.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionRepository{client: client, ttl: ttl}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	return r.save(ctx, s, "create")
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

// Update overwrites an existing session and refreshes its TTL.
func (r *SessionRepository) Update(ctx context.Context, s *domain.Session) error {
	n, err := r.client.Exists(ctx, sessionKey(s.ID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	s.UpdatedAt = time.Now().UTC()
	return r.save(ctx, s, "update")
}

func (r *SessionRepository) save(ctx context.Context, s *domain.Session, op string) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, sessionKey(s.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to %s session: %w", op, err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	n, err := r.client.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// PublishProgress broadcasts ev to subscribers of its session.
func (r *SessionRepository) PublishProgress(ctx context.Context, ev domain.ProgressEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal progress event: %w", err)
	}
	if err := r.client.Publish(ctx, eventChannel(ev.SessionID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish progress: %w", err)
	}
	return nil
}

// Subscribe returns progress events for sessionID until ctx ends or the
// returned close function is called.
func (r *SessionRepository) Subscribe(ctx context.Context, sessionID string) (<-chan domain.ProgressEvent, func() error, error) {
	pubsub := r.client.Subscribe(ctx, eventChannel(sessionID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to progress: %w", err)
	}

	out := make(chan domain.ProgressEvent, progressChannelSize)
	msgs := pubsub.Channel()
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev domain.ProgressEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					logging.FromContext(ctx).LogWarnf("session_repo.subscribe", "dropping malformed progress event: %v", err)
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, pubsub.Close, nil
}

func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func sessionKey(id string) string {
	return fmt.Sprintf("%s%s", sessionKeyPrefix, id)
}

func eventChannel(id string) string {
	return fmt.Sprintf("%s%s", eventChannelPrefix, id)
}
