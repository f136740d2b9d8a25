package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rahulkarmakar28/code-sandbox/models"
)

// SubscriberService is the relay's single long-lived result subscription.
// Every message on the result channel is decoded and handed to the emitter;
// the emitter's room filtering decides who actually sees it.
type SubscriberService struct {
	redis   *RedisService
	emitter RoomEmitter
	logger  *zap.Logger

	pubsub *redis.PubSub
	wg     sync.WaitGroup
}

func NewSubscriberService(redisService *RedisService, emitter RoomEmitter, logger *zap.Logger) *SubscriberService {
	return &SubscriberService{
		redis:   redisService,
		emitter: emitter,
		logger:  logger,
	}
}

// Start subscribes to the result channel and launches the receive loop.
// It returns once the subscription is confirmed by the broker.
func (s *SubscriberService) Start(ctx context.Context) error {
	pubsub := s.redis.SubscribeResults(ctx)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	s.pubsub = pubsub

	ch := pubsub.Channel()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for msg := range ch {
			s.handleMessage(msg.Payload)
		}
	}()
	return nil
}

// handleMessage decodes one broadcast payload. Malformed payloads are logged
// and dropped; the loop keeps listening.
func (s *SubscriberService) handleMessage(payload string) {
	var env models.ResultEnvelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		s.logger.Warn("dropping malformed result message", zap.Error(err))
		return
	}
	s.emitter.Broadcast(env.RoomID, env.Output)
}

// Stop closes the subscription and waits for the receive loop to drain.
func (s *SubscriberService) Stop() {
	if s.pubsub != nil {
		_ = s.pubsub.Close()
	}
	s.wg.Wait()
}
