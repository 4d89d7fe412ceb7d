package presenter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/colla00/Gemini-3-Hackathon-sub004/internal/platform/websocket"
)

// Broadcaster is the slice of the websocket hub the service needs.
type Broadcaster interface {
	Broadcast(event websocket.Event)
	SendTo(client *websocket.Client, event websocket.Event)
}

type Service struct {
	store      StateStore
	hub        Broadcaster
	staleAfter time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

func NewService(store StateStore, hub Broadcaster, staleAfter time.Duration, logger zerolog.Logger) *Service {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Service{
		store:      store,
		hub:        hub,
		staleAfter: staleAfter,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Publish stamps, stores and broadcasts a new state. Concurrent presenters on
// the same session overwrite each other; the last write wins.
func (s *Service) Publish(ctx context.Context, sessionID, publishedBy string, u Update) (*State, error) {
	if !ValidSessionID(sessionID) {
		return nil, fmt.Errorf("invalid session id")
	}
	if err := u.validate(); err != nil {
		return nil, err
	}
	state := State{
		SessionID:      sessionID,
		CurrentSlide:   u.CurrentSlide,
		IsLive:         true,
		ElapsedMinutes: u.ElapsedMinutes,
		Timestamp:      s.now(),
		PublishedBy:    publishedBy,
	}
	if u.IsLive != nil {
		state.IsLive = *u.IsLive
	}
	if err := s.store.Save(ctx, state); err != nil {
		return nil, err
	}
	s.broadcast(EventState, state)
	return &state, nil
}

// End marks the session as no longer live and tells audiences it is over.
func (s *Service) End(ctx context.Context, sessionID string) (*State, error) {
	if !ValidSessionID(sessionID) {
		return nil, fmt.Errorf("invalid session id")
	}
	state, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	state.IsLive = false
	state.Timestamp = s.now()
	if err := s.store.Save(ctx, state); err != nil {
		return nil, err
	}
	s.broadcast(EventEnded, state)
	return &state, nil
}

// Current returns the latest state with its staleness as an audience would
// judge it right now.
func (s *Service) Current(ctx context.Context, sessionID string) (*Snapshot, error) {
	if !ValidSessionID(sessionID) {
		return nil, fmt.Errorf("invalid session id")
	}
	state, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	aud := NewAudience(s.staleAfter)
	aud.Observe(state, state.Timestamp)
	return &Snapshot{
		State:      state,
		Stale:      aud.Stale(now),
		AgeSeconds: aud.Age(now).Seconds(),
	}, nil
}

// Replay sends the stored state to a client that just subscribed to a
// presenter topic. It is registered as a hub subscribe hook.
func (s *Service) Replay(client *websocket.Client, topic string) {
	sessionID, ok := SessionFromTopic(topic)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	state, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("presenter replay failed")
		}
		return
	}
	eventType := EventState
	if !state.IsLive {
		eventType = EventEnded
	}
	if ev, ok := s.event(eventType, state); ok {
		s.hub.SendTo(client, ev)
	}
}

// SweepIdle drops sessions that have not been updated within StateTTL.
func (s *Service) SweepIdle(ctx context.Context) error {
	n, err := s.store.Sweep(ctx, s.now().Add(-StateTTL))
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info().Int("sessions", n).Msg("swept idle presenter sessions")
	}
	return nil
}

func (s *Service) broadcast(eventType string, state State) {
	if ev, ok := s.event(eventType, state); ok {
		s.hub.Broadcast(ev)
	}
}

func (s *Service) event(eventType string, state State) (websocket.Event, bool) {
	data, err := json.Marshal(state)
	if err != nil {
		s.logger.Error().Err(err).Msg("encode presenter event")
		return websocket.Event{}, false
	}
	return websocket.Event{
		Type:      eventType,
		Topic:     Topic(state.SessionID),
		Timestamp: state.Timestamp,
		Data:      data,
	}, true
}
