package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"propertymatch/internal/conversation"
	"propertymatch/internal/model"
	"propertymatch/internal/repository"
)

// ChatService is the conversation transport core: it loads a session,
// applies the user's action and answers with the next prompt or results.
type ChatService struct {
	sessions repository.SessionStore
	engine   *MatchEngine
	log      zerolog.Logger
	now      func() time.Time
}

// NewChatService creates a chat service
func NewChatService(sessions repository.SessionStore, engine *MatchEngine, log zerolog.Logger) *ChatService {
	return &ChatService{sessions: sessions, engine: engine, log: log, now: time.Now}
}

// Start opens a new session at the greeting step
func (s *ChatService) Start(ctx context.Context) (*model.ChatReply, error) {
	state := conversation.NewState(uuid.NewString(), s.now())
	if err := s.sessions.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	s.log.Info().Str("session_id", state.SessionID).Msg("session started")
	return s.reply(state, ""), nil
}

// Get returns the current prompt of a session without changing it
func (s *ChatService) Get(ctx context.Context, sessionID string) (*model.ChatReply, error) {
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if state.Step == conversation.StepSearch {
		return s.search(ctx, state), nil
	}
	return s.reply(state, ""), nil
}

// Handle applies one action. Invalid actions leave the session untouched and
// return an error wrapping conversation.ErrInvalidAction.
func (s *ChatService) Handle(ctx context.Context, sessionID string, action model.ChatAction) (*model.ChatReply, error) {
	state, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	res, err := conversation.Apply(state, action)
	if err != nil {
		return nil, err
	}

	next := res.State
	next.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.log.Debug().
		Str("session_id", sessionID).
		Str("from", state.Step).
		Str("to", next.Step).
		Str("action", action.Kind).
		Msg("transition")

	if next.Step == conversation.StepSearch {
		return s.search(ctx, next), nil
	}
	return s.reply(next, res.Notice), nil
}

// End deletes a session
func (s *ChatService) End(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

func (s *ChatService) reply(state model.ConversationState, notice string) *model.ChatReply {
	prompt := conversation.PromptFor(state.Step, state.Preferences)
	message := prompt.Message
	if notice != "" {
		message = notice + "\n\n" + message
	}
	return &model.ChatReply{
		SessionID:   state.SessionID,
		Step:        state.Step,
		Message:     message,
		Buttons:     prompt.Buttons,
		Preferences: state.Preferences,
	}
}

// search never fails towards the user: errors degrade to an empty result
// with relaxation choices.
func (s *ChatService) search(ctx context.Context, state model.ConversationState) *model.ChatReply {
	results, mode, err := s.engine.Find(ctx, state.Preferences, ModeSemantic)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", state.SessionID).Str("mode", mode).Msg("search failed")
		results = nil
	}

	prompt := conversation.ResultsMessage(len(results))
	return &model.ChatReply{
		SessionID:   state.SessionID,
		Step:        state.Step,
		Message:     prompt.Message,
		Buttons:     prompt.Buttons,
		Preferences: state.Preferences,
		Results:     results,
		NoMatch:     len(results) == 0,
	}
}
