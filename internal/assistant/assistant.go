package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yourorg/wandermate/internal/generator"
	"github.com/yourorg/wandermate/internal/redact"
	"github.com/yourorg/wandermate/pkg/types"
)

// MaxHistory is how many turns a session keeps.
const MaxHistory = 10

var (
	ErrEmptyMessage = errors.New("message is required")
	ErrBackend      = errors.New("assistant backend failed")
)

type Sessions interface {
	GetSession(ctx context.Context, id string) (*types.SessionState, error)
	SaveChatHistory(ctx context.Context, id string, history []types.ChatTurn) error
}

// Assistant answers travel questions in the context of a session's trip.
type Assistant struct {
	Model    generator.TextModel
	Sessions Sessions
	Logger   *slog.Logger
}

// Reply sends message to the model together with the recent history and
// records the exchange. On failure the history is left untouched.
func (a *Assistant) Reply(ctx context.Context, sessionID, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	log := a.logger()

	state, err := a.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}

	res := a.call(ctx, generator.BuildChatPrompt(state.Destination, state.ChatHistory, message))
	if !res.OK() {
		log.Error("chat generation failed", "session", sessionID, "error", redact.Error(res.Err))
		return "", fmt.Errorf("%w: %s", ErrBackend, redact.Error(res.Err))
	}

	history := AppendTurn(state.ChatHistory, types.ChatTurn{User: message, Bot: res.Text})
	if err := a.Sessions.SaveChatHistory(ctx, sessionID, history); err != nil {
		log.Warn("save chat history failed", "session", sessionID, "error", err)
	}
	log.Debug("chat reply", "session", sessionID, "turns", len(history))
	return res.Text, nil
}

// Clear forgets the session's conversation.
func (a *Assistant) Clear(ctx context.Context, sessionID string) error {
	return a.Sessions.SaveChatHistory(ctx, sessionID, []types.ChatTurn{})
}

func (a *Assistant) call(ctx context.Context, prompt string) generator.Result {
	if a.Model == nil {
		return generator.Result{Err: errors.New("no text model configured")}
	}
	raw, err := a.Model.Generate(ctx, prompt)
	if err != nil {
		return generator.Result{Err: err}
	}
	return generator.Result{Text: strings.TrimSpace(raw)}
}

func (a *Assistant) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.Logger
}

// AppendTurn adds turn and keeps only the newest MaxHistory entries.
// The input slice is not modified.
func AppendTurn(history []types.ChatTurn, turn types.ChatTurn) []types.ChatTurn {
	out := make([]types.ChatTurn, 0, len(history)+1)
	out = append(out, history...)
	out = append(out, turn)
	if len(out) > MaxHistory {
		out = out[len(out)-MaxHistory:]
	}
	return out
}
