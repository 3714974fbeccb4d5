package assistant

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/yourorg/wandermate/internal/store"
	"github.com/yourorg/wandermate/pkg/types"
)

type fakeModel struct {
	calls   atomic.Int32
	err     error
	prompts []string
}

func (m *fakeModel) Generate(_ context.Context, prompt string) (string, error) {
	n := m.calls.Add(1)
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return fmt.Sprintf("  reply %d  ", n), nil
}

func newTestAssistant(t *testing.T, model *fakeModel) (*Assistant, *store.SQLiteStore, string) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "wandermate.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	sess, err := st.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return &Assistant{Model: model, Sessions: st}, st, sess.ID
}

func TestReplyEmptyMessageSkipsBackend(t *testing.T) {
	model := &fakeModel{}
	a, _, id := newTestAssistant(t, model)

	for _, msg := range []string{"", "   ", "\n\t"} {
		if _, err := a.Reply(context.Background(), id, msg); !errors.Is(err, ErrEmptyMessage) {
			t.Fatalf("Reply(%q) err = %v", msg, err)
		}
	}
	if model.calls.Load() != 0 {
		t.Fatalf("backend called %d times", model.calls.Load())
	}
}

func TestReplyKeepsLastTenTurns(t *testing.T) {
	model := &fakeModel{}
	a, st, id := newTestAssistant(t, model)
	ctx := context.Background()

	for i := 1; i <= 11; i++ {
		got, err := a.Reply(ctx, id, fmt.Sprintf("question %d", i))
		if err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
		if got != fmt.Sprintf("reply %d", i) {
			t.Fatalf("turn %d reply = %q", i, got)
		}
	}

	sess, err := st.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if len(sess.ChatHistory) != MaxHistory {
		t.Fatalf("history length = %d", len(sess.ChatHistory))
	}
	if sess.ChatHistory[0].User != "question 2" || sess.ChatHistory[9].User != "question 11" {
		t.Fatalf("history = %+v", sess.ChatHistory)
	}
}

func TestReplyPromptUsesDestinationAndWindow(t *testing.T) {
	model := &fakeModel{}
	a, st, id := newTestAssistant(t, model)
	ctx := context.Background()
	if err := st.SaveTrip(ctx, id, store.TripState{Destination: "Goa", NumDays: 3}); err != nil {
		t.Fatalf("save trip: %v", err)
	}

	for i := 1; i <= 8; i++ {
		if _, err := a.Reply(ctx, id, fmt.Sprintf("q%d", i)); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
	}
	last := model.prompts[len(model.prompts)-1]
	if !strings.Contains(last, "The user is planning a trip to Goa. ") {
		t.Fatalf("prompt missing destination: %q", last)
	}
	if strings.Contains(last, "User: q1\n") {
		t.Fatalf("prompt replays turns outside the window")
	}
	if !strings.Contains(last, "User: q2\nAssistant: reply 2\n\n") {
		t.Fatalf("prompt missing windowed turn: %q", last)
	}
	if !strings.HasSuffix(last, "User: q8\nAssistant:") {
		t.Fatalf("prompt suffix = %q", last)
	}
}

func TestReplyBackendFailureLeavesHistory(t *testing.T) {
	model := &fakeModel{err: errors.New(`Post "https://example.test/v1?key=abc": 503`)}
	a, st, id := newTestAssistant(t, model)
	ctx := context.Background()

	_, err := a.Reply(ctx, id, "hello")
	if !errors.Is(err, ErrBackend) {
		t.Fatalf("expected ErrBackend, got %v", err)
	}
	if strings.Contains(err.Error(), "abc") {
		t.Fatalf("error leaks secret: %v", err)
	}
	sess, err := st.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if len(sess.ChatHistory) != 0 {
		t.Fatalf("history changed on failure: %+v", sess.ChatHistory)
	}
}

func TestReplyUnknownSession(t *testing.T) {
	a, _, _ := newTestAssistant(t, &fakeModel{})
	if _, err := a.Reply(context.Background(), "missing", "hi"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClear(t *testing.T) {
	a, st, id := newTestAssistant(t, &fakeModel{})
	ctx := context.Background()
	if _, err := a.Reply(ctx, id, "hi"); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if err := a.Clear(ctx, id); err != nil {
		t.Fatalf("clear: %v", err)
	}
	sess, err := st.GetSession(ctx, id)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if len(sess.ChatHistory) != 0 {
		t.Fatalf("history not cleared: %+v", sess.ChatHistory)
	}
}

func TestAppendTurnDoesNotAlias(t *testing.T) {
	base := make([]types.ChatTurn, 0, 20)
	base = append(base, types.ChatTurn{User: "a"})
	out := AppendTurn(base, types.ChatTurn{User: "b"})
	_ = AppendTurn(base, types.ChatTurn{User: "c"})
	if out[1].User != "b" {
		t.Fatalf("append aliased input: %+v", out)
	}
}
