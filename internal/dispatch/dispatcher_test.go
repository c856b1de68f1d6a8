package dispatch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aethernet/internal/ai"
	"github.com/aethernet/internal/chat"
)

// fakeAdapter is a scriptable in-process adapter.
type fakeAdapter struct {
	kind    chat.ProviderKind
	reply   string
	err     error
	delay   time.Duration
	calls   atomic.Int32
	history atomic.Value // []ai.Turn from the most recent call
}

func (f *fakeAdapter) Kind() chat.ProviderKind {
	return f.kind
}

func (f *fakeAdapter) Send(ctx context.Context, message string, p chat.Participant, history []ai.Turn) (string, error) {
	f.calls.Add(1)
	f.history.Store(append([]ai.Turn(nil), history...))
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func roster() []chat.Participant {
	return []chat.Participant{
		{ID: "gemini", DisplayName: "Gemini", Provider: chat.ProviderGoogle},
		{ID: "mistral", DisplayName: "Mistral", Provider: chat.ProviderMistral},
	}
}

func setup(t *testing.T, adapters ...ai.Adapter) (*Dispatcher, *chat.Store, string) {
	t.Helper()
	store := chat.NewStore()
	registry := ai.NewRegistry()
	for _, a := range adapters {
		registry.Register(a)
	}
	conv, err := store.Create("test chat", roster())
	require.NoError(t, err)
	return New(store, registry), store, conv.ID
}

func TestDispatchTurnBroadcast(t *testing.T) {
	google := &fakeAdapter{kind: chat.ProviderGoogle, reply: "from gemini"}
	mistral := &fakeAdapter{kind: chat.ProviderMistral, reply: "from mistral"}
	d, store, chatID := setup(t, google, mistral)

	appended, err := d.DispatchTurn(context.Background(), chatID, "hello everyone")
	require.NoError(t, err)

	// Without a mention every participant answers: user message plus one
	// reply each.
	require.Len(t, appended, 3)
	assert.Equal(t, chat.OriginUser, appended[0].Origin)
	assert.Equal(t, "hello everyone", appended[0].Content)

	replies := map[string]string{
		appended[1].Origin: appended[1].Content,
		appended[2].Origin: appended[2].Content,
	}
	want := map[string]string{
		"gemini":  "from gemini",
		"mistral": "from mistral",
	}
	if diff := cmp.Diff(want, replies); diff != "" {
		t.Errorf("replies mismatch (-want +got):\n%s", diff)
	}

	conv, err := store.Get(chatID)
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 3, "all turn messages persisted")
}

func TestDispatchTurnMentionTargetsOnly(t *testing.T) {
	google := &fakeAdapter{kind: chat.ProviderGoogle, reply: "hi, I'm Gemini"}
	mistral := &fakeAdapter{kind: chat.ProviderMistral, reply: "hi, I'm Mistral"}
	d, _, chatID := setup(t, google, mistral)

	appended, err := d.DispatchTurn(context.Background(), chatID, "@Gemini what do you think?")
	require.NoError(t, err)

	require.Len(t, appended, 2)
	assert.Equal(t, "gemini", appended[1].Origin)
	assert.Equal(t, "hi, I'm Gemini", appended[1].Content)

	assert.Equal(t, int32(1), google.calls.Load())
	assert.Equal(t, int32(0), mistral.calls.Load(), "unmentioned participants are never called")
}

func TestDispatchTurnFailureIsolation(t *testing.T) {
	google := &fakeAdapter{kind: chat.ProviderGoogle, err: ai.NewMissingCredential(chat.ProviderGoogle)}
	mistral := &fakeAdapter{kind: chat.ProviderMistral, reply: "still here"}
	d, _, chatID := setup(t, google, mistral)

	appended, err := d.DispatchTurn(context.Background(), chatID, "hello")
	require.NoError(t, err)
	require.Len(t, appended, 3)

	byOrigin := map[string]string{}
	for _, msg := range appended[1:] {
		byOrigin[msg.Origin] = msg.Content
	}
	assert.Equal(t, "still here", byOrigin["mistral"])
	assert.Contains(t, byOrigin["gemini"], "not configured", "failure becomes an attributed transcript message")
}

func TestDispatchTurnTimeoutMessage(t *testing.T) {
	google := &fakeAdapter{
		kind: chat.ProviderGoogle,
		err:  &ai.AdapterError{Kind: ai.ErrTimeout, Provider: chat.ProviderGoogle, Message: "deadline exceeded"},
	}
	d, _, chatID := setup(t, google)

	appended, err := d.DispatchTurn(context.Background(), chatID, "@Gemini hello")
	require.NoError(t, err)
	require.Len(t, appended, 2)
	assert.Equal(t, "gemini", appended[1].Origin)
	assert.Equal(t, "Gemini did not respond in time.", appended[1].Content)
}

func TestDispatchTurnHistoryExcludesCurrentMessage(t *testing.T) {
	google := &fakeAdapter{kind: chat.ProviderGoogle, reply: "first"}
	mistral := &fakeAdapter{kind: chat.ProviderMistral, reply: "noted"}
	d, _, chatID := setup(t, google, mistral)

	_, err := d.DispatchTurn(context.Background(), chatID, "@Gemini opening line")
	require.NoError(t, err)

	_, err = d.DispatchTurn(context.Background(), chatID, "@Mistral follow-up")
	require.NoError(t, err)

	history := mistral.history.Load().([]ai.Turn)
	want := []ai.Turn{
		{Role: ai.RoleUser, Content: "@Gemini opening line"},
		{Role: ai.RoleAssistant, Content: "first"},
	}
	if diff := cmp.Diff(want, history); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatchTurnErrorNoticeStaysOutOfHistory(t *testing.T) {
	// First turn fails, second succeeds; the failure text must not reach
	// the second participant as a model-authored turn.
	google := &fakeAdapter{kind: chat.ProviderGoogle, err: ai.NewMissingCredential(chat.ProviderGoogle)}
	mistral := &fakeAdapter{kind: chat.ProviderMistral, reply: "hi"}
	d, store, chatID := setup(t, google, mistral)

	appended, err := d.DispatchTurn(context.Background(), chatID, "@Gemini hello")
	require.NoError(t, err)
	require.Len(t, appended, 2)
	assert.True(t, appended[1].IsError)
	assert.Equal(t, "gemini", appended[1].Origin, "notice keeps its participant attribution")

	_, err = d.DispatchTurn(context.Background(), chatID, "@Mistral hi")
	require.NoError(t, err)

	history := mistral.history.Load().([]ai.Turn)
	want := []ai.Turn{
		{Role: ai.RoleUser, Content: "@Gemini hello"},
	}
	if diff := cmp.Diff(want, history); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}

	// The notice itself stays visible in the transcript.
	conv, err := store.Get(chatID)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 4)
	assert.True(t, conv.Messages[1].IsError)
}

func TestDispatchTurnUnknownConversation(t *testing.T) {
	d, _, _ := setup(t, &fakeAdapter{kind: chat.ProviderGoogle})

	_, err := d.DispatchTurn(context.Background(), "nope", "hello")
	assert.ErrorIs(t, err, chat.ErrConversationNotFound)
}

func TestDispatchTurnUnregisteredProvider(t *testing.T) {
	// Mistral has no adapter registered; Gemini does.
	google := &fakeAdapter{kind: chat.ProviderGoogle, reply: "present"}
	d, _, chatID := setup(t, google)

	appended, err := d.DispatchTurn(context.Background(), chatID, "hello")
	require.NoError(t, err)
	require.Len(t, appended, 3)

	byOrigin := map[string]string{}
	for _, msg := range appended[1:] {
		byOrigin[msg.Origin] = msg.Content
	}
	assert.Equal(t, "present", byOrigin["gemini"])
	assert.Contains(t, byOrigin["mistral"], "not supported")
}

func TestDispatchTurnConcurrentFanOut(t *testing.T) {
	// Two slow participants answering in parallel finish in roughly one
	// delay, not two.
	google := &fakeAdapter{kind: chat.ProviderGoogle, reply: "a", delay: 80 * time.Millisecond}
	mistral := &fakeAdapter{kind: chat.ProviderMistral, reply: "b", delay: 80 * time.Millisecond}
	d, _, chatID := setup(t, google, mistral)

	started := time.Now()
	appended, err := d.DispatchTurn(context.Background(), chatID, "hello")
	require.NoError(t, err)
	require.Len(t, appended, 3)
	assert.Less(t, time.Since(started), 150*time.Millisecond)
}
