package callback

import (
	"context"
	"iter"
	"strings"
	"testing"
	"time"

	"google.golang.org/adk/model"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/altarworks/emmaus/internal/insight"
	"github.com/altarworks/emmaus/internal/memory"
	"github.com/altarworks/emmaus/internal/personalize"
	"github.com/altarworks/emmaus/internal/types"
)

func newTestFacade(t *testing.T) *personalize.Facade {
	t.Helper()
	store, err := memory.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return personalize.New(memory.NewService(store, insight.NewExtractor(), memory.NewContextSummarizer(false)))
}

func TestRecordExchangePersistsLatestTurn(t *testing.T) {
	facade := newTestFacade(t)
	transcripts := &fakeTranscripts{}
	sess := newMockSession("anna", []sessionEvent{
		{role: "user", text: "hello"},
		{role: "model", text: "Greetings, friend."},
		{role: "user", text: "I'm really worried about my job interview tomorrow"},
		{role: "model", text: "Do not be anxious; remember Philippians 4:6."},
	})

	if err := recordExchange(context.Background(), sess, transcripts, facade, "paul", 10); err != nil {
		t.Fatalf("recordExchange: %v", err)
	}

	// Only the newest turn is persisted, not the whole session again.
	if len(transcripts.added) != 2 {
		t.Fatalf("expected 2 persisted turns, got %d: %+v", len(transcripts.added), transcripts.added)
	}
	if transcripts.added[0].Role != types.RoleUser || transcripts.added[1].Role != types.RoleAssistant {
		t.Fatalf("unexpected persisted roles: %+v", transcripts.added)
	}
	if transcripts.added[0].SessionID != "session-1" || transcripts.added[0].CharacterID != "paul" {
		t.Fatalf("unexpected persisted message: %+v", transcripts.added[0])
	}

	if len(transcripts.windowCalls) != 1 || transcripts.windowCalls[0].limit != 10 {
		t.Fatalf("expected one window read with the history limit, got %+v", transcripts.windowCalls)
	}

	// With no stored window the in-session conversation still feeds the pass.
	if got := facade.MemoryContext("anna", "paul"); !strings.Contains(got, "anxiety") {
		t.Fatalf("anxiety insight missing from context: %q", got)
	}
}

func TestRecordExchangeExtractsFromStoredWindow(t *testing.T) {
	facade := newTestFacade(t)
	transcripts := &fakeTranscripts{
		stored: []types.ChatMessage{
			{SessionID: "session-1", CharacterID: "paul", Role: types.RoleUser, Content: "tell me more"},
			{SessionID: "session-1", CharacterID: "paul", Role: types.RoleAssistant, Content: "Remember Psalm 23."},
		},
	}
	sess := newMockSession("anna", []sessionEvent{
		{role: "user", text: "tell me more"},
		{role: "model", text: "I am with you."},
	})

	if err := recordExchange(context.Background(), sess, transcripts, facade, "paul", 10); err != nil {
		t.Fatalf("recordExchange: %v", err)
	}

	exported, err := facade.ExportUserMemory("anna")
	if err != nil {
		t.Fatalf("ExportUserMemory: %v", err)
	}
	if !strings.Contains(exported, "Psalm 23") {
		t.Fatalf("expected extraction over the stored window, export: %s", exported)
	}
}

func TestRecordExchangeEmptySession(t *testing.T) {
	facade := newTestFacade(t)
	transcripts := &fakeTranscripts{}
	sess := newMockSession("anna", nil)

	if err := recordExchange(context.Background(), sess, transcripts, facade, "paul", 10); err != nil {
		t.Fatalf("recordExchange: %v", err)
	}
	if len(transcripts.added) != 0 || len(transcripts.windowCalls) != 0 {
		t.Fatalf("expected no transcript activity, got %+v", transcripts)
	}
	if facade.MemoryContext("anna", "paul") != facade.MemoryContext("ghost", "paul") {
		t.Fatal("nothing should have been recorded")
	}
}

type windowCall struct {
	sessionID string
	limit     int
}

type fakeTranscripts struct {
	added       []types.ChatMessage
	stored      []types.ChatMessage
	windowCalls []windowCall
}

func (f *fakeTranscripts) AddMessage(_ context.Context, msg types.ChatMessage) error {
	f.added = append(f.added, msg)
	return nil
}

func (f *fakeTranscripts) GetRecentMessages(_ context.Context, sessionID string, limit int) ([]types.ChatMessage, error) {
	f.windowCalls = append(f.windowCalls, windowCall{sessionID: sessionID, limit: limit})
	return f.stored, nil
}

var _ TranscriptStore = (*fakeTranscripts)(nil)

type sessionEvent struct {
	role string
	text string
}

func newMockSession(userID string, events []sessionEvent) session.Session {
	evtList := make([]*session.Event, 0, len(events))
	for _, e := range events {
		evtList = append(evtList, &session.Event{
			LLMResponse: model.LLMResponse{
				Content: genai.NewContentFromText(e.text, genai.Role(e.role)),
			},
		})
	}
	return &mockSession{
		id:     "session-1",
		app:    "emmaus",
		user:   userID,
		state:  &mockState{data: map[string]any{}},
		events: &mockEvents{events: evtList},
	}
}

type mockSession struct {
	id     string
	app    string
	user   string
	state  *mockState
	events *mockEvents
}

func (m *mockSession) ID() string                { return m.id }
func (m *mockSession) AppName() string           { return m.app }
func (m *mockSession) UserID() string            { return m.user }
func (m *mockSession) State() session.State      { return m.state }
func (m *mockSession) Events() session.Events    { return m.events }
func (m *mockSession) LastUpdateTime() time.Time { return time.Now() }

var _ session.Session = (*mockSession)(nil)

type mockState struct {
	data map[string]any
}

func (m *mockState) Get(key string) (any, error) {
	val, ok := m.data[key]
	if !ok {
		return nil, session.ErrStateKeyNotExist
	}
	return val, nil
}

func (m *mockState) Set(key string, value any) error {
	if m.data == nil {
		m.data = map[string]any{}
	}
	m.data[key] = value
	return nil
}

func (m *mockState) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for k, v := range m.data {
			if !yield(k, v) {
				return
			}
		}
	}
}

var _ session.State = (*mockState)(nil)

type mockEvents struct {
	events []*session.Event
}

func (m *mockEvents) All() iter.Seq[*session.Event] {
	return func(yield func(*session.Event) bool) {
		for _, evt := range m.events {
			if !yield(evt) {
				return
			}
		}
	}
}

func (m *mockEvents) Len() int {
	return len(m.events)
}

func (m *mockEvents) At(i int) *session.Event {
	return m.events[i]
}

var _ session.Events = (*mockEvents)(nil)
