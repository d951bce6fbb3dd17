package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/dictbot/core/telegram/state"
	"github.com/m3rciful/dictbot/internal/addword"
	"github.com/m3rciful/dictbot/internal/dictionary"
	"github.com/m3rciful/dictbot/internal/domain"
	"github.com/m3rciful/dictbot/internal/session"
	"github.com/m3rciful/dictbot/internal/vocabulary"
)

type recorder struct {
	mu      sync.Mutex
	replies []Reply
	err     error
}

func (r *recorder) Reply(_ context.Context, rep Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, rep)
	return r.err
}

func (r *recorder) last(t *testing.T) Reply {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.replies)
	return r.replies[len(r.replies)-1]
}

type harness struct {
	bot      *Bot
	store    *vocabulary.MemoryStore
	sessions *session.Registry
	clock    *time.Time
	clockMu  *sync.Mutex
}

// dictionaryServer knows "cat" only and canonicalises it to lowercase.
func dictionaryServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		word := strings.TrimPrefix(r.URL.Path, "/")
		if strings.ToLower(word) != "cat" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"title":"No Definitions Found"}`)
			return
		}
		fmt.Fprint(w, `[{"word":"cat","meanings":[{"partOfSpeech":"noun","definitions":[{"definition":"a small animal"}]}]}]`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	srv := dictionaryServer(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	h := &harness{store: vocabulary.NewMemoryStore(), clock: &now, clockMu: &mu}
	h.sessions = session.New(session.Config{TTL: time.Minute}, session.WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return *h.clock
	}))
	t.Cleanup(h.sessions.Close)

	client := dictionary.New(dictionary.Config{BaseURL: srv.URL, Timeout: time.Second}, srv.Client())
	svc := addword.New(client, h.store, h.sessions, addword.Options{})
	h.bot = New(svc, state.NewMemoryManager(time.Hour))
	return h
}

func (h *harness) advance(d time.Duration) {
	h.clockMu.Lock()
	*h.clock = h.clock.Add(d)
	h.clockMu.Unlock()
}

func (h *harness) send(t *testing.T, rec *recorder, in Inbound) string {
	t.Helper()
	in.UserID = 100
	in.AwaitingWord = h.bot.Awaiting(100)
	outcome, err := h.bot.Deliver(context.Background(), 100, Parse(in), rec)
	require.NoError(t, err)
	return outcome
}

func (h *harness) words(t *testing.T) []string {
	t.Helper()
	entries, err := h.store.ReadAll(context.Background(), 100)
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		out = append(out, e.Word)
	}
	return out
}

func TestAddWordStoresCanonicalForm(t *testing.T) {
	h := newHarness(t)
	rec := &recorder{}

	outcome := h.send(t, rec, Inbound{Text: "/addword Cat"})
	require.Equal(t, "confirmed", outcome)
	require.Equal(t, []string{"cat"}, h.words(t))
	require.Contains(t, rec.last(t).Text, `"cat"`)
}

func TestAddUnknownWordOffersChoice(t *testing.T) {
	h := newHarness(t)
	rec := &recorder{}

	outcome := h.send(t, rec, Inbound{Text: "/addword zzznotaword"})
	require.Equal(t, "awaiting_confirmation", outcome)
	reply := rec.last(t)
	require.Len(t, reply.Choices, 1)
	require.Equal(t, "zzznotaword", reply.Choices[0].Label)
	require.Empty(t, h.words(t))
	require.Equal(t, 1, h.sessions.Len())
}

func TestConfirmExpiredSession(t *testing.T) {
	h := newHarness(t)
	rec := &recorder{}
	h.send(t, rec, Inbound{Text: "/addword zzznotaword"})
	token := rec.last(t).Choices[0].Token

	h.advance(2 * time.Minute)
	outcome := h.send(t, rec, Inbound{CallbackUnique: ConfirmUnique, CallbackData: token})
	require.Equal(t, "expired", outcome)
	require.Contains(t, rec.last(t).Text, "no longer valid")
	require.Empty(t, h.words(t))
}

func TestPromptDialog(t *testing.T) {
	h := newHarness(t)
	rec := &recorder{}

	h.send(t, rec, Inbound{Text: LabelAddWord})
	require.Equal(t, TextPrompt, rec.last(t).Text)
	require.True(t, h.bot.Awaiting(100))

	require.Equal(t, "confirmed", h.send(t, rec, Inbound{Text: "CAT"}))
	require.False(t, h.bot.Awaiting(100))
	require.Equal(t, []string{"cat"}, h.words(t))

	// without a prompt the same text is not a word
	require.Equal(t, "unrecognized", h.send(t, rec, Inbound{Text: "cat"}))
	require.Equal(t, TextUnrecognized, rec.last(t).Text)
}

func TestShowListsWords(t *testing.T) {
	h := newHarness(t)
	rec := &recorder{}

	h.send(t, rec, Inbound{Text: "/show"})
	require.True(t, rec.last(t).Markdown)
	require.Equal(t, `You have no words saved yet\.`, rec.last(t).Text)

	h.send(t, rec, Inbound{Text: "/addword cat"})
	require.Equal(t, "listed", h.send(t, rec, Inbound{Text: "/show"}))
	require.Equal(t, "*cat* \\- _a small animal_;\n", rec.last(t).Text)
}

func TestStartHelpInfo(t *testing.T) {
	h := newHarness(t)
	rec := &recorder{}

	h.send(t, rec, Inbound{Text: "/start", FirstName: "Ann"})
	require.Equal(t, "Hello, Ann! Type /help", rec.last(t).Text)
	require.True(t, rec.last(t).MainMenu)

	h.send(t, rec, Inbound{Text: "/help"})
	require.Equal(t, TextHelp, rec.last(t).Text)

	h.send(t, rec, Inbound{Text: "/info", Language: "en"})
	require.Equal(t, "Your language code: en", rec.last(t).Text)
}

func TestDeliverReturnsReplierError(t *testing.T) {
	h := newHarness(t)
	rec := &recorder{err: errors.New("telegram down")}
	_, err := h.bot.Deliver(context.Background(), 100, Help{}, rec)
	require.ErrorContains(t, err, "telegram down")
}

func TestDeliverWithoutStateManager(t *testing.T) {
	b := New(stubService{}, nil)
	rec := &recorder{}
	_, err := b.Deliver(context.Background(), 1, PromptAddWord{}, rec)
	require.NoError(t, err)
	require.False(t, b.Awaiting(1))
}

type stubService struct{}

func (stubService) Add(context.Context, domain.UserID, string) addword.Result { return addword.Result{} }
func (stubService) Confirm(context.Context, domain.UserID, string) addword.Result {
	return addword.Result{}
}
func (stubService) Show(context.Context, domain.UserID) addword.Result { return addword.Result{} }
