package dictionary

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/m3rciful/dictbot/internal/domain"
)

const catJSON = `[{
  "word": "cat",
  "phonetics": [{"text": "", "audio": ""}, {"text": "/kæt/", "audio": "https://example.com/cat.mp3"}],
  "meanings": [
    {"partOfSpeech": "noun", "definitions": [
      {"definition": "A small domesticated carnivorous mammal.", "example": "The cat sat on the mat."},
      {"definition": "A person."}
    ]},
    {"partOfSpeech": "verb", "definitions": [{"definition": "To hoist the anchor."}]}
  ]
}]`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, Timeout: time.Second}, srv.Client())
}

func TestFetchFirstDefinition(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/cat", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, catJSON)
	})

	got, err := c.Fetch(context.Background(), "cat")
	require.NoError(t, err)
	want := domain.WordEntry{
		Word:         "cat",
		Meaning:      "A small domesticated carnivorous mammal.",
		PartOfSpeech: "noun",
		Example:      "The cat sat on the mat.",
		Phonetic:     "/kæt/",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestFetchCanonicalSpelling(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"word":"colour","meanings":[{"partOfSpeech":"noun","definitions":[{"definition":"hue"}]}]}]`)
	})
	got, err := c.Fetch(context.Background(), "Colour")
	require.NoError(t, err)
	require.Equal(t, "colour", got.Word)
	require.Equal(t, "hue", got.Meaning)
}

func TestFetchSkipsEmptyDefinitions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"word":"run","meanings":[{"partOfSpeech":"noun","definitions":[]},{"partOfSpeech":"verb","definitions":[{"definition":"move fast"}]}]}]`)
	})
	got, err := c.Fetch(context.Background(), "run")
	require.NoError(t, err)
	require.Equal(t, "verb", got.PartOfSpeech)
	require.Equal(t, "move fast", got.Meaning)
}

func TestFetchNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"title":"No Definitions Found"}`)
	})
	_, err := c.Fetch(context.Background(), "qwzx")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetchEmptyArrayIsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	_, err := c.Fetch(context.Background(), "cat")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFetchSourceUnavailable(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		"rate limited": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) },
		"bad json":     func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{not json`) },
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, h)
			_, err := c.Fetch(context.Background(), "cat")
			require.True(t, domain.IsKind(err, domain.KindSourceUnavailable), "got %v", err)
		})
	}
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, srv.Client())
	_, err := c.Fetch(context.Background(), "cat")
	require.True(t, domain.IsKind(err, domain.KindSourceUnavailable), "got %v", err)
}

func TestExists(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cat":
			fmt.Fprint(w, catJSON)
		case "/qwzx":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	})
	ctx := context.Background()

	ok, err := c.Exists(ctx, "cat")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.Exists(ctx, "qwzx")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = c.Exists(ctx, "boom")
	require.True(t, domain.IsKind(err, domain.KindSourceUnavailable))
}

func TestPathEscaping(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/ice cream", r.URL.Path)
		require.Contains(t, r.URL.RawPath+r.RequestURI, "ice%20cream")
		w.WriteHeader(http.StatusNotFound)
	})
	ok, err := c.Exists(context.Background(), "ice cream")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFetchCoalescesConcurrentCalls(t *testing.T) {
	var hits atomic.Int32
	gate := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-gate
		fmt.Fprint(w, catJSON)
	})

	var g errgroup.Group
	for range 8 {
		g.Go(func() error {
			_, err := c.Fetch(context.Background(), "cat")
			return err
		})
	}
	// let every caller join the in-flight request
	time.Sleep(50 * time.Millisecond)
	close(gate)
	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), hits.Load())
}

func TestFetchJoinerOutlivesCancelledCaller(t *testing.T) {
	gate := make(chan struct{})
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-gate
		fmt.Fprint(w, catJSON)
	})

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Fetch(first, "cat")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan error, 1)
	go func() {
		entry, err := c.Fetch(context.Background(), "cat")
		if err == nil && entry.Word != "cat" {
			err = fmt.Errorf("unexpected word %q", entry.Word)
		}
		second <- err
	}()
	// the second caller must be joined before the first one leaves
	time.Sleep(50 * time.Millisecond)

	cancel()
	err := <-firstErr
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, domain.IsKind(err, domain.KindSourceUnavailable), "got %v", err)

	close(gate)
	require.NoError(t, <-second)
	require.Equal(t, int32(1), hits.Load())
}

func TestNormalizeConfig(t *testing.T) {
	var cfg Config
	require.NoError(t, cfg.Normalize())
	require.Equal(t, DefaultBaseURL, cfg.BaseURL)
	require.Equal(t, defaultTimeout, cfg.Timeout)
	require.Equal(t, DefaultSuggestionURL, cfg.SuggestionURL)

	bad := Config{BaseURL: "::nope"}
	require.Error(t, bad.Normalize())
	require.Error(t, (&Config{MaxRetries: -1}).Normalize())
}

func TestSuggest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sug", r.URL.Path)
		require.Equal(t, "5", r.URL.Query().Get("max"))
		switch r.URL.Query().Get("s") {
		case "hapy":
			fmt.Fprint(w, `[{"word":"hapy","score":10},{"word":"happy","score":9}]`)
		case "zzzz":
			fmt.Fprint(w, `[]`)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	t.Cleanup(srv.Close)

	s := NewSuggester(Config{SuggestionURL: srv.URL + "/sug", Timeout: time.Second}, srv.Client())
	ctx := context.Background()

	got, ok, err := s.Suggest(ctx, "hapy")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "happy", got)

	_, ok, err = s.Suggest(ctx, "zzzz")
	require.NoError(t, err)
	require.False(t, ok)

	_, _, err = s.Suggest(ctx, "down")
	require.True(t, domain.IsKind(err, domain.KindSourceUnavailable))
}
