package logger

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, format logFormat) (*slog.Logger, func() string) {
	t.Helper()
	buf := &bytes.Buffer{}
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	h := newStructuredHandler(handlerConfig{
		level:  slog.LevelDebug,
		writer: aw,
		format: format,
	})
	read := func() string {
		require.NoError(t, aw.Close())
		return strings.TrimSpace(buf.String())
	}
	return slog.New(h), read
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	LogEvent(ctx, log.With("component", CompAddWord), slog.LevelInfo, "word.added",
		slog.String("status", "ok"),
		slog.String("word", "cat"),
	)

	tokens := strings.Split(read(), " ")
	expected := []string{"ts=", "level=INFO", "component=service.addword", "event=word.added", "status=ok", "rid=rid-123"}
	require.GreaterOrEqual(t, len(tokens), len(expected))
	for i, prefix := range expected {
		require.True(t, strings.HasPrefix(tokens[i], prefix), "token %d = %s, want prefix %s", i, tokens[i], prefix)
	}
}

func TestStructuredHandlerJSONOrder(t *testing.T) {
	log, read := newTestLogger(t, formatJSON)
	ctx := WithRID(context.Background(), "rid-json")

	LogEvent(ctx, log.With("component", CompDictionary), slog.LevelError, "lookup.failed",
		slog.String("status", "fail"),
		slog.Any("err", errors.New("boom")),
	)

	line := read()
	prefixes := []string{`{"ts":`, `"level":"ERROR"`, `"component":"dictionary"`, `"event":"lookup.failed"`, `"status":"fail"`, `"rid":"rid-json"`, `"err":"boom"`}
	pos := -1
	for _, pref := range prefixes {
		idx := strings.Index(line, pref)
		require.Greater(t, idx, pos, "prefix %s out of order in %s", pref, line)
		pos = idx
	}
}

func TestStructuredHandlerCompactRID(t *testing.T) {
	rawRID := BuildRID(123, 456, 789)

	log, read := newTestLogger(t, formatKV)
	LogEvent(WithRID(context.Background(), rawRID), log, slog.LevelInfo, "rid.test")
	line := read()
	require.Contains(t, line, "rid="+CompactRID(rawRID))
	require.NotContains(t, line, "rid_full=")

	log, read = newTestLogger(t, formatJSON)
	LogEvent(WithRID(context.Background(), rawRID), log, slog.LevelInfo, "rid.test")
	line = read()
	require.Contains(t, line, `"rid":"`+CompactRID(rawRID)+`"`)
	require.Contains(t, line, `"rid_full":"`+rawRID+`"`)
	require.Contains(t, line, `"ts_unix_nano"`)
}

func TestStructuredHandlerEnumerations(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	LogEvent(context.Background(), log, slog.LevelInfo, "confirm.done",
		slog.String("status", " OK "),
		slog.String("outcome", "Awaiting_Confirmation"),
	)
	LogEvent(context.Background(), log, slog.LevelInfo, "confirm.weird",
		slog.String("outcome", "exploded"),
	)

	lines := strings.Split(read(), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "status=ok")
	require.Contains(t, lines[0], "outcome=awaiting_confirmation")
	require.NotContains(t, lines[1], "outcome=")
}

func TestStructuredHandlerDurationsAndGroups(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	log.WithGroup("http").Info("fetch",
		slog.Duration("took", 1499*time.Microsecond),
		slog.Int("status_code", 200),
	)
	line := read()
	require.Contains(t, line, "event=fetch")
	require.Contains(t, line, "component=app")
	require.Contains(t, line, "http.took_ms=1")
	require.Contains(t, line, "http.status_code=200")
}

func TestStructuredHandlerQuotesValues(t *testing.T) {
	log, read := newTestLogger(t, formatKV)
	LogEvent(context.Background(), log, slog.LevelInfo, "quote", slog.String("word", "ice cream"))
	require.Contains(t, read(), `word="ice cream"`)
}

func TestHelpersAreNoopBeforeInit(t *testing.T) {
	require.Nil(t, Component(CompApp))
	require.NotPanics(t, func() {
		Info(context.Background(), CompSession, "session.opened")
		Error(context.Background(), CompDB, "db.failed")
	})
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	got := []bool{s.Allow(), s.Allow(), s.Allow(), s.Allow()}
	require.Equal(t, []bool{true, false, false, true}, got)

	s.Set(0, 0)
	require.True(t, s.Allow())
	require.True(t, s.Allow())
}

func TestParseRatio(t *testing.T) {
	cases := map[string][2]int{
		"1/10": {1, 10},
		"25":   {1, 25},
		"0":    {0, 0},
		"x/y":  {0, 0},
		"":     {0, 0},
	}
	for raw, want := range cases {
		num, den := parseRatio(raw)
		require.Equal(t, want, [2]int{num, den}, raw)
	}
}

func TestCompactRIDPassthrough(t *testing.T) {
	require.Equal(t, "not-a-rid", CompactRID("not-a-rid"))
	require.Equal(t, "a.b.c", CompactRID("10:11:12"))
}

func TestSanitizeLimit(t *testing.T) {
	require.Equal(t, "ab\tc", Sanitize("a\x00b\tc"))
	require.Equal(t, "héll", SanitizeLimit("héllo", 4))
	require.Empty(t, SanitizeLimit("hello", 0))
}
