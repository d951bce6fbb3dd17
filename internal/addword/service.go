// Package addword runs the add-word pipeline: validate the token with the
// dictionary, store the canonical entry, or offer a single-use confirmation
// when the dictionary does not know it.
package addword

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/dictbot/core/logger"
	"github.com/m3rciful/dictbot/internal/domain"
	"github.com/m3rciful/dictbot/internal/listing"
	"github.com/m3rciful/dictbot/internal/vocabulary"
)

// Lookup is the dictionary the service validates against.
type Lookup interface {
	Exists(ctx context.Context, token string) (bool, error)
	Fetch(ctx context.Context, token string) (domain.WordEntry, error)
}

// Suggester proposes a spelling for a rejected token.
type Suggester interface {
	Suggest(ctx context.Context, token string) (string, bool, error)
}

// Sessions issues and consumes confirmation tokens.
type Sessions interface {
	Open(userID domain.UserID, candidate string) (string, error)
	Resolve(userID domain.UserID, token string) (string, error)
}

// Status is the terminal state of one inbound event.
type Status string

const (
	StatusConfirmed    Status = "confirmed"
	StatusAwaiting     Status = "awaiting_confirmation"
	StatusInvalidInput Status = "invalid_input"
	StatusFailed       Status = "failed"
	StatusExpired      Status = "expired"
	StatusDuplicate    Status = "duplicate"
	StatusNotFound     Status = "not_found"
	StatusListed       Status = "listed"
)

// Outcome is the value logged under the handler summary "outcome" key.
func (s Status) Outcome() string {
	if s == StatusFailed {
		return "fail"
	}
	return string(s)
}

// Choice is one selectable candidate bound to a session token.
type Choice struct {
	Label string
	Token string
}

// Result is what the bot replies with. Text is MarkdownV2 when Markdown is set.
type Result struct {
	Status   Status
	Word     string
	Text     string
	Markdown bool
	Choices  []Choice
}

// User-facing texts.
const (
	TextInvalidInput = "Please provide a word, for example: /addword cat"
	TextUnavailable  = "The dictionary is not answering right now. Please try again later."
	TextStoreFailure = "Could not save the word. Please try again later."
	TextReadFailure  = "Could not load your words. Please try again later."
	TextExpired      = "This choice is no longer valid."

	textRejected      = "I could not find %q in the dictionary. Did you mean:"
	textNoSuggestion  = "I could not find %q in the dictionary. Check it once more:"
	textConfirmed     = "Added %q: %s"
	textDuplicate     = "%q is already in your vocabulary."
	textStillNotFound = "%q is still not in the dictionary."
)

// Options tune the service.
type Options struct {
	AllowDuplicates bool
	// Suggester is optional; without it the rejected token itself is offered.
	Suggester Suggester
}

// Service is the add-word orchestrator. It never returns Go errors; every
// failure becomes a Result with user-facing text.
type Service struct {
	lookup   Lookup
	store    vocabulary.Store
	sessions Sessions
	opts     Options
	locks    *userLocks
}

// New wires the service collaborators.
func New(lookup Lookup, store vocabulary.Store, sessions Sessions, opts Options) *Service {
	return &Service{
		lookup:   lookup,
		store:    store,
		sessions: sessions,
		opts:     opts,
		locks:    newUserLocks(),
	}
}

// Add handles "/addword <raw>".
func (s *Service) Add(ctx context.Context, userID domain.UserID, raw string) Result {
	start := time.Now()
	token := domain.NormalizeText(raw)
	if token == "" {
		logger.Debug(ctx, logger.CompAddWord, "add",
			slog.String("status", "skip"),
			slog.String("outcome", string(StatusInvalidInput)),
		)
		return Result{Status: StatusInvalidInput, Text: TextInvalidInput}
	}

	ok, err := s.lookup.Exists(ctx, token)
	if err != nil {
		return s.failed(ctx, "add.exists", token, err, start)
	}
	if !ok {
		return s.reject(ctx, userID, token, start)
	}
	return s.fetchAndStore(ctx, userID, token, false, start)
}

// Confirm handles a confirmation callback carrying a session token.
func (s *Service) Confirm(ctx context.Context, userID domain.UserID, sessionToken string) Result {
	start := time.Now()
	candidate, err := s.sessions.Resolve(userID, sessionToken)
	if err != nil {
		logger.Debug(ctx, logger.CompAddWord, "confirm",
			slog.String("status", "skip"),
			slog.String("outcome", string(StatusExpired)),
			slog.String("err_code", string(domain.KindOf(err))),
		)
		return Result{Status: StatusExpired, Text: TextExpired}
	}
	return s.fetchAndStore(ctx, userID, candidate, true, start)
}

// Show renders the caller's vocabulary. A read failure is reported, never
// shown as an empty list.
func (s *Service) Show(ctx context.Context, userID domain.UserID) Result {
	start := time.Now()
	entries, err := s.store.ReadAll(ctx, userID)
	if err != nil {
		logger.Error(ctx, logger.CompAddWord, "show",
			slog.String("status", "fail"),
			slog.String("err_code", string(domain.KindOf(err))),
			slog.Duration("duration", logger.Took(start)),
			slog.Any("err", err),
		)
		return Result{Status: StatusFailed, Text: TextReadFailure}
	}
	logger.Debug(ctx, logger.CompAddWord, "show",
		slog.String("status", "ok"),
		slog.Int("entries", len(entries)),
		slog.Duration("duration", logger.Took(start)),
	)
	return Result{Status: StatusListed, Text: listing.RenderMarkdown(entries), Markdown: true}
}

func (s *Service) fetchAndStore(ctx context.Context, userID domain.UserID, token string, confirmed bool, start time.Time) Result {
	entry, err := s.lookup.Fetch(ctx, token)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if confirmed {
			// offering the same candidate again would loop
			logger.Debug(ctx, logger.CompAddWord, "confirm.fetch",
				slog.String("status", "skip"),
				slog.String("word", token),
				slog.String("err_code", string(domain.KindNotFound)),
			)
			return Result{Status: StatusNotFound, Word: token, Text: fmt.Sprintf(textStillNotFound, token)}
		}
		return s.reject(ctx, userID, token, start)
	case err != nil:
		return s.failed(ctx, "add.fetch", token, err, start)
	case !entry.Valid():
		return s.failed(ctx, "add.fetch", token, domain.E(domain.KindSourceUnavailable, "add.fetch", errors.New("incomplete entry")), start)
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	if !s.opts.AllowDuplicates {
		dup, err := s.contains(ctx, userID, entry.Word)
		if err != nil {
			return s.storeFailed(ctx, entry.Word, err, start)
		}
		if dup {
			logger.Info(ctx, logger.CompAddWord, "store",
				slog.String("status", "skip"),
				slog.String("outcome", string(StatusDuplicate)),
				slog.String("word", entry.Word),
				slog.String("reason", "duplicate"),
			)
			return Result{Status: StatusDuplicate, Word: entry.Word, Text: fmt.Sprintf(textDuplicate, entry.Word)}
		}
	}
	if err := s.store.Add(ctx, userID, entry); err != nil {
		return s.storeFailed(ctx, entry.Word, err, start)
	}

	logger.Info(ctx, logger.CompAddWord, "store",
		slog.String("status", "ok"),
		slog.String("outcome", string(StatusConfirmed)),
		slog.String("word", entry.Word),
		slog.Bool("confirmed", confirmed),
		slog.Duration("duration", logger.Took(start)),
	)
	return Result{Status: StatusConfirmed, Word: entry.Word, Text: fmt.Sprintf(textConfirmed, entry.Word, entry.Meaning)}
}

// reject opens exactly one session for the best candidate and offers it.
func (s *Service) reject(ctx context.Context, userID domain.UserID, token string, start time.Time) Result {
	candidate, suggested := s.suggest(ctx, token)
	sessionToken, err := s.sessions.Open(userID, candidate)
	if err != nil {
		return s.failed(ctx, "add.session", token, err, start)
	}
	logger.Debug(ctx, logger.CompAddWord, "reject",
		slog.String("status", "ok"),
		slog.String("outcome", string(StatusAwaiting)),
		slog.String("word", token),
		slog.String("candidate", candidate),
		slog.Duration("duration", logger.Took(start)),
	)
	text := fmt.Sprintf(textNoSuggestion, token)
	if suggested {
		text = fmt.Sprintf(textRejected, token)
	}
	return Result{
		Status:  StatusAwaiting,
		Word:    token,
		Text:    text,
		Choices: []Choice{{Label: candidate, Token: sessionToken}},
	}
}

func (s *Service) suggest(ctx context.Context, token string) (string, bool) {
	if s.opts.Suggester == nil {
		return token, false
	}
	got, ok, err := s.opts.Suggester.Suggest(ctx, token)
	if err != nil {
		logger.Warn(ctx, logger.CompAddWord, "suggest",
			slog.String("status", "fail"),
			slog.String("word", token),
			slog.Any("err", err),
		)
		return token, false
	}
	if !ok {
		return token, false
	}
	return domain.NormalizeText(got), true
}

func (s *Service) contains(ctx context.Context, userID domain.UserID, word string) (bool, error) {
	entries, err := s.store.ReadAll(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if strings.EqualFold(e.Word, word) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) failed(ctx context.Context, op, token string, err error, start time.Time) Result {
	logger.Error(ctx, logger.CompAddWord, op,
		slog.String("status", "fail"),
		slog.String("outcome", "fail"),
		slog.String("word", token),
		slog.String("err_code", string(domain.KindOf(err))),
		slog.Duration("duration", logger.Took(start)),
		slog.Any("err", err),
	)
	return Result{Status: StatusFailed, Word: token, Text: TextUnavailable}
}

func (s *Service) storeFailed(ctx context.Context, word string, err error, start time.Time) Result {
	logger.Error(ctx, logger.CompAddWord, "store",
		slog.String("status", "fail"),
		slog.String("outcome", "fail"),
		slog.String("word", word),
		slog.String("err_code", string(domain.KindStoreFailure)),
		slog.Duration("duration", logger.Took(start)),
		slog.Any("err", err),
	)
	return Result{Status: StatusFailed, Word: word, Text: TextStoreFailure}
}
