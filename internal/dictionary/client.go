// Package dictionary checks and fetches English words from dictionaryapi.dev.
package dictionary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/m3rciful/dictbot/core/logger"
	"github.com/m3rciful/dictbot/core/netutil"
	"github.com/m3rciful/dictbot/internal/domain"
)

const (
	// DefaultBaseURL is the public Free Dictionary API endpoint.
	DefaultBaseURL = "https://api.dictionaryapi.dev/api/v2/entries/en"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Config configures the lookup client.
type Config struct {
	BaseURL    string        `yaml:"base_url" envconfig:"DICTIONARY_BASE_URL"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"DICTIONARY_TIMEOUT"`
	MaxRetries int           `yaml:"max_retries" envconfig:"DICTIONARY_MAX_RETRIES"`
	// Suggestions enables Datamuse spelling suggestions for rejected tokens.
	Suggestions   bool   `yaml:"suggestions" envconfig:"DICTIONARY_SUGGESTIONS"`
	SuggestionURL string `yaml:"suggestion_url" envconfig:"DICTIONARY_SUGGESTION_URL"`
}

// Normalize fills defaults.
func (c *Config) Normalize() error {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(c.BaseURL); err != nil {
		return fmt.Errorf("invalid dictionary.base_url: %w", err)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("dictionary.max_retries must be >= 0")
	}
	if c.SuggestionURL == "" {
		c.SuggestionURL = DefaultSuggestionURL
	}
	return nil
}

// Client talks to the dictionary API. It keeps no state between calls
// beyond coalescing identical in-flight fetches.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	group   singleflight.Group
}

// New returns a Client for cfg. A nil httpClient gets a tuned client from netutil.
func New(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = netutil.NewHTTPClient(netutil.ClientOptions{
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		})
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{baseURL: base, timeout: timeout, http: httpClient}
}

// Exists reports whether the dictionary knows token: true on 200, false on 404.
// Any other status or a transport failure is a SourceUnavailable error.
func (c *Client) Exists(ctx context.Context, token string) (bool, error) {
	const op = "dictionary.exists"
	start := time.Now()
	status, _, err := c.get(ctx, op, token, false)
	if err != nil {
		return false, err
	}
	logger.Debug(ctx, logger.CompDictionary, "lookup.exists",
		slog.String("word", token),
		slog.Int("http_code", status),
		slog.Duration("duration", logger.Took(start)),
	)
	return status == http.StatusOK, nil
}

// Fetch returns the canonical spelling and first definition of token.
// It fails with domain.ErrNotFound on 404 or an empty definition list.
// Concurrent fetches of the same token share one request. The shared request
// runs detached from any single caller, and each caller stops waiting when its
// own ctx is done.
func (c *Client) Fetch(ctx context.Context, token string) (domain.WordEntry, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(token, func() (any, error) {
		return c.fetch(detached, token)
	})
	select {
	case <-ctx.Done():
		return domain.WordEntry{}, domain.E(domain.KindSourceUnavailable, "dictionary.fetch", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return domain.WordEntry{}, res.Err
		}
		if res.Shared {
			logger.Debug(ctx, logger.CompDictionary, "lookup.shared", slog.String("word", token))
		}
		return res.Val.(domain.WordEntry), nil
	}
}

func (c *Client) fetch(ctx context.Context, token string) (domain.WordEntry, error) {
	const op = "dictionary.fetch"
	start := time.Now()
	status, body, err := c.get(ctx, op, token, true)
	if err != nil {
		return domain.WordEntry{}, err
	}
	if status == http.StatusNotFound {
		return domain.WordEntry{}, domain.E(domain.KindNotFound, op, fmt.Errorf("no entry for %q", token))
	}

	var entries []apiEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return domain.WordEntry{}, domain.E(domain.KindSourceUnavailable, op, fmt.Errorf("decode json: %w", err))
	}
	entry, ok := firstDefinition(entries)
	if !ok {
		return domain.WordEntry{}, domain.E(domain.KindNotFound, op, fmt.Errorf("no definitions for %q", token))
	}
	logger.Debug(ctx, logger.CompDictionary, "lookup.fetch",
		slog.String("word", entry.Word),
		slog.Int("entries", len(entries)),
		slog.Duration("duration", logger.Took(start)),
	)
	return entry, nil
}

// get issues GET {base}/{token}. It returns the status for 200 and 404 and a
// SourceUnavailable error for everything else.
func (c *Client) get(ctx context.Context, op, token string, readBody bool) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(token), nil)
	if err != nil {
		return 0, nil, domain.E(domain.KindSourceUnavailable, op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", c.timeout, err)
		}
		return 0, nil, domain.E(domain.KindSourceUnavailable, op, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNotFound:
	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return resp.StatusCode, nil, domain.E(domain.KindSourceUnavailable, op, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if !readBody || resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return resp.StatusCode, nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, domain.E(domain.KindSourceUnavailable, op, fmt.Errorf("read body: %w", err))
	}
	return resp.StatusCode, body, nil
}

// firstDefinition maps the first non-empty definition across entries onto a WordEntry.
func firstDefinition(entries []apiEntry) (domain.WordEntry, bool) {
	for _, e := range entries {
		word := strings.TrimSpace(e.Word)
		if word == "" {
			continue
		}
		for _, m := range e.Meanings {
			for _, d := range m.Definitions {
				if strings.TrimSpace(d.Definition) == "" {
					continue
				}
				return domain.WordEntry{
					Word:         word,
					Meaning:      strings.TrimSpace(d.Definition),
					PartOfSpeech: m.PartOfSpeech,
					Example:      strings.TrimSpace(d.Example),
					Phonetic:     phoneticOf(e),
				}, true
			}
		}
	}
	return domain.WordEntry{}, false
}

func phoneticOf(e apiEntry) string {
	if e.Phonetic != "" {
		return e.Phonetic
	}
	for _, p := range e.Phonetics {
		if p.Text != "" {
			return p.Text
		}
	}
	return ""
}
