package dictionary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m3rciful/dictbot/core/logger"
	"github.com/m3rciful/dictbot/core/netutil"
	"github.com/m3rciful/dictbot/internal/domain"
)

// DefaultSuggestionURL is the Datamuse suggestion endpoint.
const DefaultSuggestionURL = "https://api.datamuse.com/sug"

const maxSuggestions = 5

// Suggester proposes a likely spelling for a token the dictionary rejected.
type Suggester struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
}

// NewSuggester returns a Datamuse-backed Suggester.
func NewSuggester(cfg Config, httpClient *http.Client) *Suggester {
	if httpClient == nil {
		httpClient = netutil.NewHTTPClient(netutil.ClientOptions{Timeout: cfg.Timeout})
	}
	endpoint := cfg.SuggestionURL
	if endpoint == "" {
		endpoint = DefaultSuggestionURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Suggester{endpoint: endpoint, timeout: timeout, http: httpClient}
}

// Suggest returns the highest-ranked suggestion that differs from token.
// ok is false when there is none.
func (s *Suggester) Suggest(ctx context.Context, token string) (string, bool, error) {
	const op = "dictionary.suggest"
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("s", token)
	q.Set("max", fmt.Sprint(maxSuggestions))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", false, domain.E(domain.KindSourceUnavailable, op, err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return "", false, domain.E(domain.KindSourceUnavailable, op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false, domain.E(domain.KindSourceUnavailable, op, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var items []datamuseSuggestion
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&items); err != nil {
		return "", false, domain.E(domain.KindSourceUnavailable, op, fmt.Errorf("decode json: %w", err))
	}
	for _, it := range items {
		w := strings.TrimSpace(it.Word)
		if w != "" && !strings.EqualFold(w, token) {
			logger.Debug(ctx, logger.CompDictionary, "suggest",
				slog.String("word", token),
				slog.String("suggestion", w),
			)
			return w, true, nil
		}
	}
	return "", false, nil
}
