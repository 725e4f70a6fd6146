package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/threatlens-io/threatlens/internal/config"
	"github.com/threatlens-io/threatlens/internal/feed"
	"github.com/threatlens-io/threatlens/internal/redact"
)

// Social searches a social-media API (Twitter/X v2 recent-search shape) for
// threat chatter. Credentials come from the environment; a missing token or
// a rate-limit response degrades to the last successful batch (or empty),
// never to an error that would abort the cycle.
type Social struct {
	cfg    config.SocialConfig
	client *http.Client
	cache  lastGood
}

func NewSocial(cfg config.SocialConfig) *Social {
	return &Social{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (s *Social) Name() string { return "social" }

type socialSearchResponse struct {
	Data []struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		AuthorID  string `json:"author_id"`
		CreatedAt string `json:"created_at"`
	} `json:"data"`
}

func (s *Social) Fetch(ctx context.Context) ([]feed.RawRecord, error) {
	token := os.Getenv(s.cfg.BearerTokenEnv)
	if token == "" {
		redact.Logf("social: %s is not set, serving cached results", s.cfg.BearerTokenEnv)
		records, _ := s.cache.get()
		return records, nil
	}

	u, err := url.Parse(s.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("query", s.cfg.Query)
	q.Set("max_results", strconv.Itoa(s.cfg.Limit))
	q.Set("tweet.fields", "created_at,author_id")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", "threatlens/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		// Rate limits are routine here; the next cycle is the retry.
		redact.Logf("social: rate limited (429), serving cached results")
		records, _ := s.cache.get()
		return records, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var body socialSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	records := make([]feed.RawRecord, 0, len(body.Data))
	for _, post := range body.Data {
		if post.Text == "" {
			continue
		}
		records = append(records, feed.RawRecord{
			Source: s.Name(),
			Text:   post.Text,
			Metadata: map[string]any{
				"post_id":    post.ID,
				"author_id":  post.AuthorID,
				"created_at": post.CreatedAt,
			},
		})
	}

	s.cache.set(records)
	return records, nil
}
