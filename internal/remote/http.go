package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"recallkit/internal/domain"
	"recallkit/internal/fsrs"
)

const cardsTable = "flashcards"

// HTTPClient implements Client against a PostgREST-style row API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	token   string
	client  *http.Client
	now     func() time.Time
}

// NewHTTPClient creates a client for the row API at baseURL. The api
// key and bearer token are sent with every request.
func NewHTTPClient(baseURL, apiKey, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
		now:     time.Now,
	}
}

// SetClock overrides the timestamp source. Intended for tests.
func (c *HTTPClient) SetClock(now func() time.Time) {
	c.now = now
}

// cardRow is the wire format of a flashcard row, memory state inlined
// as flat columns.
type cardRow struct {
	ID            string     `json:"id,omitempty"`
	UserID        string     `json:"user_id"`
	DeckID        string     `json:"deck_id"`
	Front         string     `json:"front"`
	Back          string     `json:"back"`
	Tags          []string   `json:"tags"`
	Source        string     `json:"source"`
	SourceURL     string     `json:"source_url,omitempty"`
	FrontImageURL string     `json:"front_image_url,omitempty"`
	Stability     float64    `json:"stability"`
	Difficulty    float64    `json:"difficulty"`
	ElapsedDays   uint32     `json:"elapsed_days"`
	ScheduledDays uint32     `json:"scheduled_days"`
	Reps          uint32     `json:"reps"`
	Lapses        uint32     `json:"lapses"`
	State         int        `json:"state"`
	LastReview    *time.Time `json:"last_review"`
	Due           time.Time  `json:"due"`
}

func (r cardRow) toCard() domain.Card {
	return domain.Card{
		ID:            r.ID,
		DeckID:        r.DeckID,
		Front:         r.Front,
		Back:          r.Back,
		Tags:          r.Tags,
		Source:        domain.CardSource(r.Source),
		SourceURL:     r.SourceURL,
		FrontImageURL: r.FrontImageURL,
		Memory: fsrs.MemoryState{
			Stability:     r.Stability,
			Difficulty:    r.Difficulty,
			ElapsedDays:   r.ElapsedDays,
			ScheduledDays: r.ScheduledDays,
			Reps:          r.Reps,
			Lapses:        r.Lapses,
			State:         fsrs.State(r.State),
			LastReview:    r.LastReview,
			Due:           r.Due,
		},
	}
}

// InsertCard implements Client. A freshly created card starts in the
// New state, due immediately.
func (c *HTTPClient) InsertCard(ctx context.Context, userID string, p domain.CardPayload) error {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	row := cardRow{
		UserID:        userID,
		DeckID:        p.DeckID,
		Front:         p.Front,
		Back:          p.Back,
		Tags:          tags,
		Source:        string(p.Source),
		SourceURL:     p.SourceURL,
		FrontImageURL: p.FrontImageURL,
		Due:           c.now().UTC(),
		State:         int(fsrs.New),
	}

	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to encode card row: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tableURL(nil), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build insert request: %w", err)
	}
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("failed to insert card: %w", err)
	}
	resp.Body.Close()
	return nil
}

// Card implements Client.
func (c *HTTPClient) Card(ctx context.Context, userID, cardID string) (*domain.Card, error) {
	query := url.Values{}
	query.Set("id", "eq."+cardID)
	query.Set("user_id", "eq."+userID)
	query.Set("limit", "1")

	rows, err := c.selectRows(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch card %s: %w", cardID, err)
	}
	if len(rows) == 0 {
		return nil, nil // Card not found
	}
	card := rows[0].toCard()
	return &card, nil
}

// DueCards implements Client.
func (c *HTTPClient) DueCards(ctx context.Context, userID string, now time.Time, limit int) ([]domain.Card, error) {
	query := url.Values{}
	query.Set("user_id", "eq."+userID)
	query.Set("due", "lte."+now.UTC().Format(time.RFC3339))
	query.Set("order", "due.asc")
	query.Set("limit", fmt.Sprintf("%d", limit))

	rows, err := c.selectRows(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch due cards: %w", err)
	}
	cards := make([]domain.Card, len(rows))
	for i, r := range rows {
		cards[i] = r.toCard()
	}
	return cards, nil
}

// UpdateMemoryState implements Client. Only the scheduling columns are
// patched; card content is untouched.
func (c *HTTPClient) UpdateMemoryState(ctx context.Context, cardID string, m fsrs.MemoryState) error {
	patch := map[string]any{
		"stability":      m.Stability,
		"difficulty":     m.Difficulty,
		"elapsed_days":   m.ElapsedDays,
		"scheduled_days": m.ScheduledDays,
		"reps":           m.Reps,
		"lapses":         m.Lapses,
		"state":          int(m.State),
		"last_review":    m.LastReview,
		"due":            m.Due,
	}
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to encode memory state: %w", err)
	}

	query := url.Values{}
	query.Set("id", "eq."+cardID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.tableURL(query), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build update request: %w", err)
	}
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.do(req)
	if err != nil {
		return fmt.Errorf("failed to update memory state for card %s: %w", cardID, err)
	}
	resp.Body.Close()
	return nil
}

func (c *HTTPClient) selectRows(ctx context.Context, query url.Values) ([]cardRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tableURL(query), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build select request: %w", err)
	}
	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var rows []cardRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}
	return rows, nil
}

func (c *HTTPClient) tableURL(query url.Values) string {
	u := c.baseURL + "/rest/v1/" + cardsTable
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends the request with auth headers and turns non-2xx responses
// into errors.
func (c *HTTPClient) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("remote returned %s: %s", resp.Status, snippet)
	}
	return resp, nil
}
