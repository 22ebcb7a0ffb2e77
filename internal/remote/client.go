// Package remote implements the client for the authoritative day-ledger
// store, a hierarchical key-path CRUD service addressed by (user, day).
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"example.com/timetracker/internal/domain"
	"example.com/timetracker/internal/observability"
)

// TransportError reports a failed remote call: a network error or a
// non-success response. Calls are not retried; the caller surfaces the
// failure.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("remote %s: unexpected status %d", e.Op, e.Status)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// activityPayload is the wire shape of one stored activity. Field names match
// the remote store's schema, not the internal model.
type activityPayload struct {
	Name      string `json:"name"`
	Category  string `json:"category,omitempty"`
	Duration  int    `json:"duration"`
	CreatedAt int64  `json:"createdAt"`
}

// Client performs CRUD against the remote store over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// ClientOption configures optional Client behaviour.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger overrides the logger used for request diagnostics.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.log = logger
	}
}

// NewClient constructs a Client with sane defaults.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) collectionURL(scope domain.Scope) string {
	return fmt.Sprintf("%s/users/%s/days/%s/activities", c.baseURL, scope.UserID, scope.Day)
}

func (c *Client) itemURL(scope domain.Scope, id string) string {
	return c.collectionURL(scope) + "/" + id
}

// List fetches the full snapshot for a scope. An empty or null body means the
// day has no activities. The snapshot is ordered by creation time, ties broken
// by ID, so repeated loads see a stable sequence.
func (c *Client) List(ctx context.Context, scope domain.Scope) ([]domain.Activity, error) {
	body, err := c.do(ctx, "list", http.MethodGet, c.collectionURL(scope), nil)
	if err != nil {
		return nil, err
	}

	var items map[string]activityPayload
	if len(body) > 0 {
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, &TransportError{Op: "list", Err: fmt.Errorf("decode response: %w", err)}
		}
	}

	activities := make([]domain.Activity, 0, len(items))
	for id, payload := range items {
		activities = append(activities, domain.Activity{
			ID:          id,
			Name:        payload.Name,
			Category:    payload.Category,
			DurationMin: payload.Duration,
			CreatedAt:   payload.CreatedAt,
		})
	}
	sort.Slice(activities, func(i, j int) bool {
		if activities[i].CreatedAt != activities[j].CreatedAt {
			return activities[i].CreatedAt < activities[j].CreatedAt
		}
		return activities[i].ID < activities[j].ID
	})
	return activities, nil
}

// Create stores a new activity and returns its server-generated key.
func (c *Client) Create(ctx context.Context, scope domain.Scope, activity domain.Activity) (string, error) {
	payload, err := json.Marshal(activityPayload{
		Name:      activity.Name,
		Category:  activity.Category,
		Duration:  activity.DurationMin,
		CreatedAt: activity.CreatedAt,
	})
	if err != nil {
		return "", &TransportError{Op: "create", Err: err}
	}

	body, err := c.do(ctx, "create", http.MethodPost, c.collectionURL(scope), payload)
	if err != nil {
		return "", err
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &TransportError{Op: "create", Err: fmt.Errorf("decode response: %w", err)}
	}
	if resp.ID == "" {
		return "", &TransportError{Op: "create", Err: fmt.Errorf("response carried no id")}
	}
	return resp.ID, nil
}

// Update merges the editable fields into an existing activity.
func (c *Client) Update(ctx context.Context, scope domain.Scope, id string, update domain.ActivityUpdate) error {
	payload, err := json.Marshal(map[string]any{
		"name":     update.Name,
		"duration": update.DurationMin,
	})
	if err != nil {
		return &TransportError{Op: "update", Err: err}
	}

	_, err = c.do(ctx, "update", http.MethodPatch, c.itemURL(scope, id), payload)
	return err
}

// Delete removes an activity from the scope.
func (c *Client) Delete(ctx context.Context, scope domain.Scope, id string) error {
	_, err := c.do(ctx, "delete", http.MethodDelete, c.itemURL(scope, id), nil)
	return err
}

func (c *Client) do(ctx context.Context, op, method, url string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		observability.RecordRemoteRequest(op, err)
		return nil, &TransportError{Op: op, Err: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.RecordRemoteRequest(op, err)
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.RecordRemoteRequest(op, err)
		return nil, &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Debug("remote call rejected",
			zap.String("op", op), zap.Int("status", resp.StatusCode))
		terr := &TransportError{Op: op, Status: resp.StatusCode}
		observability.RecordRemoteRequest(op, terr)
		return nil, terr
	}

	observability.RecordRemoteRequest(op, nil)
	if string(bytes.TrimSpace(body)) == "null" {
		return nil, nil
	}
	return bytes.TrimSpace(body), nil
}
