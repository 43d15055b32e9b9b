package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"cheatdb/internal/config"
	"cheatdb/internal/logging"
)

// errInvalidUserID is the users.get error code for an unknown id or handle.
const errInvalidUserID = 113

// APIError is a failure reported in the directory's response body.
type APIError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("directory api error %d: %s", e.Code, e.Message)
}

type user struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	ScreenName  string `json:"screen_name"`
	Deactivated string `json:"deactivated"`
}

type usersResponse struct {
	Response []user   `json:"response"`
	Error    *APIError `json:"error"`
}

// Client looks accounts up through the VK users.get method.
type Client struct {
	token      string
	baseURL    string
	version    string
	httpClient *http.Client
	logger     *slog.Logger
	group      singleflight.Group
}

var _ Lookup = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL points the client at a different API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithAPIVersion sets the API version parameter.
func WithAPIVersion(version string) Option {
	return func(c *Client) {
		if version = strings.TrimSpace(version); version != "" {
			c.version = version
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a directory client.
func New(token string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("directory api token required")
	}
	client := &Client{
		token:      token,
		baseURL:    "https://api.vk.com/method",
		version:    "5.131",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "directory")
	return client, nil
}

// NewFromConfig creates a client from the [directory] configuration section.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("directory: config is required")
	}
	return New(cfg.Directory.APIToken,
		WithBaseURL(cfg.Directory.BaseURL),
		WithAPIVersion(cfg.Directory.APIVersion),
		WithHTTPClient(&http.Client{Timeout: cfg.DirectoryTimeout()}),
		WithLogger(logger),
	)
}

// Lookup resolves handleOrID. Concurrent lookups of the same value share a
// single request.
func (c *Client) Lookup(ctx context.Context, handleOrID string) (Entry, error) {
	key := strings.ToLower(strings.TrimSpace(handleOrID))
	if key == "" {
		return Entry{}, nil
	}
	v, err, shared := c.group.Do(key, func() (any, error) {
		return c.fetch(ctx, key)
	})
	if err != nil {
		return Entry{}, err
	}
	if shared {
		c.logger.Debug("directory lookup coalesced", logging.String("query", key))
	}
	return v.(Entry), nil
}

func (c *Client) fetch(ctx context.Context, key string) (Entry, error) {
	endpoint, err := url.Parse(c.baseURL + "/users.get")
	if err != nil {
		return Entry{}, fmt.Errorf("parse endpoint: %w", err)
	}
	params := url.Values{}
	params.Set("user_ids", key)
	params.Set("fields", "screen_name")
	params.Set("access_token", c.token)
	params.Set("v", c.version)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Entry{}, fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return Entry{}, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Entry{}, fmt.Errorf("directory returned %d (latency=%v)", resp.StatusCode, latency)
	}

	var payload usersResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Entry{}, fmt.Errorf("decode directory response: %w", err)
	}
	if payload.Error != nil {
		if payload.Error.Code == errInvalidUserID {
			c.logger.Debug("directory value unknown", logging.String("query", key))
			return Entry{}, nil
		}
		return Entry{}, payload.Error
	}
	c.logger.Debug("directory lookup",
		logging.String("query", key),
		logging.Int("results", len(payload.Response)),
		logging.Duration("latency", latency),
	)
	if len(payload.Response) == 0 {
		return Entry{}, nil
	}
	return entryFromUser(payload.Response[0]), nil
}

func entryFromUser(u user) Entry {
	handle := strings.ToLower(u.ScreenName)
	// Accounts without a custom handle report "id<N>" as their screen name.
	if handle == "id"+strconv.FormatInt(u.ID, 10) {
		handle = ""
	}
	return Entry{
		ID:     u.ID,
		Handle: handle,
		Name:   strings.TrimSpace(u.FirstName + " " + u.LastName),
		Banned: u.Deactivated == "banned" || u.Deactivated == "deleted",
	}
}
