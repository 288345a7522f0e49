package subsonic

import (
	"context"
	"crypto/md5" //nolint:gosec // the Subsonic API mandates md5 token auth
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// apiVersion is the Subsonic API version this client requests.
// 1.13.0+ is required for salted-token authentication.
const apiVersion = "1.16.1"

// defaultTimeout bounds a single API call when the config sets none.
const defaultTimeout = 10 * time.Second

// saltLength is the number of random bytes used for the auth salt.
const saltLength = 8

// Domain errors for the Subsonic bridge package.
var (
	// ErrUnavailable is returned when the server cannot be reached or
	// answers with a non-OK HTTP status.
	ErrUnavailable = errors.New("subsonic: server unavailable")

	// ErrAPIFailed is returned when the server answers but reports a
	// failed status (bad credentials, unsupported version, ...).
	ErrAPIFailed = errors.New("subsonic: api call failed")
)

// Config holds Subsonic connection settings.
type Config struct {
	// URL is the server base URL, e.g. "http://music.local:4533".
	URL string

	// Username and Password authenticate against the server. The
	// password is never sent directly; a salted md5 token is used.
	Username string
	Password string

	// Client is the client name reported to the server.
	Client string

	// Timeout bounds a single API call. Default: 10 seconds.
	Timeout time.Duration
}

// Client is a minimal Subsonic REST client.
//
// All methods are safe for concurrent use; the underlying http.Client
// handles connection pooling.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
}

// New creates a Subsonic client. It validates the configuration but
// performs no network I/O; use Ping to verify reachability.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: url is required", ErrAPIFailed)
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrAPIFailed)
	}
	if cfg.Client == "" {
		cfg.Client = "soundbridge"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &Client{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// apiResponse is the envelope every Subsonic endpoint returns.
type apiResponse struct {
	SubsonicResponse struct {
		Status  string `json:"status"`
		Version string `json:"version"`
		Error   *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"subsonic-response"`
}

// authParams builds the salted-token auth query parameters.
func (c *Client) authParams() (url.Values, error) {
	saltBytes := make([]byte, saltLength)
	if _, err := rand.Read(saltBytes); err != nil {
		return nil, fmt.Errorf("%w: generate salt: %w", ErrAPIFailed, err)
	}
	salt := hex.EncodeToString(saltBytes)

	sum := md5.Sum([]byte(c.cfg.Password + salt)) //nolint:gosec // Subsonic token scheme
	token := hex.EncodeToString(sum[:])

	params := url.Values{}
	params.Set("u", c.cfg.Username)
	params.Set("t", token)
	params.Set("s", salt)
	params.Set("v", apiVersion)
	params.Set("c", c.cfg.Client)
	params.Set("f", "json")
	return params, nil
}

// call performs a GET against a rest/ endpoint and decodes the envelope.
func (c *Client) call(ctx context.Context, endpoint string) (*apiResponse, error) {
	params, err := c.authParams()
	if err != nil {
		return nil, err
	}

	reqURL := fmt.Sprintf("%s/rest/%s?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrAPIFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining for connection reuse
		return nil, fmt.Errorf("%w: http status %d", ErrUnavailable, resp.StatusCode)
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrAPIFailed, err)
	}

	if envelope.SubsonicResponse.Status != "ok" {
		if e := envelope.SubsonicResponse.Error; e != nil {
			return nil, fmt.Errorf("%w: %s (code %d)", ErrAPIFailed, e.Message, e.Code)
		}
		return nil, fmt.Errorf("%w: status %q", ErrAPIFailed, envelope.SubsonicResponse.Status)
	}

	return &envelope, nil
}

// Ping verifies connectivity and credentials against the server.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, "ping.view")
	return err
}

// IsAvailable reports whether the server currently answers a ping.
func (c *Client) IsAvailable(ctx context.Context) bool {
	return c.Ping(ctx) == nil
}
