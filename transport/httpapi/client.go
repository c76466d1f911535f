package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	goCheckin "github.com/MrEthical07/goCheckin"
	"go.uber.org/zap"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "goCheckin/1.0"
	maxBodySize      = 1 << 20
)

// ErrUnexpectedStatus is returned for responses that are neither a success nor an
// explicit rejection.
var ErrUnexpectedStatus = errors.New("unexpected http status")

// ErrMalformedResponse is returned when a response body is not the expected JSON.
var ErrMalformedResponse = errors.New("malformed response body")

// Config configures a [Client].
type Config struct {
	// BaseURL is the service root, e.g. https://api.example.org. Required.
	BaseURL string
	// Timeout bounds each request when HTTPClient is nil.
	Timeout time.Duration
	// UserAgent overrides the User-Agent header.
	UserAgent string
	// HTTPClient replaces the default client.
	HTTPClient *http.Client
	// Logger receives request-level debug and error logs. Nil disables logging.
	Logger *zap.Logger
}

// Client talks to the check-in service.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	userAgent  string
	logger     *zap.Logger
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("httpapi BaseURL must not be empty")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("httpapi BaseURL invalid: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("httpapi BaseURL scheme %q not supported", base.Scheme)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		base:       base,
		httpClient: hc,
		userAgent:  ua,
		logger:     logger.Named("httpapi"),
	}, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success *bool           `json:"success"`
	User    json.RawMessage `json:"user"`
	Token   string          `json:"token"`
	Message string          `json:"message"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Login posts the credentials to /auth/login.
//
// A 2xx response is a success unless it carries "success": false; a missing token is
// left for the caller to reject. A 4xx response is an explicit rejection carrying the
// server message.
func (c *Client) Login(ctx context.Context, email, password string) (goCheckin.AuthResponse, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return goCheckin.AuthResponse{}, err
	}

	status, raw, err := c.do(ctx, http.MethodPost, c.endpoint("auth", "login"), bytes.NewReader(body), "")
	if err != nil {
		return goCheckin.AuthResponse{}, err
	}

	var resp loginResponse
	switch {
	case status >= 200 && status < 300:
		if err := json.Unmarshal(raw, &resp); err != nil {
			return goCheckin.AuthResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		success := resp.Success == nil || *resp.Success
		return goCheckin.AuthResponse{
			Success: success,
			User:    resp.User,
			Token:   resp.Token,
			Message: resp.Message,
		}, nil
	case status >= 400 && status < 500:
		// Rejections may come with an empty or non-JSON body.
		_ = json.Unmarshal(raw, &resp)
		c.logger.Debug("login rejected", zap.Int("http_status", status))
		return goCheckin.AuthResponse{Success: false, Message: resp.Message}, nil
	default:
		return goCheckin.AuthResponse{}, c.statusError("login", status)
	}
}

// Verify checks ticketID at /scan-qr/{ticketID} with cred as bearer token.
func (c *Client) Verify(ctx context.Context, ticketID uint64, cred goCheckin.Credential) (goCheckin.VerifyResponse, error) {
	endpoint := c.endpoint("scan-qr", strconv.FormatUint(ticketID, 10))
	status, raw, err := c.do(ctx, http.MethodGet, endpoint, nil, cred.Token())
	if err != nil {
		return goCheckin.VerifyResponse{}, err
	}

	var resp verifyResponse
	switch {
	case status >= 200 && status < 300:
		if err := json.Unmarshal(raw, &resp); err != nil {
			return goCheckin.VerifyResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return goCheckin.VerifyResponse{Success: resp.Success, Message: resp.Message}, nil
	case status >= 400 && status < 500:
		_ = json.Unmarshal(raw, &resp)
		c.logger.Debug("ticket rejected", zap.Uint64("ticket_id", ticketID), zap.Int("http_status", status))
		return goCheckin.VerifyResponse{Success: false, Message: resp.Message}, nil
	default:
		return goCheckin.VerifyResponse{}, c.statusError("verify", status)
	}
}

func (c *Client) endpoint(segments ...string) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/")
	for _, s := range segments {
		u.Path += "/" + url.PathEscape(s)
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, token string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", zap.String("method", method), zap.Error(err))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, ctxErr
		}
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func (c *Client) statusError(op string, status int) error {
	c.logger.Error("unexpected status", zap.String("op", op), zap.Int("http_status", status))
	return fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, op, status)
}
