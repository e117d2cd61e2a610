// Package brandoo is the HTTP client of the Brandoo REST backend.
//
// Every request body is rewritten to snake_case and every response body to
// camelCase in Client.do, which is the only place the console touches the
// wire format.
package brandoo

import (
	"bytes"
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

	"github.com/go-resty/resty/v2"

	"github.com/brandoo/console/internal/apperr"
	"github.com/brandoo/console/internal/casing"
)

// Credentials are the secrets obtained at sign-in.
type Credentials struct {
	Token      string
	PrivateKey string
	UserID     string
}

// CredentialSource supplies the current credentials. It returns
// apperr.ErrNoSession when nobody is signed in.
type CredentialSource interface {
	Credentials() (Credentials, error)
}

// Recorder is notified about every write the client performs.
type Recorder interface {
	RecordWrite(ctx context.Context, method, path string, status int, err error)
}

// Options configures the client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
}

// Client talks to the Brandoo backend.
type Client struct {
	http *resty.Client
	// files sends multipart uploads and deletions. It never retries: a
	// consumed upload reader would be resent empty.
	files    *resty.Client
	creds    CredentialSource
	recorder Recorder
	logger   *slog.Logger
}

// New creates a client for the backend at opts.BaseURL.
func New(opts Options, creds CredentialSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	base := strings.TrimSuffix(opts.BaseURL, "/")
	hc := resty.New().
		SetBaseURL(base).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/json")
	files := resty.New().
		SetBaseURL(base).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{http: hc, files: files, creds: creds, logger: logger}
}

// SetRecorder installs a write recorder.
func (c *Client) SetRecorder(r Recorder) {
	c.recorder = r
}

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return fmt.Sprintf("brandoo: %s %s: status %d: %s", e.Method, e.Path, e.Status, msg)
}

// Unwrap maps the status code to the matching sentinel.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return apperr.ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return apperr.ErrUnauthorized
	case http.StatusConflict:
		return apperr.ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperr.ErrInvalidInput
	}
	return nil
}

type call struct {
	method     string
	path       string
	query      url.Values
	body       any
	file       *upload
	out        any
	privateKey bool
	anonymous  bool
	fileOp     bool
}

type upload struct {
	name   string
	reader io.Reader
}

func (c *Client) do(ctx context.Context, cl call) error {
	resp, err := c.execute(ctx, cl)
	if err != nil {
		return err
	}
	if cl.out == nil || len(bytes.TrimSpace(resp.Body())) == 0 {
		return nil
	}
	camel, err := casing.CamelJSON(resp.Body())
	if err != nil {
		return fmt.Errorf("brandoo: %s %s: %w", cl.method, cl.path, err)
	}
	if err := json.Unmarshal(camel, cl.out); err != nil {
		return fmt.Errorf("brandoo: decode %s: %w", cl.path, err)
	}
	return nil
}

// execute sends the request and turns transport failures and non-2xx
// answers into errors. The response body is left undecoded.
func (c *Client) execute(ctx context.Context, cl call) (*resty.Response, error) {
	hc := c.http
	if cl.fileOp {
		hc = c.files
	}
	req := hc.R().SetContext(ctx)

	if !cl.anonymous {
		if c.creds == nil {
			return nil, apperr.ErrNoSession
		}
		creds, err := c.creds.Credentials()
		if err != nil {
			return nil, err
		}
		req.SetAuthToken(creds.Token)
		if cl.privateKey {
			if creds.PrivateKey == "" {
				return nil, apperr.ErrNoPrivateKey
			}
			req.SetHeader("X-Private-Key", creds.PrivateKey)
		}
	}
	if len(cl.query) > 0 {
		req.SetQueryParamsFromValues(cl.query)
	}
	if cl.body != nil {
		raw, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("brandoo: encode %s: %w", cl.path, err)
		}
		snake, err := casing.SnakeJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("brandoo: encode %s: %w", cl.path, err)
		}
		req.SetHeader("Content-Type", "application/json").SetBody(snake)
	}
	if cl.file != nil {
		req.SetFileReader("file", cl.file.name, cl.file.reader)
	}

	resp, err := req.Execute(cl.method, cl.path)
	if err != nil {
		err = fmt.Errorf("brandoo: %s %s: %w", cl.method, cl.path, err)
		c.record(ctx, cl.method, cl.path, 0, err)
		return nil, err
	}
	if resp.IsError() {
		apiErr := &APIError{Method: cl.method, Path: cl.path, Status: resp.StatusCode(), Body: resp.String()}
		c.logger.Debug("brandoo: request failed",
			slog.String("method", cl.method),
			slog.String("path", cl.path),
			slog.Int("status", resp.StatusCode()))
		c.record(ctx, cl.method, cl.path, resp.StatusCode(), apiErr)
		return nil, apiErr
	}
	c.record(ctx, cl.method, cl.path, resp.StatusCode(), nil)
	return resp, nil
}

func (c *Client) record(ctx context.Context, method, path string, status int, err error) {
	if c.recorder == nil || method == http.MethodGet {
		return
	}
	c.recorder.RecordWrite(ctx, method, path, status, err)
}

// userID returns the signed-in user's id.
func (c *Client) userID() (string, error) {
	if c.creds == nil {
		return "", apperr.ErrNoSession
	}
	creds, err := c.creds.Credentials()
	if err != nil {
		return "", err
	}
	if creds.UserID == "" {
		return "", apperr.ErrNoSession
	}
	return creds.UserID, nil
}

// UserID returns the signed-in user's id.
func (c *Client) UserID() (string, error) {
	return c.userID()
}

func p(parts ...string) string {
	for i, s := range parts {
		if i%2 == 1 {
			parts[i] = url.PathEscape(s)
		}
	}
	return strings.Join(parts, "")
}

// emptyOnNotFound turns a 404 on a listing endpoint into an empty result.
func emptyOnNotFound(err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	return err
}

// StaticCredentials is a fixed CredentialSource, used by the CLI when a
// token is given on the command line and by tests.
type StaticCredentials Credentials

// Credentials implements CredentialSource.
func (s StaticCredentials) Credentials() (Credentials, error) {
	if s.Token == "" {
		return Credentials{}, apperr.ErrNoSession
	}
	return Credentials(s), nil
}
