// Package bridge owns the HTTP connection to the playback device. It
// translates validated sequence requests into wire calls against the
// device's REST API and classifies failures into domain errors.
package bridge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/dorcha-inc/cadenza/internal/core"
	"github.com/dorcha-inc/cadenza/internal/midi"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	sequenceEndpoint = "/sequence"
	statusEndpoint   = "/status"

	// DefaultTimeout is the flat per-request deadline covering
	// connect and response.
	DefaultTimeout = 5 * time.Second
)

// Client is the single long-lived HTTP client for the device. It holds no
// per-request state; the embedded http.Client is safe for concurrent use,
// so no additional locking is applied around calls.
type Client struct {
	baseURL string
	client  *http.Client
	clock   clockwork.Clock
}

// New creates a device client from a base URL and a flat per-request
// timeout. The URL must carry an explicit http or https scheme; the device
// transport needs an unambiguous absolute address, so a missing scheme is
// a configuration error rather than something to normalize away. No
// connectivity check is performed.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	return NewWithClock(baseURL, timeout, clockwork.NewRealClock())
}

// NewWithClock creates a device client with a custom clock.
// This is useful for testing round-trip duration reporting.
func NewWithClock(baseURL string, timeout time.Duration, clock clockwork.Clock) (*Client, error) {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("device base URL must include the scheme, e.g. http://192.168.1.42, got %q", baseURL)
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		clock:   clock,
	}, nil
}

// BaseURL returns the configured device address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases the underlying connections. Call exactly once at process
// shutdown, after successful construction.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}

// SubmitSequence uploads a validated sequence to the device and returns
// the device's JSON acknowledgement verbatim. The device, not this client,
// defines the acknowledgement schema.
func (c *Client) SubmitSequence(ctx context.Context, request *midi.SequenceRequest) (map[string]any, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sequence request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sequenceEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.roundTrip(httpReq)
	if err != nil {
		return nil, err
	}
	defer core.LogDeferredError(resp.Body.Close)

	if resp.StatusCode == http.StatusBadRequest {
		return nil, &RejectionError{Detail: readDetail(resp)}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, newStatusError(resp)
	}

	return decodeResult(resp.Body)
}

// Status queries the device's transport and network status. Unlike
// SubmitSequence there is no invalid-body concept, so any non-2xx status
// is classified the same way.
func (c *Client) Status(ctx context.Context) (map[string]any, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+statusEndpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.roundTrip(httpReq)
	if err != nil {
		return nil, err
	}
	defer core.LogDeferredError(resp.Body.Close)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, newStatusError(resp)
	}

	return decodeResult(resp.Body)
}

// roundTrip performs one HTTP round trip, mapping transport-level failures
// (timeout, refused connection, DNS) to UnavailableError. Retrying is a
// caller decision.
func (c *Client) roundTrip(req *http.Request) (*http.Response, error) {
	start := c.clock.Now()
	resp, err := c.client.Do(req)
	duration := c.clock.Since(start)

	if err != nil {
		zap.L().Debug("Device round trip failed",
			zap.String("path", req.URL.Path),
			zap.Duration("duration", duration),
			zap.Error(err))
		return nil, &UnavailableError{BaseURL: c.baseURL, Err: err}
	}

	zap.L().Debug("Device round trip",
		zap.String("path", req.URL.Path),
		zap.Duration("duration", duration),
		zap.Int("status", resp.StatusCode))

	return resp, nil
}

func decodeResult(body io.Reader) (map[string]any, error) {
	var result map[string]any
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode device response: %w", err)
	}
	return result, nil
}

// readDetail extracts the device's error text from a response body,
// falling back to the status line when the body is empty or unreadable.
func readDetail(resp *http.Response) string {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.Status
	}
	detail := strings.TrimSpace(string(data))
	if detail == "" {
		return resp.Status
	}
	return detail
}
