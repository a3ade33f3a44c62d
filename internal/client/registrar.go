// Package client talks to the external registrar backend: the REST system
// of record for courses, enrollments, students and payments. The portal's
// session state stays authoritative during a session; callers individually
// decide whether a registrar failure is best-effort (logged) or surfaced.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/appdev-aems/portal-api/pkg/errors"
)

// Registrar is an HTTP client for the enrollment backend.
type Registrar struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	observe func(outcome string)
}

// New constructs a Registrar client with an explicit request timeout.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Registrar {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Registrar{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// SetObserver installs a per-request outcome callback ("ok", "error" or
// "canceled"), used for metrics. Call before the client is shared.
func (c *Registrar) SetObserver(fn func(outcome string)) {
	c.observe = fn
}

func (c *Registrar) observed(err error) error {
	if c.observe != nil {
		switch {
		case err == nil:
			c.observe("ok")
		case IsCanceled(err):
			c.observe("canceled")
		default:
			c.observe("error")
		}
	}
	return err
}

// IsCanceled reports whether err is a benign context abort rather than a
// real upstream failure. Callers suppress these.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Registrar) do(ctx context.Context, method, path string, query url.Values, body, dest interface{}) error {
	return c.observed(c.roundTrip(ctx, method, path, query, body, dest))
}

func (c *Registrar) roundTrip(ctx context.Context, method, path string, query url.Values, body, dest interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode request body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if IsCanceled(err) {
			return err
		}
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "registrar unreachable")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return appErrors.Clone(appErrors.ErrNotFound, "registrar resource not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return appErrors.Wrap(
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
			appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status,
			fmt.Sprintf("registrar returned %d for %s %s", resp.StatusCode, method, path),
		)
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to decode registrar response")
	}
	return nil
}
