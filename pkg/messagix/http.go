package messagix

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"go.mau.fi/mercury-send/pkg/messagix/cookies"
	"go.mau.fi/mercury-send/pkg/messagix/methods"
	"go.mau.fi/mercury-send/pkg/messagix/types"
)

var (
	ErrTokenInvalidated         = errors.New("access token is no longer valid")
	ErrTokenInvalidatedRedirect = fmt.Errorf("%w: redirected", ErrTokenInvalidated)
	ErrCheckpointRequired       = errors.New("checkpoint required")
	ErrRequestFailed            = errors.New("failed to send request")
	ErrResponseReadFailed       = errors.New("failed to read response body")
	ErrResponseDecodeFailed     = errors.New("failed to decode response body")
	ErrTooManyRedirects         = errors.New("too many redirects")
)

func (c *Client) newRequestDefaults() *types.RequestDefaults {
	return &types.RequestDefaults{
		User:    c.userIDString(),
		A:       "1",
		Req:     methods.RequestCounter(c.requests.Add(1)),
		FbDtsg:  c.fbDtsg,
		Jazoest: c.jazoest,
	}
}

func (c *Client) checkHTTPRedirect(req *http.Request, via []*http.Request) error {
	if req.Response == nil {
		return nil
	}
	if len(via) > 5 {
		return ErrTooManyRedirects
	}
	var prevURL string
	if len(via) > 0 {
		prevURL = via[len(via)-1].URL.String()
	}
	c.logFor(req.Context()).Warn().
		Stringer("url", req.URL).
		Str("prev_url", prevURL).
		Msg("HTTP request was redirected")
	if strings.HasPrefix(req.URL.Path, "/checkpoint/") {
		return fmt.Errorf("%w: redirected to %s", ErrCheckpointRequired, req.URL.String())
	}
	if name, deleted := cookies.IsDeletedIn(req.Response); deleted {
		return fmt.Errorf("%w: %s cookie was deleted", ErrTokenInvalidated, name)
	}
	if req.URL.Path == "/login.php" || req.URL.Path == "/login/" {
		return fmt.Errorf("%w to %s", ErrTokenInvalidatedRedirect, req.URL.String())
	}
	return nil
}

// MakeRequest performs a single HTTP request. Sends are not idempotent, so
// failures are returned to the caller as-is instead of being retried.
func (c *Client) MakeRequest(ctx context.Context, url string, method string, headers http.Header, payload []byte, contentType types.ContentType) (*http.Response, []byte, error) {
	if c == nil {
		return nil, nil, ErrClientIsNil
	}
	log := c.logFor(ctx)
	start := time.Now()
	resp, respDat, err := c.makeRequestDirect(ctx, url, method, headers, payload, contentType)
	dur := time.Since(start)
	if err != nil {
		log.Err(err).
			Str("url", url).
			Str("method", method).
			Dur("duration", dur).
			Msg("Request failed")
		return nil, nil, err
	}
	log.Debug().
		Str("url", url).
		Str("method", method).
		Dur("duration", dur).
		Int("status_code", resp.StatusCode).
		Msg("Request successful")
	return resp, respDat, nil
}

func (c *Client) makeRequestDirect(ctx context.Context, url string, method string, headers http.Header, payload []byte, contentType types.ContentType) (*http.Response, []byte, error) {
	newRequest, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	if contentType != types.NONE {
		headers.Set("content-type", string(contentType))
	}

	newRequest.Header = headers

	response, err := c.http.Do(newRequest)
	defer func() {
		if response != nil && response.Body != nil {
			_ = response.Body.Close()
		}
	}()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrResponseReadFailed, err)
	}

	return response, responseBody, nil
}

func (c *Client) buildHeaders() http.Header {
	headers := http.Header{}
	headers.Set("accept", "*/*")
	headers.Set("accept-language", "en-US,en;q=0.9")
	headers.Set("user-agent", c.userAgent)
	headers.Set("origin", c.GetEndpoint("base_url"))
	headers.Set("referer", c.GetEndpoint("messages"))
	headers.Set("sec-fetch-dest", "empty")
	headers.Set("sec-fetch-mode", "cors")
	headers.Set("sec-fetch-site", "same-origin")
	if cookieStr := c.cookies.String(); cookieStr != "" {
		headers.Set("cookie", cookieStr)
	}
	return headers
}

// logFor returns the logger attached to ctx by Send, falling back to the
// client logger for calls made outside of a send.
func (c *Client) logFor(ctx context.Context) *zerolog.Logger {
	if log := zerolog.Ctx(ctx); log.GetLevel() != zerolog.Disabled {
		return log
	}
	return &c.Logger
}

// postForm merges the request defaults into the form, POSTs it and decodes
// the response envelope. Together with getForm this is the single path every
// mercury call goes through, so the error checks in decodeResponse apply to
// all of them.
func (c *Client) postForm(ctx context.Context, endpoint string, form *Form) (gjson.Result, error) {
	if err := form.SetStruct(c.newRequestDefaults()); err != nil {
		return gjson.Result{}, err
	}
	url := c.GetEndpoint(endpoint)
	_, respBody, err := c.MakeRequest(ctx, url, http.MethodPost, c.buildHeaders(), []byte(form.Encode()), types.FORM)
	if err != nil {
		return gjson.Result{}, err
	}
	return c.decodeResponse(ctx, respBody)
}

// getForm is postForm for endpoints that take the form as a query string.
func (c *Client) getForm(ctx context.Context, endpoint string, form *Form) (gjson.Result, error) {
	if err := form.SetStruct(c.newRequestDefaults()); err != nil {
		return gjson.Result{}, err
	}
	url := c.GetEndpoint(endpoint) + "?" + form.Encode()
	_, respBody, err := c.MakeRequest(ctx, url, http.MethodGet, c.buildHeaders(), nil, types.NONE)
	if err != nil {
		return gjson.Result{}, err
	}
	return c.decodeResponse(ctx, respBody)
}
