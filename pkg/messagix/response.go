package messagix

import (
	"bytes"
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"go.mau.fi/mercury-send/pkg/messagix/types"
)

var antiJSPrefix = []byte("for (;;);")

// decodeResponse strips the anti-JSON-hijacking prefix and checks the
// envelope. A response with an error field is a failure even if the HTTP
// status was 200.
func (c *Client) decodeResponse(ctx context.Context, respBody []byte) (gjson.Result, error) {
	jsonData := bytes.TrimSpace(bytes.TrimPrefix(bytes.TrimSpace(respBody), antiJSPrefix))
	if !gjson.ValidBytes(jsonData) {
		c.logFor(ctx).Debug().Bytes("response_body", respBody).Msg("Mercury response (invalid JSON)")
		return gjson.Result{}, fmt.Errorf("%w: response is not valid JSON", ErrResponseDecodeFailed)
	}
	c.logFor(ctx).Trace().RawJSON("response_body", jsonData).Msg("Mercury response")

	parsed := gjson.ParseBytes(jsonData)
	if errResp := parseErrorResponse(parsed); errResp != nil {
		if errResp.Is(types.ErrNotLoggedIn) {
			return gjson.Result{}, fmt.Errorf("%w: %w", ErrTokenInvalidated, errResp)
		}
		return gjson.Result{}, errResp
	}
	return parsed, nil
}

func parseErrorResponse(parsed gjson.Result) *types.ErrorResponse {
	errField := parsed.Get("error")
	if !errField.Exists() {
		return nil
	}
	resp := &types.ErrorResponse{
		ErrorSummary:     parsed.Get("errorSummary").String(),
		ErrorDescription: parsed.Get("errorDescription").String(),
		RedirectTo:       parsed.Get("redirectTo").String(),
	}
	switch errField.Type {
	case gjson.Null, gjson.False:
		return nil
	case gjson.Number:
		if errField.Int() == 0 {
			return nil
		}
		resp.ErrorCode = int(errField.Int())
	case gjson.String:
		if errField.Str == "" {
			return nil
		}
		resp.ErrorSummary = errField.Str
	case gjson.JSON:
		resp.ErrorCode = int(errField.Get("code").Int())
		if summary := errField.Get("message").String(); summary != "" {
			resp.ErrorSummary = summary
		} else {
			resp.ErrorSummary = errField.Raw
		}
	default:
		resp.ErrorSummary = errField.String()
	}
	return resp
}
