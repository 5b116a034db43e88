package types

import (
	"errors"
	"fmt"
)

// ErrorResponse is the error envelope of a mercury response. Any response
// carrying a non-zero error code is treated as a failure, whatever the HTTP
// status was.
type ErrorResponse struct {
	ErrorCode        int    `json:"error,omitempty"`
	ErrorSummary     string `json:"errorSummary,omitempty"`
	ErrorDescription string `json:"errorDescription,omitempty"`
	RedirectTo       string `json:"redirectTo,omitempty"`
}

var (
	ErrNotLoggedIn      = &ErrorResponse{ErrorCode: 1357001}
	ErrPleaseReloadPage = &ErrorResponse{ErrorCode: 1357004}
)

func (er *ErrorResponse) Is(other error) bool {
	var otherResp *ErrorResponse
	return errors.As(other, &otherResp) && er.ErrorCode == otherResp.ErrorCode
}

func (er *ErrorResponse) Error() string {
	if er.ErrorDescription == "" {
		return fmt.Sprintf("%d: %s", er.ErrorCode, er.ErrorSummary)
	}
	return fmt.Sprintf("%d: %s", er.ErrorCode, er.ErrorDescription)
}
