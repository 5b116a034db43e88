package messagix

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"go.mau.fi/mercury-send/pkg/messagix/types"
)

// SearchUsers looks up users by name through the typeahead endpoint, which
// only answers GET requests.
func (c *Client) SearchUsers(ctx context.Context, name string) ([]types.UserEntry, error) {
	if c == nil {
		return nil, ErrClientIsNil
	}
	form := NewForm()
	err := form.SetStruct(&types.UserSearchForm{
		Value:     strings.ToLower(name),
		Viewer:    c.userIDString(),
		RSP:       "search",
		Context:   "search",
		Path:      "/home.php",
		RequestID: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}
	parsed, err := c.getForm(ctx, "user_search", form)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	var entries []types.UserEntry
	parsed.Get("payload.entries").ForEach(func(_, entry gjson.Result) bool {
		entries = append(entries, types.UserEntry{
			UID:  entry.Get("uid").String(),
			Name: entry.Get("text").String(),
			Type: entry.Get("type").String(),
			Path: entry.Get("path").String(),
		})
		return true
	})
	return entries, nil
}

// SendDirectMessage sends a text to a user given either their numeric ID or
// a name. Names are resolved with SearchUsers and the first match is used.
//
// Deprecated: resolve the user yourself and use Send with a UserTarget.
func (c *Client) SendDirectMessage(ctx context.Context, body, nameOrUserID string) (*types.SendResponse, error) {
	if c == nil {
		return nil, ErrClientIsNil
	}
	c.Logger.Warn().Msg("SendDirectMessage is deprecated")
	userID, err := c.ResolveUserID(ctx, nameOrUserID)
	if err != nil {
		return nil, err
	}
	return c.Send(ctx, &Message{Body: body, Target: UserTarget(userID)})
}

// SendDirectMessageAsync is the asynchronous form of SendDirectMessage. It
// panics if callback is nil, as there would be nowhere to report the result.
//
// Deprecated: use SendAsync with a UserTarget.
func (c *Client) SendDirectMessageAsync(ctx context.Context, body, nameOrUserID string, callback func(*types.SendResponse, error)) {
	if callback == nil {
		panic("messagix: callback is required for SendDirectMessageAsync")
	}
	go func() {
		callback(c.SendDirectMessage(ctx, body, nameOrUserID))
	}()
}

// ResolveUserID returns nameOrUserID as-is if it is numeric, otherwise the
// ID of the first search result for it.
func (c *Client) ResolveUserID(ctx context.Context, nameOrUserID string) (string, error) {
	if c == nil {
		return "", ErrClientIsNil
	}
	if _, err := strconv.ParseInt(nameOrUserID, 10, 64); err == nil {
		return nameOrUserID, nil
	}
	entries, err := c.SearchUsers(ctx, nameOrUserID)
	if err != nil {
		return "", err
	}
	// TODO pick the entry whose name matches best instead of the first one
	for _, entry := range entries {
		if entry.UID != "" {
			c.logFor(ctx).Debug().
				Str("user_id", entry.UID).
				Str("name", entry.Name).
				Msg("Resolved user name")
			return entry.UID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUserNotFound, nameOrUserID)
}
