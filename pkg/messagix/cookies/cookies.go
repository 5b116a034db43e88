package cookies

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
)

type MetaCookieName string

const (
	// MetaCookieDatr seems to be a session ID that's displayed in security settings
	MetaCookieDatr MetaCookieName = "datr"

	// FBCookieXS is the main session cookie for Facebook
	FBCookieXS MetaCookieName = "xs"
	// FBCookieCUser contains the user ID for Facebook
	FBCookieCUser MetaCookieName = "c_user"

	FBCookieSB               MetaCookieName = "sb"
	FBCookieFR               MetaCookieName = "fr"
	FBCookieWindowDimensions MetaCookieName = "wd"
)

var FBRequiredCookies = []MetaCookieName{FBCookieXS, FBCookieCUser, MetaCookieDatr}

// Cookies is the session a client sends with every request. The client only
// reads it; establishing or refreshing the session happens elsewhere.
type Cookies struct {
	values map[MetaCookieName]string
	lock   sync.RWMutex
}

func NewCookies(values map[MetaCookieName]string) *Cookies {
	c := &Cookies{}
	c.UpdateValues(values)
	return c
}

// ParseCookies parses a Cookie header style string ("a=b; c=d").
func ParseCookies(header string) (*Cookies, error) {
	values := make(map[MetaCookieName]string)
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid cookie %q", part)
		}
		values[MetaCookieName(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
	return NewCookies(values), nil
}

func (c *Cookies) UpdateValues(newValues map[MetaCookieName]string) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.values = make(map[MetaCookieName]string, len(newValues))
	for k, v := range newValues {
		c.values[k] = v
	}
}

func (c *Cookies) MarshalJSON() ([]byte, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return json.Marshal(c.values)
}

func (c *Cookies) UnmarshalJSON(data []byte) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return json.Unmarshal(data, &c.values)
}

// String formats the cookies as a Cookie header value, sorted by name.
func (c *Cookies) String() string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	out := make([]string, 0, len(c.values))
	for k, v := range c.values {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(out)
	return strings.Join(out, "; ")
}

func (c *Cookies) GetMissingCookieNames() []MetaCookieName {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return slices.DeleteFunc(slices.Clone(FBRequiredCookies), func(name MetaCookieName) bool {
		return c.values[name] != ""
	})
}

func (c *Cookies) IsLoggedIn() bool {
	return c.Get(FBCookieXS) != ""
}

func (c *Cookies) GetUserID() int64 {
	userID, _ := strconv.ParseInt(c.Get(FBCookieCUser), 10, 64)
	return userID
}

func (c *Cookies) Get(key MetaCookieName) string {
	if c == nil {
		return ""
	}
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.values[key]
}

// IsDeletedIn reports whether the response tries to delete one of the
// session cookies, which means the session was invalidated server-side.
func IsDeletedIn(resp *http.Response) (MetaCookieName, bool) {
	for _, cookie := range resp.Cookies() {
		if (cookie.Name == string(FBCookieXS) || cookie.Name == string(FBCookieCUser)) && cookie.MaxAge < 0 {
			return MetaCookieName(cookie.Name), true
		}
	}
	return "", false
}
