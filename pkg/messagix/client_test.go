package messagix

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"go.mau.fi/mercury-send/pkg/messagix/cookies"
	"go.mau.fi/mercury-send/pkg/messagix/types"
)

const testUserID = "100001"

type recordedRequest struct {
	Method string
	Path   string
	Form   url.Values
	Files  map[string][]byte
	Header http.Header
}

type fakeServer struct {
	*httptest.Server

	lock     sync.Mutex
	requests []recordedRequest
	handlers map[string]http.HandlerFunc
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{handlers: make(map[string]http.HandlerFunc)}
	fs.Server = httptest.NewServer(http.HandlerFunc(fs.serveHTTP))
	t.Cleanup(fs.Close)
	fs.handle("/messaging/send/", `for (;;);{"__ar":1,"payload":{"actions":[{"message_id":"mid.$abc","thread_fbid":"555","timestamp":1700000000000}]}}`)
	return fs
}

func (fs *fakeServer) handle(path, response string) {
	fs.handleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, response)
	})
}

func (fs *fakeServer) handleFunc(path string, fn http.HandlerFunc) {
	fs.lock.Lock()
	fs.handlers[path] = fn
	fs.lock.Unlock()
}

func (fs *fakeServer) serveHTTP(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Header: r.Header.Clone(), Files: make(map[string][]byte)}
	if err := r.ParseMultipartForm(1 << 20); err == nil {
		rec.Form = url.Values(r.MultipartForm.Value)
		for name, files := range r.MultipartForm.File {
			file, err := files[0].Open()
			if err == nil {
				rec.Files[name], _ = io.ReadAll(file)
				_ = file.Close()
			}
			rec.Form.Set(name+".filename", files[0].Filename)
			rec.Form.Set(name+".content_type", files[0].Header.Get("Content-Type"))
		}
	} else if err = r.ParseForm(); err == nil {
		rec.Form = r.Form
	}
	fs.lock.Lock()
	fs.requests = append(fs.requests, rec)
	handler, ok := fs.handlers[r.URL.Path]
	fs.lock.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	handler(w, r)
}

func (fs *fakeServer) requestsTo(path string) []recordedRequest {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	var out []recordedRequest
	for _, req := range fs.requests {
		if req.Path == path {
			out = append(out, req)
		}
	}
	return out
}

func (fs *fakeServer) requestCount() int {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return len(fs.requests)
}

func (fs *fakeServer) lastSend(t *testing.T) url.Values {
	t.Helper()
	sends := fs.requestsTo("/messaging/send/")
	if len(sends) == 0 {
		t.Fatal("no request was sent to the send endpoint")
	}
	return sends[len(sends)-1].Form
}

func newTestClient(t *testing.T, fs *fakeServer) *Client {
	t.Helper()
	session := cookies.NewCookies(map[cookies.MetaCookieName]string{
		cookies.FBCookieCUser:  testUserID,
		cookies.FBCookieXS:     "xs-value",
		cookies.MetaCookieDatr: "datr-value",
	})
	cli, err := NewClient(session, zerolog.New(zerolog.NewTestWriter(t)), &Config{
		BaseURL: fs.URL,
		FbDtsg:  "dtsg-token",
	})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return cli
}

func assertFormValues(t *testing.T, form url.Values, want map[string]string) {
	t.Helper()
	for key, value := range want {
		if !form.Has(key) {
			t.Errorf("form is missing %s", key)
		} else if got := form.Get(key); got != value {
			t.Errorf("form[%s] = %q, want %q", key, got, value)
		}
	}
}

func TestNewClientRequiresUserID(t *testing.T) {
	_, err := NewClient(cookies.NewCookies(nil), zerolog.Nop(), nil)
	if err == nil {
		t.Fatal("expected error for session without c_user")
	}
}

func TestNewClientDefaultsToFreeFacebook(t *testing.T) {
	session := cookies.NewCookies(map[cookies.MetaCookieName]string{cookies.FBCookieCUser: testUserID})
	cli, err := NewClient(session, zerolog.Nop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if cli.Platform != types.FacebookFree {
		t.Errorf("Platform = %s, want %s", cli.Platform, types.FacebookFree)
	}
	if got, want := cli.GetEndpoint("send"), "https://free.facebook.com/messaging/send/"; got != want {
		t.Errorf("send endpoint = %q, want %q", got, want)
	}
}

func TestRequestDefaults(t *testing.T) {
	fs := newFakeServer(t)
	cli := newTestClient(t, fs)
	_, err := cli.Send(t.Context(), &Message{Sticker: "1", Target: ThreadTarget("9")})
	if err != nil {
		t.Fatal(err)
	}
	_, err = cli.Send(t.Context(), &Message{Sticker: "2", Target: ThreadTarget("9")})
	if err != nil {
		t.Fatal(err)
	}
	sends := fs.requestsTo("/messaging/send/")
	for i, req := range sends {
		assertFormValues(t, req.Form, map[string]string{
			"__user":  testUserID,
			"__a":     "1",
			"__req":   fmt.Sprint(i + 1),
			"fb_dtsg": "dtsg-token",
		})
		if req.Header.Get("cookie") == "" {
			t.Error("request was sent without cookies")
		}
	}
}

func TestInsecureSkipVerifySurvivesSetHTTP(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `for (;;);{"payload":{"actions":[{"message_id":"mid.$tls","thread_fbid":"1"}]}}`)
	}))
	t.Cleanup(srv.Close)
	session := cookies.NewCookies(map[cookies.MetaCookieName]string{cookies.FBCookieCUser: testUserID})
	newClient := func(insecure bool) *Client {
		cli, err := NewClient(session, zerolog.New(zerolog.NewTestWriter(t)), &Config{
			BaseURL:            srv.URL,
			InsecureSkipVerify: insecure,
		})
		if err != nil {
			t.Fatal(err)
		}
		return cli
	}
	msg := &Message{Sticker: "1", Target: ThreadTarget("1")}

	cli := newClient(true)
	if _, err := cli.Send(t.Context(), msg); err != nil {
		t.Fatalf("Send() with InsecureSkipVerify: %v", err)
	}
	if err := cli.SetProxy(""); err != nil {
		t.Fatal(err)
	}
	if _, err := cli.Send(t.Context(), msg); err != nil {
		t.Fatalf("Send() after SetProxy lost InsecureSkipVerify: %v", err)
	}

	if _, err := newClient(false).Send(t.Context(), msg); !errors.Is(err, ErrRequestFailed) {
		t.Errorf("Send() to self-signed server error = %v, want %v", err, ErrRequestFailed)
	}
}
