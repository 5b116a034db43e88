package messagix

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"go.mau.fi/mercury-send/pkg/messagix/types"
)

const userSearchResponse = `for (;;);{"payload":{"entries":[
	{"uid":4,"text":"Zuck","type":"user","path":"/zuck"},
	{"uid":5,"text":"Zuck Fan","type":"user","path":"/fan"}
]}}`

func TestSearchUsers(t *testing.T) {
	fs := newFakeServer(t)
	fs.handle("/ajax/typeahead/search.php", userSearchResponse)
	cli := newTestClient(t, fs)
	entries, err := cli.SearchUsers(t.Context(), "ZUCK")
	if err != nil {
		t.Fatal(err)
	}
	want := []types.UserEntry{
		{UID: "4", Name: "Zuck", Type: "user", Path: "/zuck"},
		{UID: "5", Name: "Zuck Fan", Type: "user", Path: "/fan"},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("SearchUsers() mismatch (-want +got):\n%s", diff)
	}
	search := fs.requestsTo("/ajax/typeahead/search.php")[0]
	if search.Method != http.MethodGet {
		t.Errorf("search method = %s, want GET", search.Method)
	}
	form := search.Form
	assertFormValues(t, form, map[string]string{
		"value":   "zuck",
		"viewer":  testUserID,
		"rsp":     "search",
		"context": "search",
		"__user":  testUserID,
		"fb_dtsg": "dtsg-token",
	})
	if form.Get("request_id") == "" {
		t.Error("search request has no request_id")
	}
}

func TestSendDirectMessageByName(t *testing.T) {
	fs := newFakeServer(t)
	fs.handle("/ajax/typeahead/search.php", userSearchResponse)
	cli := newTestClient(t, fs)
	_, err := cli.SendDirectMessage(t.Context(), "hi", "zuck")
	if err != nil {
		t.Fatal(err)
	}
	assertFormValues(t, fs.lastSend(t), map[string]string{
		"body":                "hi",
		"specific_to_list[0]": "fbid:4",
		"client_thread_id":    "user:4",
	})
}

func TestSendDirectMessageByID(t *testing.T) {
	fs := newFakeServer(t)
	cli := newTestClient(t, fs)
	_, err := cli.SendDirectMessage(t.Context(), "hi", "1234")
	if err != nil {
		t.Fatal(err)
	}
	if searches := fs.requestsTo("/ajax/typeahead/search.php"); len(searches) != 0 {
		t.Error("numeric user ID was searched for")
	}
	assertFormValues(t, fs.lastSend(t), map[string]string{"client_thread_id": "user:1234"})
}

func TestSendDirectMessageUnknownUser(t *testing.T) {
	fs := newFakeServer(t)
	fs.handle("/ajax/typeahead/search.php", `for (;;);{"payload":{"entries":[]}}`)
	cli := newTestClient(t, fs)
	_, err := cli.SendDirectMessage(t.Context(), "hi", "nobody")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("SendDirectMessage() error = %v, want %v", err, ErrUserNotFound)
	}
}

func TestSendDirectMessageAsync(t *testing.T) {
	fs := newFakeServer(t)
	cli := newTestClient(t, fs)
	done := make(chan error, 1)
	cli.SendDirectMessageAsync(t.Context(), "hi", "1234", func(_ *types.SendResponse, err error) {
		done <- err
	})
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("callback was not called")
	}
}

func TestSendDirectMessageAsyncRequiresCallback(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("SendDirectMessageAsync did not panic without a callback")
		}
	}()
	fs := newFakeServer(t)
	newTestClient(t, fs).SendDirectMessageAsync(t.Context(), "hi", "1234", nil)
}

func TestResolveUserIDSkipsEntriesWithoutID(t *testing.T) {
	fs := newFakeServer(t)
	fs.handle("/ajax/typeahead/search.php", `for (;;);{"payload":{"entries":[{"text":"Some Page","type":"page"},{"uid":7,"text":"Zuck","type":"user"}]}}`)
	cli := newTestClient(t, fs)
	userID, err := cli.ResolveUserID(t.Context(), "zuck")
	if err != nil {
		t.Fatal(err)
	}
	if userID != "7" {
		t.Errorf("ResolveUserID() = %q, want 7", userID)
	}

	fs.handle("/ajax/typeahead/search.php", `for (;;);{"payload":{"entries":[{"text":"Some Page","type":"page"}]}}`)
	if _, err = cli.ResolveUserID(t.Context(), "zuck"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("ResolveUserID() error = %v, want %v", err, ErrUserNotFound)
	}
}
