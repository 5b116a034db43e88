package messagix

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"go.mau.fi/mercury-send/pkg/messagix/types"
)

func TestFormKey(t *testing.T) {
	tests := []struct {
		root string
		path []any
		want string
	}{
		{"body", nil, "body"},
		{"specific_to_list", []any{2}, "specific_to_list[2]"},
		{"message_batch", []any{0, "attachment", "fbid_image"}, "message_batch[0][attachment][fbid_image]"},
		{"shareable_attachment", []any{"share_params", "images", 0}, "shareable_attachment[share_params][images][0]"},
	}
	for _, tt := range tests {
		if got := FormKey(tt.root, tt.path...); got != tt.want {
			t.Errorf("FormKey(%q, %v) = %q, want %q", tt.root, tt.path, got, tt.want)
		}
	}
}

func TestFormKeyUnsupportedPart(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("FormKey did not panic on a float path part")
		}
	}()
	FormKey("root", 1.5)
}

func TestFormOrder(t *testing.T) {
	form := NewForm().
		Set("b", "1").
		Set("a", "2").
		SetBool("c", true)
	form.Set("b", "3")
	if diff := cmp.Diff([]string{"b", "a", "c"}, form.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if got, want := form.Encode(), "b=3&a=2&c=true"; got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestFormEncodeEscapes(t *testing.T) {
	form := NewForm().Set(FormKey("mentions", 0), `[{"tag":"@a b"}]`)
	want := "mentions%5B0%5D=%5B%7B%22tag%22%3A%22%40a+b%22%7D%5D"
	if got := form.Encode(); got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestFormSetStruct(t *testing.T) {
	form := NewForm().Set("sticker_id", "369239263222822")
	err := form.SetStruct(&types.MessageEnvelope{
		Client:             "mercury",
		ActionType:         "ma-type:user-generated-message",
		Author:             "fbid:1",
		Source:             "source:chat:web",
		OfflineThreadingID: 42,
		Timestamp:          1700000000000,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"sticker_id",
		"client",
		"message_batch[0][action_type]",
		"message_batch[0][author]",
		"message_batch[0][offline_threading_id]",
		"message_batch[0][source]",
		"message_batch[0][timestamp]",
	}
	if diff := cmp.Diff(want, form.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	if form.Get("message_batch[0][offline_threading_id]") != "42" {
		t.Errorf("offline_threading_id = %q", form.Get("message_batch[0][offline_threading_id]"))
	}
}
