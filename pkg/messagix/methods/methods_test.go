package methods

import (
	"testing"
	"time"
)

func TestGenerateOfflineThreadingID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	for i := 0; i < 100; i++ {
		otid := generateOfflineThreadingID(now)
		if got := otid >> otidRandomBits; got != now.UnixMilli() {
			t.Fatalf("timestamp of %d = %d, want %d", otid, got, now.UnixMilli())
		}
		if otid <= 0 {
			t.Fatalf("offline threading ID must be positive, got %d", otid)
		}
	}
}

func TestGenerateJazoest(t *testing.T) {
	if got := GenerateJazoest(""); got != "" {
		t.Errorf("GenerateJazoest(\"\") = %q, want empty", got)
	}
	// 'A' + 'B' = 65 + 66
	if got := GenerateJazoest("AB"); got != "2131" {
		t.Errorf("GenerateJazoest(\"AB\") = %q, want 2131", got)
	}
}

func TestRequestCounter(t *testing.T) {
	cases := map[int64]string{1: "1", 10: "a", 36: "10"}
	for in, want := range cases {
		if got := RequestCounter(in); got != want {
			t.Errorf("RequestCounter(%d) = %q, want %q", in, got, want)
		}
	}
}
