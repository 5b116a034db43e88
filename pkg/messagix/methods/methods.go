package methods

import (
	"math/rand/v2"
	"strconv"
	"time"
)

const otidRandomBits = 22

// GenerateOfflineThreadingID returns a client-side correlation token for one
// outgoing message: the current unix millisecond timestamp shifted left by 22
// bits, with the low bits filled randomly.
func GenerateOfflineThreadingID() int64 {
	return generateOfflineThreadingID(time.Now())
}

func generateOfflineThreadingID(now time.Time) int64 {
	random := rand.Int64N(1 << otidRandomBits)
	return now.UnixMilli()<<otidRandomBits | random
}

func GenerateTimestamp() int64 {
	return time.Now().UnixMilli()
}

// GenerateJazoest computes the jazoest request field, which is "2" followed
// by the sum of the character codes of the fb_dtsg token.
func GenerateJazoest(fbDtsg string) string {
	if fbDtsg == "" {
		return ""
	}
	var sum int
	for _, char := range fbDtsg {
		sum += int(char)
	}
	return "2" + strconv.Itoa(sum)
}

// RequestCounter formats an ajax request sequence number the way the web
// client does (base 36).
func RequestCounter(n int64) string {
	return strconv.FormatInt(n, 36)
}
