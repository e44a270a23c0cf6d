package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
)

// ReceiptNumber formats the display number RCT-<year>-<last 6 digits of t in epoch ms>.
// It is not unique and never used to deduplicate.
func ReceiptNumber(t time.Time) string {
	ms := strconv.FormatInt(t.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return fmt.Sprintf("RCT-%04d-%s", t.Year(), ms)
}

func newReceiptID(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), ulid.DefaultEntropy()).String()
}
