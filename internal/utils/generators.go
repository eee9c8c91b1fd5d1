package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateReference builds a globally unique gateway reference:
// monotonic-ish millisecond timestamp plus a random suffix so two
// initiations in the same millisecond cannot collide.
func GenerateReference() string {
	suffix := strings.Split(uuid.New().String(), "-")[0]
	return fmt.Sprintf("FPB-%d-%s", time.Now().UnixMilli(), suffix)
}

// GenerateReceiptNumber builds the human-facing receipt number printed on
// receipts and emails.
func GenerateReceiptNumber() string {
	suffix := strings.Split(uuid.New().String(), "-")[0]
	return fmt.Sprintf("RCT-%s-%s", time.Now().Format("20060102"), strings.ToUpper(suffix))
}
