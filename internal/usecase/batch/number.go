package batch

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

const batchNumberAttempts = 5

// newBatchNumber returns B-YYYYMMDD-XXXXX with five random hex digits.
func newBatchNumber(day time.Time) (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate batch number: %w", err)
	}
	suffix := strings.ToUpper(hex.EncodeToString(buf))[:5]
	return fmt.Sprintf("B-%s-%s", day.Format("20060102"), suffix), nil
}
