package shared

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStampSequenceFormat(t *testing.T) {
	seq := NewStampSequence("JNS")
	require.Regexp(t, regexp.MustCompile(`^JNS\d{14}$`), seq.Next())
}

func TestStampSequenceUniqueWithinSecond(t *testing.T) {
	fixed := time.Date(2026, 5, 1, 9, 30, 15, 0, time.UTC)
	seq := NewStampSequenceWithClock("INV-", func() time.Time { return fixed })

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := seq.Next()
		require.False(t, seen[id], id)
		seen[id] = true
	}
	require.Equal(t, "INV-20260501093015", NewStampSequenceWithClock("INV-", func() time.Time { return fixed }).Next())
}
