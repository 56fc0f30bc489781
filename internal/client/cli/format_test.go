package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatFileSize(t *testing.T) {
	tests := map[int64]string{
		0:                "0 Bytes",
		1:                "1 Bytes",
		1023:             "1023 Bytes",
		1024:             "1 KB",
		1536:             "1.5 KB",
		1234567:          "1.18 MB",
		10 << 20:         "10 MB",
		3 << 30:          "3 GB",
		5 << 40:          "5 TB",
		2048 * (1 << 40): "2048 TB",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatFileSize(in), in)
	}
}

func TestFormatDate(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)

	assert.Equal(t, "Today", FormatDate(now.Add(-3*time.Hour), now))
	assert.Equal(t, "Today", FormatDate(now.Add(time.Hour), now))
	assert.Equal(t, "Yesterday", FormatDate(now.Add(-30*time.Hour), now))
	assert.Equal(t, "3 days ago", FormatDate(now.Add(-3*24*time.Hour), now))
	assert.Equal(t, "2025-06-01", FormatDate(time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local), now))
}
