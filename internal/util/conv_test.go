package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "", FormatDuration(0))
	assert.Equal(t, "45s", FormatDuration(45))
	assert.Equal(t, "12m", FormatDuration(12*60+10))
	assert.Equal(t, "1h", FormatDuration(3600))
	assert.Equal(t, "1h 5m", FormatDuration(3600+5*60+29.6))
}
