package util

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniffMimeTypeRewinds(t *testing.T) {
	data := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	r := bytes.NewReader(data)

	mimeType, err := SniffMimeType(r)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)

	rest, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, rest)
}

func TestMatchesMediaKind(t *testing.T) {
	tests := []struct {
		kind, mimeType string
		want           bool
	}{
		{MediaImage, "image/png", true},
		{MediaImage, "video/mp4", false},
		{MediaVideo, "video/mp4", true},
		{MediaVideo, "application/x-mpegURL", true},
		{MediaVideo, "image/jpeg", false},
		{"audio", "audio/mpeg", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchesMediaKind(tt.kind, tt.mimeType), "%s %s", tt.kind, tt.mimeType)
	}
}
