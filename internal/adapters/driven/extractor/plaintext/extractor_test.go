package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Supports(t *testing.T) {
	e := New()

	assert.True(t, e.Supports("notes.txt"))
	assert.True(t, e.Supports("README.md"))
	assert.True(t, e.Supports("UPPER.TXT"))
	assert.True(t, e.Supports("data.csv"))

	assert.False(t, e.Supports("image.png"))
	assert.False(t, e.Supports("archive.zip"))
	assert.False(t, e.Supports("noextension"))
}

func TestExtractor_Extract(t *testing.T) {
	e := New()

	text, err := e.Extract(context.Background(), "notes.txt", []byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestExtractor_ExtractNormalizesLineEndings(t *testing.T) {
	e := New()

	text, err := e.Extract(context.Background(), "notes.txt", []byte("line one\r\nline two\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", text)
}

func TestExtractor_ExtractRejectsBinary(t *testing.T) {
	e := New()

	_, err := e.Extract(context.Background(), "bad.txt", []byte{0xff, 0xfe, 0x00, 0x80})
	assert.Error(t, err)
}
