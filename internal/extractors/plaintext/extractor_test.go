package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".txt"}, New().Extensions())
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{name: "plain content", data: []byte("Jane Doe\nPlatform Engineer"), want: "Jane Doe\nPlatform Engineer"},
		{name: "windows line endings", data: []byte("line one\r\nline two"), want: "line one\nline two"},
		{name: "surrounding whitespace trimmed", data: []byte("\n\n  content  \n"), want: "content"},
		{name: "empty file", data: []byte(""), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New().Extract(context.Background(), tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_InvalidUTF8(t *testing.T) {
	_, err := New().Extract(context.Background(), []byte{0xff, 0xfe, 0xfd})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UTF-8")
}
