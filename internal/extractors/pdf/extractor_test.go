package pdf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".pdf"}, New().Extensions())
}

func TestExtract_NotAPDF(t *testing.T) {
	_, err := New().Extract(context.Background(), []byte("plain text pretending to be a pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdf")
}

func TestExtract_EmptyInput(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	require.Error(t, err)
}

func TestNormalise(t *testing.T) {
	assert.Equal(t, "a\nb", normalise("a\r\nb"))
	assert.Equal(t, "content", normalise("\n content \n"))
	assert.Equal(t, "", normalise("   "))
}
