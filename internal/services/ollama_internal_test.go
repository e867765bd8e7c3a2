package services

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOllamaDefaultHost(t *testing.T) {
	o, err := NewOllama("", "llama3.2", "", LLMParameters{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	assert.Equal(t, DefaultOllamaHost, o.host)
	assert.NotNil(t, o.client)
}

func TestNewOllamaKeepsHost(t *testing.T) {
	o, err := NewOllama("http://ollama.internal:11434", "llama3.2", "", LLMParameters{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	assert.Equal(t, "http://ollama.internal:11434", o.host)
}
