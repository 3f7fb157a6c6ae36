package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalHandler(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "output", "chart.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, []byte("png"), 0o644))

	handler := NewLocalHandler()
	results := handler.Process(context.Background(), []string{file}, "plotter", dir)

	require.Len(t, results, 1)
	assert.Equal(t, "chart.png", results[0].Filename)
	assert.Equal(t, file, results[0].LocalPath)
	assert.Equal(t, "file://"+file, results[0].URL)
}

func TestLocalHandlerEmpty(t *testing.T) {
	assert.Empty(t, NewLocalHandler().Process(context.Background(), nil, "x", t.TempDir()))
}
