package nativelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterAppendsToDailyFile(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir)
	require.NoError(t, err)
	defer w.Close()

	day := time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return day }

	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	day = day.Add(2 * time.Minute)
	_, err = w.Write([]byte("third\n"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())

	data, err := os.ReadFile(filepath.Join(dir, "bdp-api-helper_2024-03-01.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "bdp-api-helper_2024-03-02.log"))
	require.NoError(t, err)
	assert.Equal(t, "third\n", string(data))
}

func TestResolveDirPrefersExplicit(t *testing.T) {
	t.Setenv(EnvLogDir, "/from/env")
	assert.Equal(t, "/explicit", ResolveDir("/explicit"))
	assert.Equal(t, "/from/env", ResolveDir(""))

	t.Setenv(EnvLogDir, " ")
	assert.Equal(t, filepath.Join(".", "logs"), ResolveDir(""))
}
