package blocklist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleList = `# disposable domains
mailinator.com
TRASHMAIL.COM

10minutemail.net
`

func TestFromReader(t *testing.T) {
	l, err := FromReader(strings.NewReader(sampleList))
	require.NoError(t, err)

	assert.Equal(t, 3, l.Len())
	assert.True(t, l.Blocked("mailinator.com"))
	assert.True(t, l.Blocked("Trashmail.com"))
	assert.True(t, l.Blocked("  10minutemail.net "))
	assert.False(t, l.Blocked("example.com"))
}

func TestFromReader_Empty(t *testing.T) {
	l, err := FromReader(strings.NewReader("# nothing here\n\n"))
	require.NoError(t, err)

	assert.Equal(t, 0, l.Len())
	assert.False(t, l.Blocked("example.com"))
}

func TestLoad_PlainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domains.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleList), 0o644))

	l, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, l.Len())
	assert.True(t, l.Blocked("mailinator.com"))
}

func TestLoad_GzipFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domains.txt.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(sampleList))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	l, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, l.Len())
	assert.True(t, l.Blocked("10minutemail.net"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}
