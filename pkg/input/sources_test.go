package input

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "list.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestReadAddresses(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "1.2.3.4:8080\n\n  5.6.7.8:1080  \n\n")
	got, err := ReadAddresses(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.2.3.4:8080", "5.6.7.8:1080"}, got)
}

func TestReadAddresses_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := ReadAddresses(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestReadExclusions(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "# corporate ranges\n10.0.0.0/8\n\n192.168.1.1-192.168.1.50\n")
	got, err := ReadExclusions(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.1-192.168.1.50"}, got)
}

func TestReadExclusions_NoPathMeansNoRanges(t *testing.T) {
	t.Parallel()

	got, err := ReadExclusions("")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStringSliceFlag(t *testing.T) {
	t.Parallel()

	var s StringSliceFlag
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&s, "t", "")
	require.NoError(t, fs.Parse([]string{"-t", "http,socks5", "-t", "socks4"}))
	assert.Equal(t, StringSliceFlag{"http", "socks5", "socks4"}, s)
	assert.Equal(t, "http,socks5,socks4", s.String())
}
