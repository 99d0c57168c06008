package output

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proxyvet/proxyvet/pkg/jsonutil"
	"github.com/proxyvet/proxyvet/pkg/probe"
)

func TestTextWriter_LineFormat(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "good.txt")
	w, err := NewWriter(path, "text")
	require.NoError(t, err)

	require.NoError(t, w.Write(&probe.Outcome{
		Proxy:   "1.2.3.4:8080",
		Variant: probe.VariantHTTP,
		Latency: 1234 * time.Millisecond,
	}))
	require.NoError(t, w.Write(&probe.Outcome{
		Proxy:   "5.6.7.8:1080",
		Variant: probe.VariantSOCKS5,
		Latency: 62 * time.Millisecond,
	}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http,1.23,1.2.3.4:8080\nsocks5,0.06,5.6.7.8:1080\n", string(data))
}

func TestJSONLWriter(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "good.jsonl")
	w, err := NewWriter(path, "jsonl")
	require.NoError(t, err)

	require.NoError(t, w.Write(&probe.Outcome{
		Proxy:   "1.2.3.4:8080",
		Variant: probe.VariantSOCKS4,
		Latency: 500 * time.Millisecond,
	}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got jsonOutcome
	require.NoError(t, jsonutil.Unmarshal(data, &got))
	assert.Equal(t, "socks4", got.Type)
	assert.Equal(t, "1.2.3.4:8080", got.Proxy)
	assert.InDelta(t, 0.5, got.LatencySeconds, 0.001)
}

func TestNewWriter_UnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := NewWriter(filepath.Join(t.TempDir(), "x"), "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xml")
}

func TestNewWriter_UnwritableDestination(t *testing.T) {
	t.Parallel()

	_, err := NewWriter(filepath.Join(t.TempDir(), "missing", "dir", "out.txt"), "text")
	require.Error(t, err)
}
