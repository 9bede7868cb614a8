package stixbundle

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bundleURI(t *testing.T) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join("testdata", "mini_bundle.json"))
	require.NoError(t, err)
	return "file://" + abs
}

func TestFetchNetworkTraffic(t *testing.T) {
	rows, err := New().Fetch(context.Background(), "network-traffic", bundleURI(t))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "network-traffic", row["type"])
	assert.Equal(t, float64(22), row["dst_port"])
	assert.Equal(t, float64(52394), row["src_port"])
	assert.Equal(t, "192.168.121.5", row["src_ref.value"])
	assert.Equal(t, "10.0.0.91", row["dst_ref.value"])
	assert.Equal(t, "2020-06-30T19:25:09Z", row["first_observed"])
	assert.Equal(t, "2020-06-30T19:25:10Z", row["last_observed"])

	// The raw ref indices and list attributes are not carried over.
	assert.NotContains(t, row, "src_ref")
	assert.NotContains(t, row, "protocols")
}

func TestFetchIPv4Addrs(t *testing.T) {
	rows, err := New().Fetch(context.Background(), "ipv4-addr", bundleURI(t))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "192.168.121.5", rows[0]["value"])
	assert.Equal(t, "10.0.0.91", rows[1]["value"])
}

func TestFetchUserAccounts(t *testing.T) {
	rows, err := New().Fetch(context.Background(), "user-account", bundleURI(t))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "henry", rows[0]["account_login"])
}

func TestFetchUnknownTypeIsEmpty(t *testing.T) {
	rows, err := New().Fetch(context.Background(), "process", bundleURI(t))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFetchMissingFile(t *testing.T) {
	_, err := New().Fetch(context.Background(), "ipv4-addr", "file:///no/such/bundle.json")
	require.Error(t, err)
}

func TestFetchNotABundle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not_bundle.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type": "malware"}`), 0o644))
	_, err := New().Fetch(context.Background(), "ipv4-addr", "file://"+path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a STIX bundle")
}
