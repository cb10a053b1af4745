package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namelens/dentalnames/internal/config"
)

func TestResolveTarget(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "data")

	cases := []struct {
		name string
		cfg  config.StoreConfig
		want target
	}{
		{
			name: "turso url gets token",
			cfg:  config.StoreConfig{URL: "libsql://example.turso.io", AuthToken: "token123", Path: "ignored.db"},
			want: target{dsn: "libsql://example.turso.io?authToken=token123"},
		},
		{
			name: "existing query is kept",
			cfg:  config.StoreConfig{URL: "libsql://example.turso.io?foo=bar", AuthToken: "token123"},
			want: target{dsn: "libsql://example.turso.io?authToken=token123&foo=bar"},
		},
		{
			name: "explicit token wins",
			cfg:  config.StoreConfig{URL: "libsql://example.turso.io?authToken=mine", AuthToken: "other"},
			want: target{dsn: "libsql://example.turso.io?authToken=mine"},
		},
		{
			name: "memory",
			cfg:  config.StoreConfig{Path: ":memory:"},
			want: target{dsn: ":memory:"},
		},
		{
			name: "relative file prefix",
			cfg:  config.StoreConfig{Path: "file:./dentalnames.db"},
			want: target{dsn: "file:./dentalnames.db", local: true},
		},
		{
			name: "bare path",
			cfg:  config.StoreConfig{Path: filepath.Join(dataDir, "x", "..", "dentalnames.db")},
			want: target{dsn: "file:" + filepath.Join(dataDir, "dentalnames.db"), local: true, dir: dataDir},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveTarget(tc.cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := resolveTarget(config.StoreConfig{})
	require.Error(t, err)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(t.Context(), config.StoreConfig{Driver: "postgres", Path: ":memory:"})
	require.ErrorContains(t, err, "unsupported store driver")
}
