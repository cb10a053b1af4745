package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namelens/dentalnames/internal/appid"
)

func TestAppIdentityLoading(t *testing.T) {
	identity, err := appid.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, identity)

	assert.Equal(t, "namelens", identity.Vendor)
	assert.Equal(t, "dentalnames", identity.BinaryName)
	assert.Equal(t, "dentalnames", identity.ConfigName)
	assert.Equal(t, "DENTALNAMES_", identity.EnvPrefix)
}

func TestCommandTree(t *testing.T) {
	want := []string{"serve", "generate", "score", "tagline", "domains", "swatch", "options", "rate-limit", "ailink", "health", "envinfo", "version"}
	got := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		got[c.Name()] = true
	}
	for _, name := range want {
		assert.True(t, got[name], "missing command %q", name)
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList([]string{" a ,", "b", ""}))
	assert.Empty(t, splitList(nil))
}
