// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package lists

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebaf/internal/netutil"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "list.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseBlacklistSplitsIPsAndDomains(t *testing.T) {
	path := writeTemp(t, "# comment line\n"+
		"10.0.0.1\n"+
		"ads.example.org  # trailing comment\n"+
		"\n"+
		"10.0.0.2\n")

	result, err := ParseBlacklist(path)
	require.NoError(t, err)

	wantIP1, _ := netutil.ParseIPv4("10.0.0.1")
	wantIP2, _ := netutil.ParseIPv4("10.0.0.2")
	assert.ElementsMatch(t, []uint32{wantIP1, wantIP2}, result.IPSeed)
	assert.Equal(t, []string{"ads.example.org"}, result.Domains)
}

func TestParseBlacklistRegistersMalformedDomainAnyway(t *testing.T) {
	// A token that doesn't look like a well-formed domain name is
	// still registered for periodic resolution: it simply fails to
	// resolve on its own tick rather than being rejected at parse
	// time (§4.4: "registered for periodic resolution, even if it
	// currently fails to resolve").
	path := writeTemp(t, "..example.org\n")
	result, err := ParseBlacklist(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"..example.org"}, result.Domains)
	assert.Empty(t, result.IPSeed)
}

func TestParseWhitelistPreservesWildcards(t *testing.T) {
	path := writeTemp(t, "*.ads.example.org\nexact.example.org\n")
	patterns, err := ParseWhitelist(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"*.ads.example.org", "exact.example.org"}, patterns)
}

func TestHasWildcard(t *testing.T) {
	assert.True(t, HasWildcard("*.example.org"))
	assert.True(t, HasWildcard("ad?.example.org"))
	assert.False(t, HasWildcard("example.org"))
}

func TestFindWhitelistPathMissingIsNonFatal(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	_, ok := FindWhitelistPath()
	assert.False(t, ok)
}
