// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package stats

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebaf/internal/registry"
)

func TestWriteStatsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteStatsFile(dir, 100, 10))

	data, err := os.ReadFile(filepath.Join(dir, StatsFilename))
	require.NoError(t, err)
	assert.Equal(t, "total: 100\nblocked: 10\n", string(data))
}

func TestWriteDomainStatsFile(t *testing.T) {
	dir := t.TempDir()
	snapshot := []registry.DomainDrop{
		{Name: "ads.example.org", Drops: 3},
		{Name: "tracker.example.org", Drops: 1},
	}
	require.NoError(t, WriteDomainStatsFile(dir, snapshot))

	data, err := os.ReadFile(filepath.Join(dir, DomainStatsFilename))
	require.NoError(t, err)
	assert.Equal(t, "ads.example.org:3\ntracker.example.org:1\n", string(data))
}

func TestWriteDomainStatsFileEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteDomainStatsFile(dir, nil))

	data, err := os.ReadFile(filepath.Join(dir, DomainStatsFilename))
	require.NoError(t, err)
	assert.Empty(t, data)
}
