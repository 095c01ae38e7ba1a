// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package stats implements the flat-file half of C7: truncate-and-write
// text files under the system temporary directory that external
// readers poll. Writes carry no lock; readers must tolerate a brief
// empty window and partial reads, per §4.7.
package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ebaf/internal/registry"
)

const (
	StatsFilename       = "ebaf-stats.dat"
	DomainStatsFilename = "ebaf-domain-stats.dat"
)

// WriteStatsFile overwrites <dir>/ebaf-stats.dat with the two-line
// total/blocked counter report.
func WriteStatsFile(dir string, total, blocked uint64) error {
	body := fmt.Sprintf("total: %d\nblocked: %d\n", total, blocked)
	return overwrite(filepath.Join(dir, StatsFilename), body)
}

// WriteDomainStatsFile overwrites <dir>/ebaf-domain-stats.dat with one
// "<name>:<drops>" line per domain with non-zero drops.
func WriteDomainStatsFile(dir string, snapshot []registry.DomainDrop) error {
	var b strings.Builder
	for _, d := range snapshot {
		fmt.Fprintf(&b, "%s:%d\n", d.Name, d.Drops)
	}
	return overwrite(filepath.Join(dir, DomainStatsFilename), b.String())
}

// overwrite performs a whole-file truncate-and-write, matching the
// spec's documented contract: no lock is held, so a concurrent reader
// may briefly observe an empty or partially written file.
func overwrite(path, body string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(body)
	return err
}
