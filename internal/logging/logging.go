// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package logging

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// New builds the process-wide logger, reading its level from
// EBAF_LOG_LEVEL (default "info"). Output goes to stderr so stdout
// stays free for any future machine-readable CLI output.
func New() *log.Logger {
	lvl := log.InfoLevel
	if s := os.Getenv("EBAF_LOG_LEVEL"); s != "" {
		if parsed, err := log.ParseLevel(strings.ToLower(s)); err == nil {
			lvl = parsed
		}
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           lvl,
	})
	return logger
}
