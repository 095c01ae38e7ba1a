// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package lists implements C4: parsing the blacklist and whitelist
// text files from their documented search paths into an initial IP
// seed, a domain list for the registry, and a whitelist pattern list.
package lists

import (
	"bufio"
	"os"
	"strings"

	"github.com/miekg/dns"

	"ebaf/internal/errors"
	"ebaf/internal/netutil"
)

const (
	blacklistFilename = "spotify-blacklist.txt"
	whitelistFilename = "spotify-whitelist.txt"
	shareDir          = "/usr/local/share/ebaf"
)

// FindBlacklistPath searches ./spotify-blacklist.txt then
// /usr/local/share/ebaf/spotify-blacklist.txt, first hit wins.
func FindBlacklistPath() (string, error) {
	return findFirst(blacklistFilename)
}

// FindWhitelistPath searches the equivalent whitelist locations. A
// missing whitelist is non-fatal, so callers should treat a
// not-found result as "use an empty pattern list", not as an error to
// surface.
func FindWhitelistPath() (string, bool) {
	path, err := findFirst(whitelistFilename)
	if err != nil {
		return "", false
	}
	return path, true
}

func findFirst(name string) (string, error) {
	candidates := []string{name, shareDir + "/" + name}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", errors.Errorf(errors.KindDataRecoverable, "%s not found in any search path", name)
}

// ParseResult holds everything a blacklist/whitelist parse yields.
type ParseResult struct {
	// IPSeed holds literal IPv4 blacklist entries (network-byte-order).
	IPSeed []uint32
	// Domains holds canonicalized non-IP blacklist entries.
	Domains []string
}

// ParseBlacklist reads path and splits its entries into a literal IP
// seed and a domain list, per §4.4. Every non-IP entry is registered
// for periodic resolution regardless of whether it looks like a
// well-formed domain name: a malformed entry simply fails to resolve
// on its own tick, which the resolver's per-domain DNS failure path
// already treats as data-recoverable. There is no parse-time
// rejection, matching the original resolver's own behavior of handing
// every token straight to the resolver without pre-validation.
func ParseBlacklist(path string) (ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ParseResult{}, errors.Wrapf(err, errors.KindSetupFatal, "failed to open blacklist %s", path)
	}
	defer f.Close()

	var result ParseResult
	for _, entry := range readEntries(f) {
		if netutil.IsLiteralIPv4(entry) {
			key, err := netutil.ParseIPv4(entry)
			if err != nil {
				continue
			}
			result.IPSeed = append(result.IPSeed, key)
			continue
		}

		name := dns.CanonicalName(entry)
		result.Domains = append(result.Domains, strings.TrimSuffix(name, "."))
	}
	return result, nil
}

// ParseWhitelist reads path and returns its pattern entries verbatim
// (case-folded), preserving any glob wildcards. A missing file is
// handled by the caller via FindWhitelistPath, not here.
func ParseWhitelist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindDataRecoverable, "failed to open whitelist %s", path)
	}
	defer f.Close()

	var patterns []string
	for _, entry := range readEntries(f) {
		patterns = append(patterns, strings.ToLower(entry))
	}
	return patterns, nil
}

// HasWildcard reports whether a whitelist pattern carries glob syntax.
func HasWildcard(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

// readEntries extracts the first whitespace-delimited token of each
// non-comment line, stripping any trailing "# comment" first.
func readEntries(f *os.File) []string {
	var entries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		before, _, _ := strings.Cut(line, "#")
		fields := strings.Fields(before)
		if len(fields) == 0 {
			continue
		}
		entries = append(entries, fields[0])
	}
	return entries
}
