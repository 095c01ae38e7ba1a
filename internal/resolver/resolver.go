// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package resolver implements C6: the background loop that
// re-resolves every registered domain, enforces allow-set precedence
// over whitelist patterns, and rolls up per-domain drop counts.
package resolver

import (
	"context"
	"net"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gobwas/glob"

	"ebaf/internal/classifier"
	"ebaf/internal/errors"
	"ebaf/internal/netutil"
	"ebaf/internal/registry"
)

// HostResolver resolves a domain name to zero or more IPv4 addresses.
// Resolution is always delegated to the host: ebaf runs no DNS
// resolver of its own. Tests substitute a fake implementation.
type HostResolver interface {
	LookupIPv4(ctx context.Context, name string) ([]uint32, error)
}

// NetHostResolver delegates to net.Resolver, the stdlib host resolver.
type NetHostResolver struct {
	Resolver *net.Resolver
}

// NewNetHostResolver returns a HostResolver backed by the default
// stdlib resolver.
func NewNetHostResolver() *NetHostResolver {
	return &NetHostResolver{Resolver: &net.Resolver{}}
}

func (n *NetHostResolver) LookupIPv4(ctx context.Context, name string) ([]uint32, error) {
	addrs, err := n.Resolver.LookupIP(ctx, "ip4", name)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, 0, len(addrs))
	for _, addr := range addrs {
		if key, ok := netutil.IPv4FromNetIP(addr); ok {
			out = append(out, key)
		}
	}
	return out, nil
}

// Loop is the single background resolver task described by C6.
type Loop struct {
	Registry *registry.Registry
	BlockSet *classifier.BlockSet
	AllowSet *classifier.AllowSet
	Resolver HostResolver
	Logger   *log.Logger

	// BlacklistNames holds every blacklist domain as read from the
	// file, independent of registry capacity, since the allow-set
	// precedence pass (§4.6 step 2) must consider entries "as read
	// from the file, not just registered".
	BlacklistNames []string
	// WhitelistPatterns holds every whitelist entry as read from the
	// file, wildcard or not.
	WhitelistPatterns []string

	ResolutionInterval time.Duration
	SliceInterval      time.Duration
	ResolveTimeout     time.Duration

	// OnExportTrigger is invoked once per iteration after the drop
	// rollup, per §4.6 step 5. May be nil.
	OnExportTrigger func()
}

// Run executes resolver iterations until ctx is cancelled, sleeping
// between iterations in slices no longer than SliceInterval so
// shutdown is observed promptly (§4.6 step 6).
func (l *Loop) Run(ctx context.Context) {
	for {
		l.iteration(ctx)
		if l.sleepSliced(ctx) {
			return
		}
	}
}

func (l *Loop) sleepSliced(ctx context.Context) (cancelled bool) {
	slice := l.SliceInterval
	if slice <= 0 {
		slice = time.Second
	}
	remaining := l.ResolutionInterval
	for remaining > 0 {
		step := slice
		if step > remaining {
			step = remaining
		}
		timer := time.NewTimer(step)
		select {
		case <-ctx.Done():
			timer.Stop()
			return true
		case <-timer.C:
		}
		remaining -= step
	}
	return false
}

func (l *Loop) iteration(ctx context.Context) {
	l.blacklistPass(ctx)
	l.shadowBlacklistPass(ctx)
	l.explicitWhitelistPass(ctx)

	if err := l.Registry.UpdateDrops(l.BlockSet); err != nil {
		l.debugf("drop rollup failed: %v", err)
	}

	if l.OnExportTrigger != nil {
		l.OnExportTrigger()
	}
}

// blacklistPass is §4.6 step 1: resolve every registered domain,
// record its IPs, and insert them into block_set. DNS failures are
// data-recoverable and affect only the one domain for the one tick.
func (l *Loop) blacklistPass(ctx context.Context) {
	for _, name := range l.Registry.Names() {
		ips, err := l.resolve(ctx, name)
		if err != nil {
			l.debugf("blacklist resolve failed for %s: %v", name, err)
			continue
		}
		if len(ips) == 0 {
			continue
		}

		l.Registry.RecordIPs(name, ips)
		for _, ip := range ips {
			if err := l.BlockSet.InsertIfAbsent(ip); err != nil {
				l.debugf("block_set insert failed for %s (%s): %v", name, netutil.FormatIPv4(ip), err)
			}
		}
	}
}

// shadowBlacklistPass is §4.6 step 2: any blacklist entry (as read
// from the file) matching a whitelist pattern has its IPs inserted
// into allow_set, guaranteeing allow-precedence even though the same
// IPs also sit in block_set.
func (l *Loop) shadowBlacklistPass(ctx context.Context) {
	globs := compileGlobs(l.WhitelistPatterns)

	for _, name := range l.BlacklistNames {
		matched := false
		for _, g := range globs {
			if g.Match(name) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}

		ips, err := l.resolve(ctx, name)
		if err != nil {
			l.debugf("shadow resolve failed for %s: %v", name, err)
			continue
		}
		for _, ip := range ips {
			if err := l.AllowSet.Insert(ip); err != nil {
				l.debugf("allow_set insert failed for %s (%s): %v", name, netutil.FormatIPv4(ip), err)
			}
		}
	}
}

// explicitWhitelistPass is §4.6 step 3: whitelist entries with no
// wildcard are resolved directly and inserted into allow_set.
func (l *Loop) explicitWhitelistPass(ctx context.Context) {
	for _, pattern := range l.WhitelistPatterns {
		if hasWildcard(pattern) {
			continue
		}

		ips, err := l.resolve(ctx, pattern)
		if err != nil {
			l.debugf("explicit whitelist resolve failed for %s: %v", pattern, err)
			continue
		}
		for _, ip := range ips {
			if err := l.AllowSet.Insert(ip); err != nil {
				l.debugf("allow_set insert failed for %s (%s): %v", pattern, netutil.FormatIPv4(ip), err)
			}
		}
	}
}

func (l *Loop) resolve(ctx context.Context, name string) ([]uint32, error) {
	timeout := l.ResolveTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ips, err := l.Resolver.LookupIPv4(rctx, name)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindDataRecoverable, "resolve %s", name)
	}
	return ips, nil
}

func (l *Loop) debugf(format string, args ...any) {
	if l.Logger != nil {
		l.Logger.Debugf(format, args...)
	}
}

func hasWildcard(pattern string) bool {
	for _, c := range pattern {
		switch c {
		case '*', '?', '[':
			return true
		}
	}
	return false
}

func compileGlobs(patterns []string) []glob.Glob {
	var out []glob.Glob
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			continue
		}
		out = append(out, g)
	}
	return out
}
