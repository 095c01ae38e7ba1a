// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command ebaf is a host-local IPv4 packet firewall that drops
// traffic to or from addresses resolved from an operator-supplied
// domain blacklist, leaving addresses in the whitelist untouched.
//
// Usage:
//
//	ebaf [INTERFACE]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ebaf/internal/classifier"
	"ebaf/internal/config"
	"ebaf/internal/ebpf/loader"
	"ebaf/internal/ebpf/stats"
	"ebaf/internal/errors"
	"ebaf/internal/iface"
	"ebaf/internal/lists"
	"ebaf/internal/logging"
	"ebaf/internal/registry"
	"ebaf/internal/resolver"
	flatstats "ebaf/internal/stats"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger := logging.New()

	var operatorIface string
	switch len(os.Args) {
	case 1:
	case 2:
		operatorIface = os.Args[1]
	default:
		fmt.Fprintln(os.Stderr, "usage: ebaf [INTERFACE]")
		return 1
	}

	cfg := config.Default()

	ifaceName, err := iface.Select(operatorIface)
	if err != nil {
		return fail(logger, "interface selection", err)
	}

	if err := loader.VerifyKernelSupport(); err != nil {
		return fail(logger, "kernel support verification", err)
	}

	if err := loader.RaiseMemlock(); err != nil {
		logger.Warn("continuing without raised memlock", "error", err)
	}

	if err := loader.RaiseJITLimit(); err != nil {
		logger.Warn("continuing without raised JIT limit", "error", err)
	}

	artifactPath, err := loader.FindArtifact()
	if err != nil {
		return fail(logger, "locate classifier artifact", err)
	}

	ld := loader.NewLoader()
	if err := ld.LoadFromPath(artifactPath); err != nil {
		return fail(logger, "load classifier artifact", err)
	}
	defer ld.Close()

	blockSetHandle, err := ld.GetMap(loader.MapBlockSet)
	if err != nil {
		return fail(logger, "obtain block_set handle", err)
	}
	allowSetHandle, err := ld.GetMap(loader.MapAllowSet)
	if err != nil {
		return fail(logger, "obtain allow_set handle", err)
	}
	statsHandle, err := ld.GetMap(loader.MapStats)
	if err != nil {
		return fail(logger, "obtain stats handle", err)
	}

	blockSet := classifier.NewBlockSet(blockSetHandle.GetMap())
	allowSet := classifier.NewAllowSet(allowSetHandle.GetMap())
	classStats := classifier.NewStats(statsHandle.GetMap())
	if err := classStats.Zero(); err != nil {
		return fail(logger, "zero counters", err)
	}

	blacklistPath, err := lists.FindBlacklistPath()
	if err != nil {
		return fail(logger, "locate blacklist", err)
	}
	blacklist, err := lists.ParseBlacklist(blacklistPath)
	if err != nil {
		return fail(logger, "parse blacklist", err)
	}

	var whitelistPatterns []string
	if whitelistPath, ok := lists.FindWhitelistPath(); ok {
		whitelistPatterns, err = lists.ParseWhitelist(whitelistPath)
		if err != nil {
			logger.Warn("whitelist parse failed, continuing with empty whitelist", "error", err)
		}
	}

	reg := registry.New(cfg.RegistryCapacity)
	for _, name := range blacklist.Domains {
		if err := reg.Add(name); err != nil {
			logger.Debug("registry full, dropping domain", "domain", name)
		}
	}

	for _, ip := range blacklist.IPSeed {
		if err := blockSet.InsertIfAbsent(ip); err != nil {
			logger.Warn("failed to seed block_set", "error", err)
		}
	}

	attachMode, err := ld.Attach(loader.ProgramClassifier, ifaceName)
	if err != nil {
		return fail(logger, "attach classifier", err)
	}
	logger.Info("classifier attached",
		"interface", ifaceName,
		"mode", attachMode,
		"ip_seed_count", len(blacklist.IPSeed),
		"domain_count", reg.Count(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loop := &resolver.Loop{
		Registry:           reg,
		BlockSet:           blockSet,
		AllowSet:           allowSet,
		Resolver:           resolver.NewNetHostResolver(),
		BlacklistNames:     blacklist.Domains,
		WhitelistPatterns:  whitelistPatterns,
		ResolutionInterval: cfg.ResolutionInterval,
		SliceInterval:      cfg.ResolutionSliceInterval,
		ResolveTimeout:     cfg.ResolveTimeout,
		Logger:             logger,
	}

	collector := stats.NewCollector(classStats, reg)
	exporter := stats.NewExporter(collector, cfg.ExportInterval)
	exporter.SetLogger(logger)
	if err := exporter.Start(ctx, cfg.PrometheusAddr, cfg.JSONAddr); err != nil {
		logger.Warn("diagnostic exporter failed to start", "error", err)
	}
	defer exporter.Stop()

	loop.OnExportTrigger = func() {
		writeFlatFiles(logger, cfg, classStats, reg)
	}

	var resolverDone sync.WaitGroup
	resolverDone.Add(1)
	go func() {
		defer resolverDone.Done()
		loop.Run(ctx)
	}()

	mainLoop(ctx, cfg, logger, classStats, reg)

	// Wait for C6 to observe cancellation and return before touching
	// the map handles it may still be mid-iteration on (§4.8: detach
	// only after the resolver loop has stopped).
	resolverDone.Wait()

	if err := ld.Detach(); err != nil {
		logger.Warn("detach returned error", "error", err)
	}
	reg.Cleanup()
	logger.Info("shutdown complete", "interface", ifaceName)
	return 0
}

// mainLoop ticks the flat-file exporter at the C7 cadence until ctx is
// cancelled, folding the signal wait into the exporter thread per §4.8.
func mainLoop(ctx context.Context, cfg config.Config, logger interface {
	Warn(msg any, kv ...any)
}, classStats *classifier.Stats, reg *registry.Registry) {
	ticker := time.NewTicker(cfg.ExportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			writeFlatFiles(logger, cfg, classStats, reg)
		}
	}
}

func writeFlatFiles(logger interface {
	Warn(msg any, kv ...any)
}, cfg config.Config, classStats *classifier.Stats, reg *registry.Registry) {
	total, blocked, err := classStats.Read()
	if err != nil {
		logger.Warn("failed to read counters for export", "error", err)
		return
	}
	if err := flatstats.WriteStatsFile(cfg.StatsDir, total, blocked); err != nil {
		logger.Warn("failed to write stats file", "error", err)
	}
	if err := flatstats.WriteDomainStatsFile(cfg.StatsDir, reg.SnapshotForExport()); err != nil {
		logger.Warn("failed to write domain stats file", "error", err)
	}
}

func fail(logger interface {
	Error(msg any, kv ...any)
}, stage string, err error) int {
	logger.Error("startup failed", "stage", stage, "kind", errors.GetKind(err).String(), "error", err)
	return 1
}
