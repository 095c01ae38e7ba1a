// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package resolver

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/cilium/ebpf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebaf/internal/classifier"
	"ebaf/internal/netutil"
	"ebaf/internal/registry"
)

type fakeResolver map[string][]string

func (f fakeResolver) LookupIPv4(ctx context.Context, name string) ([]uint32, error) {
	var out []uint32
	for _, s := range f[name] {
		key, err := netutil.ParseIPv4(s)
		if err != nil {
			return nil, err
		}
		out = append(out, key)
	}
	return out, nil
}

func newMaps(t *testing.T) (*classifier.BlockSet, *classifier.AllowSet) {
	t.Helper()
	if os.Getuid() != 0 {
		t.Skip("skipping eBPF-backed resolver test - requires root privileges")
	}
	bm, err := ebpf.NewMap(&ebpf.MapSpec{Type: ebpf.Hash, KeySize: 4, ValueSize: 8, MaxEntries: 16})
	require.NoError(t, err)
	t.Cleanup(func() { bm.Close() })

	am, err := ebpf.NewMap(&ebpf.MapSpec{Type: ebpf.Hash, KeySize: 4, ValueSize: 1, MaxEntries: 16})
	require.NoError(t, err)
	t.Cleanup(func() { am.Close() })

	return classifier.NewBlockSet(bm), classifier.NewAllowSet(am)
}

func TestBlacklistPassInsertsIntoBlockSet(t *testing.T) {
	blockSet, allowSet := newMaps(t)

	reg := registry.New(10)
	require.NoError(t, reg.Add("ads.example.org"))

	loop := &Loop{
		Registry:           reg,
		BlockSet:           blockSet,
		AllowSet:           allowSet,
		Resolver:           fakeResolver{"ads.example.org": {"10.0.0.2"}},
		BlacklistNames:     []string{"ads.example.org"},
		ResolutionInterval: time.Minute,
		SliceInterval:      time.Millisecond,
		ResolveTimeout:     time.Second,
	}

	loop.iteration(context.Background())

	key, _ := netutil.ParseIPv4("10.0.0.2")
	count, ok, err := blockSet.Get(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), count)
}

func TestAllowPrecedenceViaShadowPass(t *testing.T) {
	blockSet, allowSet := newMaps(t)

	reg := registry.New(10)
	require.NoError(t, reg.Add("ads.example.org"))

	loop := &Loop{
		Registry:           reg,
		BlockSet:           blockSet,
		AllowSet:           allowSet,
		Resolver:           fakeResolver{"ads.example.org": {"10.0.0.2"}},
		BlacklistNames:     []string{"ads.example.org"},
		WhitelistPatterns:  []string{"*.example.org"},
		ResolutionInterval: time.Minute,
		SliceInterval:      time.Millisecond,
		ResolveTimeout:     time.Second,
	}

	loop.iteration(context.Background())

	key, _ := netutil.ParseIPv4("10.0.0.2")
	inAllow, err := allowSet.Contains(key)
	require.NoError(t, err)
	assert.True(t, inAllow, "shadowed blacklist entry should land in allow_set")
}

func TestExplicitWhitelistPass(t *testing.T) {
	_, allowSet := newMaps(t)
	blockSet, _ := newMaps(t)

	reg := registry.New(10)
	loop := &Loop{
		Registry:           reg,
		BlockSet:           blockSet,
		AllowSet:           allowSet,
		Resolver:           fakeResolver{"safe.example.org": {"10.0.0.9"}},
		WhitelistPatterns:  []string{"safe.example.org"},
		ResolutionInterval: time.Minute,
		SliceInterval:      time.Millisecond,
		ResolveTimeout:     time.Second,
	}

	loop.explicitWhitelistPass(context.Background())

	key, _ := netutil.ParseIPv4("10.0.0.9")
	inAllow, err := allowSet.Contains(key)
	require.NoError(t, err)
	assert.True(t, inAllow)
}

func TestSleepSlicedObservesCancellation(t *testing.T) {
	loop := &Loop{ResolutionInterval: time.Hour, SliceInterval: 10 * time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan bool)
	go func() { done <- loop.sleepSliced(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case cancelled := <-done:
		assert.True(t, cancelled)
	case <-time.After(time.Second):
		t.Fatal("sleepSliced did not observe cancellation promptly")
	}
}
