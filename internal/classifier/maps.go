// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package classifier wraps the three kernel maps the packet classifier
// consults (block_set, allow_set, stats) behind a small typed
// interface, per the Design Notes' "globally mutable maps with two
// writers" guidance: insert(key, value), get(key), iter() returning a
// snapshot. This wrapper is the only path user-space code takes to
// mutate the maps. It does no byte-order conversion of its own: keys
// are used exactly as produced by internal/netutil (ParseIPv4,
// IPv4FromNetIP).
package classifier

import (
	"errors"

	"github.com/cilium/ebpf"

	"ebaf/internal/netutil"
)

const (
	statIdxTotal   uint32 = 0
	statIdxBlocked uint32 = 1
)

// BlockSet wraps the block_set map: IPv4 (network order) -> u64 drop counter.
type BlockSet struct {
	m *ebpf.Map
}

func NewBlockSet(m *ebpf.Map) *BlockSet { return &BlockSet{m: m} }

// Insert performs insert-or-overwrite semantics for key -> count.
func (b *BlockSet) Insert(key uint32, count uint64) error {
	return b.m.Update(key, count, ebpf.UpdateAny)
}

// InsertIfAbsent inserts key with count 0 only if it is not already
// present, preserving idempotence: re-inserting a known IP must not
// reset its counter (Testable Properties, Idempotence).
func (b *BlockSet) InsertIfAbsent(key uint32) error {
	err := b.m.Update(key, uint64(0), ebpf.UpdateNoExist)
	if errors.Is(err, ebpf.ErrKeyExist) {
		return nil
	}
	return err
}

// Get returns the current drop counter for key, and whether it was present.
func (b *BlockSet) Get(key uint32) (uint64, bool, error) {
	var val uint64
	if err := b.m.Lookup(key, &val); err != nil {
		if errors.Is(err, ebpf.ErrKeyNotExist) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return val, true, nil
}

// Iter returns a point-in-time snapshot of the whole map, keyed by
// dotted-quad string for direct use by the domain registry rollup.
func (b *BlockSet) Iter() (map[string]uint64, error) {
	out := make(map[string]uint64)
	var key uint32
	var val uint64
	it := b.m.Iterate()
	for it.Next(&key, &val) {
		out[netutil.FormatIPv4(key)] = val
	}
	return out, it.Err()
}

// AllowSet wraps the allow_set map: IPv4 (network order) -> u8 presence marker.
type AllowSet struct {
	m *ebpf.Map
}

func NewAllowSet(m *ebpf.Map) *AllowSet { return &AllowSet{m: m} }

// Insert marks key as present in the allow set.
func (a *AllowSet) Insert(key uint32) error {
	return a.m.Update(key, uint8(1), ebpf.UpdateAny)
}

// Contains reports whether key is present in the allow set.
func (a *AllowSet) Contains(key uint32) (bool, error) {
	var val uint8
	if err := a.m.Lookup(key, &val); err != nil {
		if errors.Is(err, ebpf.ErrKeyNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Stats wraps the 2-slot stats array: TOTAL=0, BLOCKED=1.
type Stats struct {
	m *ebpf.Map
}

func NewStats(m *ebpf.Map) *Stats { return &Stats{m: m} }

// Read returns (total, blocked) as a snapshot.
func (s *Stats) Read() (total, blocked uint64, err error) {
	if err := s.m.Lookup(statIdxTotal, &total); err != nil {
		return 0, 0, err
	}
	if err := s.m.Lookup(statIdxBlocked, &blocked); err != nil {
		return 0, 0, err
	}
	return total, blocked, nil
}

// Zero resets both counters to 0, as required once at load (§4.3 step 4).
func (s *Stats) Zero() error {
	if err := s.m.Update(statIdxTotal, uint64(0), ebpf.UpdateAny); err != nil {
		return err
	}
	return s.m.Update(statIdxBlocked, uint64(0), ebpf.UpdateAny)
}
