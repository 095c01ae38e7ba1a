// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package classifier

import (
	"os"
	"testing"

	"github.com/cilium/ebpf"
)

func newTestMap(t *testing.T, valueSize uint32) *ebpf.Map {
	t.Helper()
	if os.Getuid() != 0 {
		t.Skip("skipping eBPF map test - requires root privileges")
	}
	m, err := ebpf.NewMap(&ebpf.MapSpec{
		Type:       ebpf.Hash,
		KeySize:    4,
		ValueSize:  valueSize,
		MaxEntries: 16,
	})
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestBlockSetInsertGet(t *testing.T) {
	bs := NewBlockSet(newTestMap(t, 8))

	if err := bs.InsertIfAbsent(0x0A000001); err != nil {
		t.Fatalf("InsertIfAbsent: %v", err)
	}
	count, ok, err := bs.Get(0x0A000001)
	if err != nil || !ok || count != 0 {
		t.Fatalf("Get after insert = (%d, %v, %v), want (0, true, nil)", count, ok, err)
	}

	// Idempotence: re-inserting a known IP must not reset its counter.
	if err := bs.Insert(0x0A000001, 5); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := bs.InsertIfAbsent(0x0A000001); err != nil {
		t.Fatalf("InsertIfAbsent (already present): %v", err)
	}
	count, ok, err = bs.Get(0x0A000001)
	if err != nil || !ok || count != 5 {
		t.Fatalf("Get after re-insert = (%d, %v, %v), want (5, true, nil)", count, ok, err)
	}
}

func TestAllowSetContains(t *testing.T) {
	as := NewAllowSet(newTestMap(t, 1))

	if ok, err := as.Contains(0x0A000001); err != nil || ok {
		t.Fatalf("Contains before insert = (%v, %v), want (false, nil)", ok, err)
	}
	if err := as.Insert(0x0A000001); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if ok, err := as.Contains(0x0A000001); err != nil || !ok {
		t.Fatalf("Contains after insert = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestStatsZeroAndRead(t *testing.T) {
	if os.Getuid() != 0 {
		t.Skip("skipping eBPF map test - requires root privileges")
	}
	m, err := ebpf.NewMap(&ebpf.MapSpec{
		Type:       ebpf.Array,
		KeySize:    4,
		ValueSize:  8,
		MaxEntries: 2,
	})
	if err != nil {
		t.Fatalf("NewMap: %v", err)
	}
	defer m.Close()

	st := NewStats(m)
	if err := st.Zero(); err != nil {
		t.Fatalf("Zero: %v", err)
	}
	total, blocked, err := st.Read()
	if err != nil || total != 0 || blocked != 0 {
		t.Fatalf("Read after Zero = (%d, %d, %v), want (0, 0, nil)", total, blocked, err)
	}
}
