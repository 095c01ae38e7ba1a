// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package loader

import (
	"github.com/cilium/ebpf"

	"ebaf/internal/ebpf/interfaces"
)

// MapWrapper wraps an eBPF map to implement interfaces.Map.
type MapWrapper struct {
	ebpfMap *ebpf.Map
}

func NewMapWrapper(m *ebpf.Map) *MapWrapper {
	return &MapWrapper{ebpfMap: m}
}

func (m *MapWrapper) Info() (interfaces.MapInfo, error) {
	info, err := m.ebpfMap.Info()
	if err != nil {
		return interfaces.MapInfo{}, err
	}

	return interfaces.MapInfo{
		Name:       info.Name,
		Type:       info.Type.String(),
		KeySize:    info.KeySize,
		ValueSize:  info.ValueSize,
		MaxEntries: info.MaxEntries,
	}, nil
}

func (m *MapWrapper) GetMap() *ebpf.Map {
	return m.ebpfMap
}
