// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package interfaces

import (
	"time"

	"github.com/cilium/ebpf"
)

// Program represents an eBPF program handle.
type Program interface {
	Info() (ProgramInfo, error)
}

// Map represents an eBPF map handle.
type Map interface {
	Info() (MapInfo, error)
	GetMap() *ebpf.Map
}

// ProgramInfo describes a loaded program.
type ProgramInfo struct {
	Name     string
	Type     string
	Tag      string
	ID       uint32
	LoadedAt time.Time
}

// MapInfo describes a loaded map.
type MapInfo struct {
	Name       string
	Type       string
	KeySize    uint32
	ValueSize  uint32
	MaxEntries uint32
}

// Loader loads the classifier artifact, hands out map/program handles,
// and attaches the classifier program to an interface.
type Loader interface {
	LoadFromPath(path string) error
	GetProgram(name string) (Program, error)
	GetMap(name string) (Map, error)
	GetProgramInfo(name string) (ProgramInfo, error)
	GetMapInfo(name string) (MapInfo, error)
	GetCollection() *ebpf.Collection
	// Attach attaches the named program to iface using the attach-mode
	// ladder; it returns which mode succeeded.
	Attach(name, iface string) (string, error)
	// Detach is idempotent: calling it with nothing attached is a no-op.
	Detach() error
	Close() error
	IsLoaded() bool
}
