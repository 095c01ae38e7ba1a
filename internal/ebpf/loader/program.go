// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package loader

import (
	"time"

	"github.com/cilium/ebpf"

	"ebaf/internal/ebpf/interfaces"
)

// ProgramWrapper wraps an eBPF program to implement interfaces.Program.
type ProgramWrapper struct {
	program *ebpf.Program
}

func NewProgramWrapper(prog *ebpf.Program) *ProgramWrapper {
	return &ProgramWrapper{program: prog}
}

func (p *ProgramWrapper) Info() (interfaces.ProgramInfo, error) {
	info, err := p.program.Info()
	if err != nil {
		return interfaces.ProgramInfo{}, err
	}

	id, _ := info.ID()

	return interfaces.ProgramInfo{
		Name:     info.Name,
		Type:     info.Type.String(),
		Tag:      info.Tag,
		ID:       uint32(id),
		LoadedAt: time.Now(),
	}, nil
}

func (p *ProgramWrapper) GetProgram() *ebpf.Program {
	return p.program
}
