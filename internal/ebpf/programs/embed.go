// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package programs holds the bpf2go generator directive for the
// classifier. ebaf does not embed the generated object at Go compile
// time: §4.3 requires locating a standalone compiled artifact on disk
// through a runtime search-path ladder, so the generated .o lives
// next to the binary rather than behind go:embed. Run `go generate`
// after editing c/ebaf_xdp.c, then copy the resulting ebafxdp_bpfel.o,
// renamed to ebaf_xdp.o (loader.ArtifactFilename), to one of the
// search-path locations documented in internal/ebpf/loader.
package programs

//go:generate go run github.com/cilium/ebpf/cmd/bpf2go@latest --no-strip --target=bpfel EbafXdp c/ebaf_xdp.c -- -O2 -target bpf -I.
