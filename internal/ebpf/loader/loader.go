// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package loader

import (
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/rlimit"

	"ebaf/internal/ebpf/interfaces"
	"ebaf/internal/errors"
	"ebaf/internal/host"
)

// ArtifactFilename is the compiled classifier object ebaf looks for
// along the search-path ladder.
const ArtifactFilename = "ebaf_xdp.o"

const ProgName = "ebaf"

// ProgramClassifier, MapBlockSet, MapAllowSet, MapStats name the
// symbols the compiled artifact must expose (§6 External Interfaces).
const (
	ProgramClassifier = "xdp_blocker"
	MapBlockSet       = "block_set"
	MapAllowSet       = "allow_set"
	MapStats          = "stats"
)

// Loader loads and attaches the classifier.
type Loader struct {
	collection *ebpf.Collection
	link       link.Link
	mutex      sync.Mutex
}

// NewLoader creates a new, empty loader.
func NewLoader() *Loader {
	return &Loader{}
}

// FindArtifact searches the documented path ladder (§4.3 step 2) for
// the compiled classifier object, returning the first hit.
func FindArtifact() (string, error) {
	candidates := []string{
		ArtifactFilename,
		filepath.Join("bin", ArtifactFilename),
		filepath.Join("obj", ArtifactFilename),
	}

	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "..", "obj", ArtifactFilename))
	}

	candidates = append(candidates,
		filepath.Join("/usr/local/bin", ArtifactFilename),
		filepath.Join("/usr/local/share", ProgName, ArtifactFilename),
	)

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}

	return "", errors.Errorf(errors.KindSetupFatal, "classifier artifact %q not found in any search path", ArtifactFilename)
}

// RaiseMemlock raises the process's locked-memory limit to unlimited.
// Per §4.3 step 1, a refusal is resource-soft: log and continue.
func RaiseMemlock() error {
	if err := rlimit.RemoveMemlock(); err != nil {
		return errors.Wrap(err, errors.KindResourceSoft, "failed to raise locked-memory limit")
	}
	return nil
}

// RecommendedJITLimitMB is the JIT limit RaiseJITLimit raises the host
// to when it is lower. VerifyKernelSupport does not use it and ignores
// the non-fatal low-limit finding of host.VerifyBPFSupport.
const RecommendedJITLimitMB = 256

// RaiseJITLimit bumps the host's eBPF JIT memory limit up to
// RecommendedJITLimitMB if it is currently set lower, alongside
// RaiseMemlock in §4.3 step 1. Like the memlock limit, a refusal here
// is resource-soft: the classifier still loads, just with the host's
// existing (possibly low) JIT ceiling.
func RaiseJITLimit() error {
	limit, err := host.GetBPFJITLimit()
	if err != nil {
		return errors.Wrap(err, errors.KindResourceSoft, "failed to read JIT limit")
	}
	if limit >= RecommendedJITLimitMB {
		return nil
	}
	if err := host.SetBPFJITLimit(RecommendedJITLimitMB); err != nil {
		return errors.Wrap(err, errors.KindResourceSoft, "failed to raise JIT limit")
	}
	return nil
}

// LoadFromPath opens and loads the artifact at path, obtaining handles
// to the classifier program and its three maps.
func (l *Loader) LoadFromPath(path string) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.collection != nil {
		return errors.New(errors.KindSetupFatal, "collection already loaded")
	}

	spec, err := ebpf.LoadCollectionSpec(path)
	if err != nil {
		return errors.Wrapf(err, errors.KindSetupFatal, "failed to load collection spec from %s", path)
	}

	collection, err := ebpf.NewCollection(spec)
	if err != nil {
		return errors.Wrap(err, errors.KindSetupFatal, "failed to create collection")
	}

	for _, name := range []string{ProgramClassifier, MapBlockSet, MapAllowSet, MapStats} {
		if _, okProg := collection.Programs[name]; okProg {
			continue
		}
		if _, okMap := collection.Maps[name]; okMap {
			continue
		}
		collection.Close()
		return errors.Errorf(errors.KindSetupFatal, "artifact missing required symbol %q", name)
	}

	l.collection = collection
	return nil
}

// GetProgram returns a handle to the named program.
func (l *Loader) GetProgram(name string) (interfaces.Program, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.collection == nil {
		return nil, errors.New(errors.KindSetupFatal, "no collection loaded")
	}
	prog, ok := l.collection.Programs[name]
	if !ok {
		return nil, errors.Errorf(errors.KindSetupFatal, "program %s not found", name)
	}
	return NewProgramWrapper(prog), nil
}

// GetMap returns a handle to the named map.
func (l *Loader) GetMap(name string) (interfaces.Map, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.collection == nil {
		return nil, errors.New(errors.KindSetupFatal, "no collection loaded")
	}
	m, ok := l.collection.Maps[name]
	if !ok {
		return nil, errors.Errorf(errors.KindSetupFatal, "map %s not found", name)
	}
	return NewMapWrapper(m), nil
}

func (l *Loader) GetProgramInfo(name string) (interfaces.ProgramInfo, error) {
	prog, err := l.GetProgram(name)
	if err != nil {
		return interfaces.ProgramInfo{}, err
	}
	return prog.Info()
}

func (l *Loader) GetMapInfo(name string) (interfaces.MapInfo, error) {
	m, err := l.GetMap(name)
	if err != nil {
		return interfaces.MapInfo{}, err
	}
	return m.Info()
}

func (l *Loader) GetCollection() *ebpf.Collection {
	return l.collection
}

// Attach attaches the named program to iface using the attach-mode
// ladder of §4.3 step 6: driver-native, then generic (SKB), then host
// default. The first success wins and earlier failed modes are not
// reported; if every mode fails, only the last mode's error is returned,
// wrapped as setup-fatal. No failure is treated differently from
// "operation not supported".
func (l *Loader) Attach(name, iface string) (string, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.collection == nil {
		return "", errors.New(errors.KindSetupFatal, "no collection loaded")
	}
	prog, ok := l.collection.Programs[name]
	if !ok {
		return "", errors.Errorf(errors.KindSetupFatal, "program %s not found", name)
	}

	ifaceObj, err := net.InterfaceByName(iface)
	if err != nil {
		return "", errors.Wrapf(err, errors.KindSetupFatal, "interface %s not found", iface)
	}

	ladder := []struct {
		mode  string
		flags link.XDPAttachFlags
	}{
		{"driver", link.XDPDriverMode},
		{"generic", link.XDPGenericMode},
		{"default", 0},
	}

	var lastErr error
	for _, rung := range ladder {
		lnk, err := link.AttachXDP(link.XDPOptions{
			Program:   prog,
			Interface: ifaceObj.Index,
			Flags:     rung.flags,
		})
		if err == nil {
			l.link = lnk
			return rung.mode, nil
		}
		lastErr = err
	}

	return "", errors.Wrapf(lastErr, errors.KindSetupFatal, "attach failed in all modes on %s", iface)
}

// Detach is idempotent: it is safe to call with nothing attached.
func (l *Loader) Detach() error {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.link == nil {
		return nil
	}
	err := l.link.Close()
	l.link = nil
	if err != nil {
		return errors.Wrap(err, errors.KindShutdown, "failed to detach classifier")
	}
	return nil
}

// Close detaches (if attached) and releases the collection.
func (l *Loader) Close() error {
	detachErr := l.Detach()

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.collection != nil {
		l.collection.Close()
		l.collection = nil
	}

	return detachErr
}

func (l *Loader) IsLoaded() bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.collection != nil
}

// VerifyKernelSupport checks whether the host meets eBPF requirements,
// returning a setup-fatal error only for fatal findings.
func VerifyKernelSupport() error {
	issues := host.VerifyBPFSupport()
	for _, issue := range issues {
		if issue.Fatal {
			return errors.Errorf(errors.KindSetupFatal, "kernel support verification failed: %s", issue.Message)
		}
	}
	return nil
}
