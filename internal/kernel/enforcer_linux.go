// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

//go:build linux

package kernel

import (
	"log"
	"net"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"github.com/cilium/ebpf/rlimit"

	"github.com/aegisflux/cgfence/internal/config"
	"github.com/aegisflux/cgfence/internal/errors"
	"github.com/aegisflux/cgfence/internal/rules"
)

// surface holds one loaded BPF object and its attachments.
type surface struct {
	coll    *ebpf.Collection
	links   []link.Link
	configs *ebpf.Map
	cgroups *ebpf.Map
	stats   *ebpf.Map
}

func (s *surface) close() {
	for _, l := range s.links {
		l.Close()
	}
	if s.coll != nil {
		s.coll.Close()
	}
}

// Enforcer loads the BPF objects and keeps their maps in sync with the
// userspace rule stores.
type Enforcer struct {
	syscall *surface
	egress  *surface
}

// New loads and attaches the surfaces named in cfg. Either surface may
// be absent; an Enforcer with no surfaces is never returned.
func New(cfg *config.KernelConfig) (*Enforcer, error) {
	if err := rlimit.RemoveMemlock(); err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "removing memlock limit")
	}

	e := &Enforcer{}
	if cfg.SyscallObject != "" {
		s, err := loadSyscallSurface(cfg.SyscallObject, cfg.AttachMode)
		if err != nil {
			return nil, err
		}
		e.syscall = s
		log.Printf("[kernel] syscall surface attached (%s)", cfg.AttachMode)
	}
	if cfg.EgressObject != "" {
		s, err := loadEgressSurface(cfg.EgressObject, cfg.Interface)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.egress = s
		log.Printf("[kernel] egress surface attached to %s", cfg.Interface)
	}
	if e.syscall == nil && e.egress == nil {
		return nil, errors.New(errors.KindValidation, "no kernel surface configured")
	}
	return e, nil
}

func loadObject(path string) (*ebpf.Collection, error) {
	spec, err := ebpf.LoadCollectionSpec(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindInternal, "reading BPF object %s", path)
	}
	coll, err := ebpf.NewCollection(spec)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindInternal, "loading BPF object %s", path)
	}
	return coll, nil
}

func surfaceMaps(coll *ebpf.Collection, configMap string) (*surface, error) {
	s := &surface{coll: coll}
	for name, dst := range map[string]**ebpf.Map{
		configMap:      &s.configs,
		mapCgroupRules: &s.cgroups,
		mapStats:       &s.stats,
	} {
		m, ok := coll.Maps[name]
		if !ok {
			coll.Close()
			return nil, errors.Errorf(errors.KindInternal, "BPF object missing map %q", name)
		}
		*dst = m
	}
	return s, nil
}

func loadSyscallSurface(path, attachMode string) (*surface, error) {
	coll, err := loadObject(path)
	if err != nil {
		return nil, err
	}
	s, err := surfaceMaps(coll, mapDenyConfigs)
	if err != nil {
		return nil, err
	}

	// execve is hooked via LSM or kprobe per attachMode; ptrace is
	// always the kprobe, the objects carry no LSM variant for it.
	switch attachMode {
	case "lsm":
		prog, ok := coll.Programs[progDenyExecveLSM]
		if !ok {
			s.close()
			return nil, errors.Errorf(errors.KindInternal, "BPF object missing program %q", progDenyExecveLSM)
		}
		l, err := link.AttachLSM(link.LSMOptions{Program: prog})
		if err != nil {
			s.close()
			return nil, errors.Wrap(err, errors.KindInternal, "attaching LSM hook")
		}
		s.links = append(s.links, l)
	case "kprobe":
		prog, ok := coll.Programs[progDenyExecveKprobe]
		if !ok {
			s.close()
			return nil, errors.Errorf(errors.KindInternal, "BPF object missing program %q", progDenyExecveKprobe)
		}
		l, err := link.Kprobe("__x64_sys_execve", prog, nil)
		if err != nil {
			s.close()
			return nil, errors.Wrap(err, errors.KindInternal, "attaching kprobe __x64_sys_execve")
		}
		s.links = append(s.links, l)
	default:
		s.close()
		return nil, errors.Errorf(errors.KindValidation, "unknown attach mode %q", attachMode)
	}

	prog, ok := coll.Programs[progDenyPtrace]
	if !ok {
		s.close()
		return nil, errors.Errorf(errors.KindInternal, "BPF object missing program %q", progDenyPtrace)
	}
	l, err := link.Kprobe("__x64_sys_ptrace", prog, nil)
	if err != nil {
		s.close()
		return nil, errors.Wrap(err, errors.KindInternal, "attaching kprobe __x64_sys_ptrace")
	}
	s.links = append(s.links, l)
	return s, nil
}

func loadEgressSurface(path, ifname string) (*surface, error) {
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindValidation, "resolving interface %s", ifname)
	}
	coll, err := loadObject(path)
	if err != nil {
		return nil, err
	}
	s, err := surfaceMaps(coll, mapDropConfigs)
	if err != nil {
		return nil, err
	}
	prog, ok := coll.Programs[progDropEgress]
	if !ok {
		s.close()
		return nil, errors.Errorf(errors.KindInternal, "BPF object missing program %q", progDropEgress)
	}
	l, err := link.AttachXDP(link.XDPOptions{Program: prog, Interface: iface.Index})
	if err != nil {
		s.close()
		return nil, errors.Wrapf(err, errors.KindInternal, "attaching XDP to %s", ifname)
	}
	s.links = append(s.links, l)
	return s, nil
}

// PutSyscallRule writes the rule into the syscall surface maps, config
// record first so a racing lookup never sees a dangling link.
func (e *Enforcer) PutSyscallRule(cfg rules.RuleConfig[rules.SyscallCriteria]) error {
	if e.syscall == nil {
		return nil
	}
	rec := newDenyConfig(cfg)
	if err := e.syscall.configs.Put(uint32(cfg.ID), rec); err != nil {
		return errors.Wrapf(err, errors.KindInternal, "writing deny config %d", cfg.ID)
	}
	if err := e.syscall.cgroups.Put(uint64(cfg.Cgroup), uint32(cfg.ID)); err != nil {
		e.syscall.configs.Delete(uint32(cfg.ID))
		return errors.Wrapf(err, errors.KindInternal, "linking cgroup %d", cfg.Cgroup)
	}
	return nil
}

// DeleteSyscallRule removes the rule from the syscall surface maps. The
// link is released only if it still points at id.
func (e *Enforcer) DeleteSyscallRule(id rules.RuleID, cg rules.CgroupID) error {
	if e.syscall == nil {
		return nil
	}
	return deleteRule(e.syscall, uint32(id), uint64(cg))
}

// PutEgressRule writes the rule into the egress surface maps.
func (e *Enforcer) PutEgressRule(cfg rules.RuleConfig[rules.DestinationCriteria]) error {
	if e.egress == nil {
		return nil
	}
	rec := newDropConfig(cfg)
	if err := e.egress.configs.Put(uint32(cfg.ID), rec); err != nil {
		return errors.Wrapf(err, errors.KindInternal, "writing drop config %d", cfg.ID)
	}
	if err := e.egress.cgroups.Put(uint64(cfg.Cgroup), uint32(cfg.ID)); err != nil {
		e.egress.configs.Delete(uint32(cfg.ID))
		return errors.Wrapf(err, errors.KindInternal, "linking cgroup %d", cfg.Cgroup)
	}
	return nil
}

// DeleteEgressRule removes the rule from the egress surface maps.
func (e *Enforcer) DeleteEgressRule(id rules.RuleID, cg rules.CgroupID) error {
	if e.egress == nil {
		return nil
	}
	return deleteRule(e.egress, uint32(id), uint64(cg))
}

func deleteRule(s *surface, id uint32, cg uint64) error {
	var linked uint32
	if err := s.cgroups.Lookup(cg, &linked); err == nil && linked == id {
		s.cgroups.Delete(cg)
	}
	if err := s.configs.Delete(id); err != nil && !errors.Is(err, ebpf.ErrKeyNotExist) {
		return errors.Wrapf(err, errors.KindInternal, "deleting config %d", id)
	}
	return nil
}

// SyscallStats sums the syscall surface per-CPU counters. The stats
// map holds one counter struct per CPU under key 0.
func (e *Enforcer) SyscallStats() (map[string]uint64, error) {
	if e.syscall == nil {
		return map[string]uint64{}, nil
	}
	var perCPU []syscallStats
	if err := e.syscall.stats.Lookup(uint32(0), &perCPU); err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "reading syscall stats")
	}
	return sumSyscallStats(perCPU), nil
}

// EgressStats sums the egress surface per-CPU counters.
func (e *Enforcer) EgressStats() (map[string]uint64, error) {
	if e.egress == nil {
		return map[string]uint64{}, nil
	}
	var perCPU []egressStats
	if err := e.egress.stats.Lookup(uint32(0), &perCPU); err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, "reading egress stats")
	}
	return sumEgressStats(perCPU), nil
}

// Close detaches all hooks and closes the objects.
func (e *Enforcer) Close() {
	if e.syscall != nil {
		e.syscall.close()
		e.syscall = nil
	}
	if e.egress != nil {
		e.egress.close()
		e.egress = nil
	}
}
