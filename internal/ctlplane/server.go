// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package ctlplane exposes the rule control plane over an RPC socket.
// The server is the only process allowed to mutate the rule stores; the
// CLI talks to it through Client. Wire surface: AddSyscallRule,
// AddEgressRule, RemoveRule, ListRules, CheckRule, GetStats.
package ctlplane

import (
	"log"
	"net"
	"net/rpc"
	"os"
	"sync"

	"github.com/aegisflux/cgfence/internal/clock"
	"github.com/aegisflux/cgfence/internal/errors"
	"github.com/aegisflux/cgfence/internal/rules"
)

// Enforcer mirrors control-plane mutations into the kernel maps and
// reads the kernel's per-CPU statistics. Implemented by the eBPF
// surface; nil when the daemon runs userspace-only.
type Enforcer interface {
	PutSyscallRule(cfg rules.RuleConfig[rules.SyscallCriteria]) error
	DeleteSyscallRule(id rules.RuleID, cg rules.CgroupID) error
	PutEgressRule(cfg rules.RuleConfig[rules.DestinationCriteria]) error
	DeleteEgressRule(id rules.RuleID, cg rules.CgroupID) error
	SyscallStats() (map[string]uint64, error)
	EgressStats() (map[string]uint64, error)
}

// Server is the privileged control plane. It owns both enforcement
// surfaces and serializes nothing: the managers' per-table atomicity is
// the whole concurrency contract.
type Server struct {
	syscalls *rules.SyscallSurface
	egress   *rules.EgressSurface
	clock    clock.Clock
	enforcer Enforcer

	mu       sync.Mutex
	listener net.Listener
	done     chan struct{}
}

// NewServer creates a server over the two surfaces. enforcer may be
// nil.
func NewServer(sys *rules.SyscallSurface, eg *rules.EgressSurface, clk clock.Clock, enforcer Enforcer) *Server {
	return &Server{
		syscalls: sys,
		egress:   eg,
		clock:    clk,
		enforcer: enforcer,
		done:     make(chan struct{}),
	}
}

// AddSyscallRule installs a syscall denial rule.
func (s *Server) AddSyscallRule(args *AddSyscallRuleArgs, _ *AddRuleReply) error {
	crit, err := rules.SyscallCriteriaFromName(args.Syscall)
	if err != nil {
		return encodeErr(err)
	}
	id, cg := rules.RuleID(args.RuleID), rules.CgroupID(args.CgroupID)
	if err := s.syscalls.Manager.Add(id, cg, crit, args.TTLSeconds); err != nil {
		return encodeErr(err)
	}
	if s.enforcer != nil {
		cfg, _ := s.syscalls.Manager.Get(id)
		if err := s.enforcer.PutSyscallRule(cfg); err != nil {
			// Kernel mirror is the second phase; unwind the userspace
			// write so a failed add leaves no partial state.
			s.syscalls.Manager.Remove(id)
			log.Printf("[ctlplane] kernel mirror failed for rule %d: %v", id, err)
			return encodeErr(errors.Wrap(err, errors.KindInternal, "kernel mirror"))
		}
	}
	log.Printf("[ctlplane] added syscall rule %d: cgroup=%d %s ttl=%ds",
		id, cg, crit, args.TTLSeconds)
	return nil
}

// AddEgressRule installs an egress drop rule.
func (s *Server) AddEgressRule(args *AddEgressRuleArgs, _ *AddRuleReply) error {
	crit, err := rules.DestinationFromString(args.DstIP, args.DstPort)
	if err != nil {
		return encodeErr(err)
	}
	id, cg := rules.RuleID(args.RuleID), rules.CgroupID(args.CgroupID)
	if err := s.egress.Manager.Add(id, cg, crit, args.TTLSeconds); err != nil {
		return encodeErr(err)
	}
	if s.enforcer != nil {
		cfg, _ := s.egress.Manager.Get(id)
		if err := s.enforcer.PutEgressRule(cfg); err != nil {
			s.egress.Manager.Remove(id)
			log.Printf("[ctlplane] kernel mirror failed for rule %d: %v", id, err)
			return encodeErr(errors.Wrap(err, errors.KindInternal, "kernel mirror"))
		}
	}
	log.Printf("[ctlplane] added egress rule %d: cgroup=%d %s ttl=%ds",
		id, cg, crit, args.TTLSeconds)
	return nil
}

// RemoveRule removes a rule from one surface.
func (s *Server) RemoveRule(args *RemoveRuleArgs, _ *RemoveRuleReply) error {
	id := rules.RuleID(args.RuleID)
	switch args.Surface {
	case SurfaceSyscall, "":
		cfg, ok := s.syscalls.Manager.Get(id)
		if err := s.syscalls.Manager.Remove(id); err != nil {
			return encodeErr(err)
		}
		if s.enforcer != nil && ok {
			if err := s.enforcer.DeleteSyscallRule(id, cfg.Cgroup); err != nil {
				log.Printf("[ctlplane] kernel delete failed for rule %d: %v", id, err)
			}
		}
	case SurfaceEgress:
		cfg, ok := s.egress.Manager.Get(id)
		if err := s.egress.Manager.Remove(id); err != nil {
			return encodeErr(err)
		}
		if s.enforcer != nil && ok {
			if err := s.enforcer.DeleteEgressRule(id, cfg.Cgroup); err != nil {
				log.Printf("[ctlplane] kernel delete failed for rule %d: %v", id, err)
			}
		}
	default:
		return encodeErr(errors.Errorf(errors.KindValidation, "unknown surface %q", args.Surface))
	}
	log.Printf("[ctlplane] removed rule %d (%s)", id, args.Surface)
	return nil
}

// ListRules returns up to MaxCount stored rules. Expired entries are
// included, flagged inactive; listing shows raw stored state.
func (s *Server) ListRules(args *ListRulesArgs, reply *ListRulesReply) error {
	now := s.clock.NowNS()
	switch args.Surface {
	case SurfaceSyscall, "":
		for _, cfg := range s.syscalls.Manager.List(args.MaxCount) {
			reply.Rules = append(reply.Rules, RuleInfo{
				RuleID:      uint32(cfg.ID),
				CgroupID:    uint64(cfg.Cgroup),
				Surface:     SurfaceSyscall,
				Criteria:    cfg.Criteria.String(),
				TTLSeconds:  cfg.TTLSeconds,
				CreatedAtNS: cfg.CreatedAtNS,
				Active:      !cfg.Expired(now),
			})
		}
	case SurfaceEgress:
		for _, cfg := range s.egress.Manager.List(args.MaxCount) {
			reply.Rules = append(reply.Rules, RuleInfo{
				RuleID:      uint32(cfg.ID),
				CgroupID:    uint64(cfg.Cgroup),
				Surface:     SurfaceEgress,
				Criteria:    cfg.Criteria.String(),
				TTLSeconds:  cfg.TTLSeconds,
				CreatedAtNS: cfg.CreatedAtNS,
				Active:      !cfg.Expired(now),
			})
		}
	default:
		return encodeErr(errors.Errorf(errors.KindValidation, "unknown surface %q", args.Surface))
	}
	return nil
}

// CheckRule reports whether a rule exists and is live, evicting it if
// its TTL elapsed.
func (s *Server) CheckRule(args *CheckRuleArgs, reply *CheckRuleReply) error {
	switch args.Surface {
	case SurfaceSyscall, "":
		reply.Active = s.syscalls.Manager.IsActive(rules.RuleID(args.RuleID))
	case SurfaceEgress:
		reply.Active = s.egress.Manager.IsActive(rules.RuleID(args.RuleID))
	default:
		return encodeErr(errors.Errorf(errors.KindValidation, "unknown surface %q", args.Surface))
	}
	return nil
}

// GetStats returns the summed counters for both surfaces. Kernel
// per-CPU values are folded in when enforcement is active.
func (s *Server) GetStats(_ *StatsArgs, reply *StatsReply) error {
	reply.Syscall = s.syscalls.Manager.Stats()
	reply.Egress = s.egress.Manager.Stats()
	if s.enforcer != nil {
		if ks, err := s.enforcer.SyscallStats(); err == nil {
			for k, v := range ks {
				reply.Syscall[k] += v
			}
		} else {
			log.Printf("[ctlplane] kernel syscall stats unavailable: %v", err)
		}
		if ks, err := s.enforcer.EgressStats(); err == nil {
			for k, v := range ks {
				reply.Egress[k] += v
			}
		} else {
			log.Printf("[ctlplane] kernel egress stats unavailable: %v", err)
		}
	}
	return nil
}

// Start listens on socketPath and serves RPC connections until Stop.
func (s *Server) Start(socketPath string) error {
	// A stale socket from an unclean shutdown blocks the listen.
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.KindInternal, "removing stale socket %s", socketPath)
	}

	srv := rpc.NewServer()
	if err := srv.RegisterName("Server", s); err != nil {
		return errors.Wrap(err, errors.KindInternal, "registering rpc server")
	}

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return errors.Wrapf(err, errors.KindInternal, "listening on %s", socketPath)
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		ln.Close()
		return errors.Wrap(err, errors.KindInternal, "restricting socket permissions")
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	log.Printf("[ctlplane] listening on %s", socketPath)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-s.done:
					return
				default:
					log.Printf("[ctlplane] accept: %v", err)
					return
				}
			}
			go srv.ServeConn(conn)
		}
	}()
	return nil
}

// Stop closes the listener and removes the socket.
func (s *Server) Stop() {
	close(s.done)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		addr := s.listener.Addr().String()
		s.listener.Close()
		os.Remove(addr)
		s.listener = nil
	}
}
