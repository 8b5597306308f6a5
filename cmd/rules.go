// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/aegisflux/cgfence/internal/brand"
	"github.com/aegisflux/cgfence/internal/ctlplane"
	"github.com/aegisflux/cgfence/internal/errors"
	"github.com/aegisflux/cgfence/internal/syscalls"
)

func dial(socketPath string) (*ctlplane.Client, error) {
	if socketPath == "" {
		socketPath = brand.SocketPath()
	}
	return ctlplane.Dial(socketPath)
}

// RunAddSyscall installs a syscall denial rule via the daemon.
func RunAddSyscall(socketPath string, id uint32, cgroup uint64, syscallName string, ttl uint32) error {
	// Reject unknown names before dialing; the daemon would refuse
	// them anyway, but this keeps typos off the daemon log.
	if !syscalls.Valid(syscallName) {
		return fmt.Errorf("unknown syscall %q", syscallName)
	}

	cl, err := dial(socketPath)
	if err != nil {
		return err
	}
	defer cl.Close()

	if err := cl.AddSyscallRule(ctlplane.AddSyscallRuleArgs{
		RuleID:     id,
		CgroupID:   cgroup,
		Syscall:    syscallName,
		TTLSeconds: ttl,
	}); err != nil {
		if errors.IsCapacity(err) {
			return fmt.Errorf("rule table is full; remove a rule first (%v)", err)
		}
		return err
	}
	fmt.Printf("Added syscall rule %d: deny %s for cgroup %d\n", id, syscallName, cgroup)
	return nil
}

// RunAddEgress installs an egress drop rule via the daemon.
func RunAddEgress(socketPath string, id uint32, cgroup uint64, dstIP string, dstPort uint16, ttl uint32) error {
	cl, err := dial(socketPath)
	if err != nil {
		return err
	}
	defer cl.Close()

	if err := cl.AddEgressRule(ctlplane.AddEgressRuleArgs{
		RuleID:     id,
		CgroupID:   cgroup,
		DstIP:      dstIP,
		DstPort:    dstPort,
		TTLSeconds: ttl,
	}); err != nil {
		if errors.IsCapacity(err) {
			return fmt.Errorf("rule table is full; remove a rule first (%v)", err)
		}
		return err
	}
	fmt.Printf("Added egress rule %d: drop %s:%d for cgroup %d\n", id, dstIP, dstPort, cgroup)
	return nil
}

// RunRemove removes a rule by id.
func RunRemove(socketPath, surface string, id uint32) error {
	cl, err := dial(socketPath)
	if err != nil {
		return err
	}
	defer cl.Close()

	if err := cl.RemoveRule(surface, id); err != nil {
		if errors.IsNotFound(err) {
			return fmt.Errorf("rule %d does not exist", id)
		}
		return err
	}
	fmt.Printf("Removed rule %d\n", id)
	return nil
}

// RunList prints the stored rules of one surface.
func RunList(socketPath, surface string, max int) error {
	cl, err := dial(socketPath)
	if err != nil {
		return err
	}
	defer cl.Close()

	infos, err := cl.ListRules(surface, max)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Println("No rules.")
		return nil
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].RuleID < infos[j].RuleID })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCGROUP\tMATCH\tTTL\tSTATE")
	for _, r := range infos {
		state := "active"
		if !r.Active {
			state = "expired"
		}
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\n",
			r.RuleID, r.CgroupID, r.Criteria,
			time.Duration(r.TTLSeconds)*time.Second, state)
	}
	return w.Flush()
}

// RunCheck reports whether a rule is live. Exit status carries the
// answer for scripting; the message is for humans.
func RunCheck(socketPath, surface string, id uint32) error {
	cl, err := dial(socketPath)
	if err != nil {
		return err
	}
	defer cl.Close()

	active, err := cl.CheckRule(surface, id)
	if err != nil {
		return err
	}
	if !active {
		fmt.Printf("Rule %d is not active\n", id)
		os.Exit(1)
	}
	fmt.Printf("Rule %d is active\n", id)
	return nil
}

// RunStats prints the counter totals for both surfaces.
func RunStats(socketPath string) error {
	cl, err := dial(socketPath)
	if err != nil {
		return err
	}
	defer cl.Close()

	stats, err := cl.GetStats()
	if err != nil {
		return err
	}
	printTotals("syscall", stats.Syscall)
	printTotals("egress", stats.Egress)
	return nil
}

func printTotals(surface string, totals map[string]uint64) {
	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Printf("%s:\n", surface)
	for _, name := range names {
		fmt.Printf("  %-20s %d\n", name, totals[name])
	}
}
