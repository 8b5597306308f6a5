// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// cgfence enforces per-cgroup syscall and egress policy. The daemon
// owns the rule stores and the optional eBPF surfaces; every other
// subcommand talks to it over the control socket.
package main

import (
	"fmt"
	"os"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/aegisflux/cgfence/cmd"
	"github.com/aegisflux/cgfence/internal/brand"
)

const usage = `Usage: %s <command> [flags]

Commands:
  start        Launch the daemon in the background
  stop         Stop the running daemon
  daemon       Run the daemon in the foreground
  add-syscall  Add a syscall denial rule
  add-egress   Add an egress drop rule
  remove       Remove a rule by id
  list         List stored rules
  check        Check whether a rule is active
  stats        Show enforcement counters
  get-cgroup   Print the cgroup id of a process
  version      Print the version

Run '%s <command> --help' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, brand.BinaryName, brand.BinaryName)
		os.Exit(2)
	}

	var err error
	switch command := os.Args[1]; command {
	case "start":
		fs := flag.NewFlagSet("start", flag.ExitOnError)
		configFile := fs.StringP("config", "c", "", "configuration file")
		fs.Parse(os.Args[2:])
		err = cmd.RunStart(*configFile)

	case "stop":
		err = cmd.RunStop()

	case "daemon":
		fs := flag.NewFlagSet("daemon", flag.ExitOnError)
		configFile := fs.StringP("config", "c", "", "configuration file")
		fs.Parse(os.Args[2:])
		err = cmd.RunDaemon(*configFile)

	case "add-syscall":
		fs := flag.NewFlagSet("add-syscall", flag.ExitOnError)
		socket := fs.String("socket", "", "control socket path")
		id := fs.Uint32("id", 0, "rule id")
		cgroup := fs.Uint64("cgroup", 0, "target cgroup id")
		name := fs.String("syscall", "", "syscall name to deny (e.g. execve)")
		ttl := fs.Uint32("ttl", 0, "rule lifetime in seconds (0 = default)")
		fs.Parse(os.Args[2:])
		err = cmd.RunAddSyscall(*socket, *id, *cgroup, *name, *ttl)

	case "add-egress":
		fs := flag.NewFlagSet("add-egress", flag.ExitOnError)
		socket := fs.String("socket", "", "control socket path")
		id := fs.Uint32("id", 0, "rule id")
		cgroup := fs.Uint64("cgroup", 0, "target cgroup id")
		ip := fs.String("ip", "", "destination IPv4 address to drop")
		port := fs.Uint16("port", 0, "destination port (TCP/UDP)")
		ttl := fs.Uint32("ttl", 0, "rule lifetime in seconds (0 = default)")
		fs.Parse(os.Args[2:])
		err = cmd.RunAddEgress(*socket, *id, *cgroup, *ip, *port, *ttl)

	case "remove":
		fs := flag.NewFlagSet("remove", flag.ExitOnError)
		socket := fs.String("socket", "", "control socket path")
		surface := fs.String("surface", "syscall", "rule surface (syscall or egress)")
		id := fs.Uint32("id", 0, "rule id")
		fs.Parse(os.Args[2:])
		err = cmd.RunRemove(*socket, *surface, *id)

	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		socket := fs.String("socket", "", "control socket path")
		surface := fs.String("surface", "syscall", "rule surface (syscall or egress)")
		max := fs.Int("max", 0, "limit output (0 = all)")
		fs.Parse(os.Args[2:])
		err = cmd.RunList(*socket, *surface, *max)

	case "check":
		fs := flag.NewFlagSet("check", flag.ExitOnError)
		socket := fs.String("socket", "", "control socket path")
		surface := fs.String("surface", "syscall", "rule surface (syscall or egress)")
		id := fs.Uint32("id", 0, "rule id")
		fs.Parse(os.Args[2:])
		err = cmd.RunCheck(*socket, *surface, *id)

	case "stats":
		fs := flag.NewFlagSet("stats", flag.ExitOnError)
		socket := fs.String("socket", "", "control socket path")
		fs.Parse(os.Args[2:])
		err = cmd.RunStats(*socket)

	case "get-cgroup":
		if len(os.Args) != 3 {
			fmt.Fprintf(os.Stderr, "Usage: %s get-cgroup <pid>\n", brand.BinaryName)
			os.Exit(2)
		}
		pid, perr := strconv.Atoi(os.Args[2])
		if perr != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid pid %q\n", os.Args[2])
			os.Exit(2)
		}
		err = cmd.RunGetCgroup(pid)

	case "version":
		fmt.Printf("%s %s\n", brand.Name, brand.Version)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", command)
		fmt.Fprintf(os.Stderr, usage, brand.BinaryName, brand.BinaryName)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
