// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package config loads the daemon's HCL configuration.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/hclsimple"

	"github.com/aegisflux/cgfence/internal/brand"
	"github.com/aegisflux/cgfence/internal/errors"
	"github.com/aegisflux/cgfence/internal/rules"
)

// Config is the daemon configuration.
type Config struct {
	// SocketPath overrides the control plane socket location.
	SocketPath string `hcl:"socket_path,optional"`
	// MetricsAddr enables the Prometheus endpoint when non-empty,
	// e.g. "127.0.0.1:9440".
	MetricsAddr string `hcl:"metrics_addr,optional"`
	// MaxRules bounds each rule table.
	MaxRules int `hcl:"max_rules,optional"`

	Kernel *KernelConfig `hcl:"kernel,block"`
}

// KernelConfig describes the eBPF enforcement surface. When absent or
// disabled the daemon runs the userspace engine only, which is what the
// tests and the simulator use.
type KernelConfig struct {
	Enabled bool `hcl:"enabled,optional"`

	// SyscallObject and EgressObject are paths to the compiled BPF
	// object files for the two surfaces. An empty path skips that
	// surface.
	SyscallObject string `hcl:"syscall_object,optional"`
	EgressObject  string `hcl:"egress_object,optional"`

	// AttachMode selects how the syscall surface hooks the kernel:
	// "lsm" (bprm_check_security) or "kprobe" (__x64_sys_* entry).
	AttachMode string `hcl:"attach_mode,optional"`

	// Interface is the device the egress XDP program attaches to.
	Interface string `hcl:"interface,optional"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		SocketPath: brand.SocketPath(),
		MaxRules:   rules.DefaultMaxRules,
	}
}

// Load reads path and applies defaults. A missing file yields the
// default configuration rather than an error, so a bare daemon start
// works without setup.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	if err := hclsimple.DecodeFile(path, nil, cfg); err != nil {
		return nil, errors.Wrapf(err, errors.KindValidation, "parsing %s", path)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.SocketPath == "" {
		c.SocketPath = brand.SocketPath()
	}
	if c.MaxRules == 0 {
		c.MaxRules = rules.DefaultMaxRules
	}
	if c.Kernel != nil && c.Kernel.AttachMode == "" {
		c.Kernel.AttachMode = "lsm"
	}
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	if c.MaxRules < 0 {
		return errors.New(errors.KindValidation, "max_rules must be positive")
	}
	if k := c.Kernel; k != nil && k.Enabled {
		switch k.AttachMode {
		case "lsm", "kprobe":
		default:
			return errors.Errorf(errors.KindValidation,
				"attach_mode must be \"lsm\" or \"kprobe\", got %q", k.AttachMode)
		}
		if k.SyscallObject == "" && k.EgressObject == "" {
			return errors.New(errors.KindValidation,
				"kernel enforcement enabled but no BPF object configured")
		}
		if k.EgressObject != "" && k.Interface == "" {
			return errors.New(errors.KindValidation,
				"egress enforcement requires an interface")
		}
	}
	return nil
}

// String summarizes the config for startup logging.
func (c *Config) String() string {
	kernel := "disabled"
	if c.Kernel != nil && c.Kernel.Enabled {
		kernel = c.Kernel.AttachMode
	}
	return fmt.Sprintf("socket=%s max_rules=%d kernel=%s", c.SocketPath, c.MaxRules, kernel)
}
