// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aegisflux/cgfence/internal/errors"
	"github.com/aegisflux/cgfence/internal/rules"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cgfence.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.hcl"))
	require.NoError(t, err)
	assert.Equal(t, rules.DefaultMaxRules, cfg.MaxRules)
	assert.NotEmpty(t, cfg.SocketPath)
	assert.Nil(t, cfg.Kernel)
}

func TestLoadFull(t *testing.T) {
	path := writeConfig(t, `
socket_path  = "/tmp/test-cgfence.sock"
metrics_addr = "127.0.0.1:9440"
max_rules    = 64

kernel {
  enabled        = true
  syscall_object = "/usr/lib/cgfence/deny_syscall_for_cgroup.bpf.o"
  attach_mode    = "kprobe"
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test-cgfence.sock", cfg.SocketPath)
	assert.Equal(t, "127.0.0.1:9440", cfg.MetricsAddr)
	assert.Equal(t, 64, cfg.MaxRules)
	require.NotNil(t, cfg.Kernel)
	assert.Equal(t, "kprobe", cfg.Kernel.AttachMode)
}

func TestLoadDefaultsAttachMode(t *testing.T) {
	path := writeConfig(t, `
kernel {
  enabled        = true
  syscall_object = "/tmp/x.o"
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "lsm", cfg.Kernel.AttachMode)
}

func TestLoadRejectsBadAttachMode(t *testing.T) {
	path := writeConfig(t, `
kernel {
  enabled        = true
  syscall_object = "/tmp/x.o"
  attach_mode    = "tracepoint"
}
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.GetKind(err))
}

func TestLoadRejectsKernelWithoutObjects(t *testing.T) {
	path := writeConfig(t, `
kernel {
  enabled = true
}
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.GetKind(err))
}

func TestLoadRejectsEgressWithoutInterface(t *testing.T) {
	path := writeConfig(t, `
kernel {
  enabled       = true
  egress_object = "/tmp/drop.o"
}
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMalformedHCL(t *testing.T) {
	path := writeConfig(t, `max_rules = {{`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.GetKind(err))
}
