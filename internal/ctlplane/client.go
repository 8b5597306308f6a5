// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package ctlplane

import (
	"net/rpc"

	"github.com/aegisflux/cgfence/internal/errors"
)

// Client talks to a running daemon's control plane socket.
type Client struct {
	rpc *rpc.Client
}

// Dial connects to the daemon at socketPath. A connection failure is
// KindUnavailable, which the CLI turns into "is the daemon running?".
func Dial(socketPath string) (*Client, error) {
	c, err := rpc.Dial("unix", socketPath)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindUnavailable, "connecting to %s", socketPath)
	}
	return &Client{rpc: c}, nil
}

// Close closes the connection.
func (c *Client) Close() error { return c.rpc.Close() }

// AddSyscallRule installs a syscall denial rule.
func (c *Client) AddSyscallRule(args AddSyscallRuleArgs) error {
	var reply AddRuleReply
	return decodeErr(c.rpc.Call("Server.AddSyscallRule", &args, &reply))
}

// AddEgressRule installs an egress drop rule.
func (c *Client) AddEgressRule(args AddEgressRuleArgs) error {
	var reply AddRuleReply
	return decodeErr(c.rpc.Call("Server.AddEgressRule", &args, &reply))
}

// RemoveRule removes a rule by id.
func (c *Client) RemoveRule(surface string, id uint32) error {
	var reply RemoveRuleReply
	args := RemoveRuleArgs{Surface: surface, RuleID: id}
	return decodeErr(c.rpc.Call("Server.RemoveRule", &args, &reply))
}

// ListRules returns up to max stored rules for surface.
func (c *Client) ListRules(surface string, max int) ([]RuleInfo, error) {
	var reply ListRulesReply
	args := ListRulesArgs{Surface: surface, MaxCount: max}
	if err := c.rpc.Call("Server.ListRules", &args, &reply); err != nil {
		return nil, decodeErr(err)
	}
	return reply.Rules, nil
}

// CheckRule reports whether a rule exists and is live.
func (c *Client) CheckRule(surface string, id uint32) (bool, error) {
	var reply CheckRuleReply
	args := CheckRuleArgs{Surface: surface, RuleID: id}
	if err := c.rpc.Call("Server.CheckRule", &args, &reply); err != nil {
		return false, decodeErr(err)
	}
	return reply.Active, nil
}

// GetStats returns the summed counters for both surfaces.
func (c *Client) GetStats() (*StatsReply, error) {
	var reply StatsReply
	if err := c.rpc.Call("Server.GetStats", &StatsArgs{}, &reply); err != nil {
		return nil, decodeErr(err)
	}
	return &reply, nil
}
