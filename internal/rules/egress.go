// Copyright (c) 2026 AegisFlux. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package rules

import (
	"fmt"
	"net/netip"

	"github.com/aegisflux/cgfence/internal/clock"
	"github.com/aegisflux/cgfence/internal/errors"
)

// IP protocol numbers the port comparison applies to.
const (
	ProtoTCP uint8 = 6
	ProtoUDP uint8 = 17
)

// CounterBytesDropped accounts the payload length of dropped packets.
const CounterBytesDropped Counter = 2

// EgressCounterNames orders the egress surface counters by index.
var EgressCounterNames = []string{
	"packets_processed",
	"packets_dropped",
	"bytes_dropped",
}

// PacketEvent is an outbound IPv4 packet attributed to a cgroup.
type PacketEvent struct {
	DstIP   uint32 // big-endian value, 8.8.8.8 == 0x08080808
	DstPort uint16
	Proto   uint8
	Length  uint32
}

// DestinationCriteria drops packets to one destination. The port only
// participates in the match for TCP and UDP; other protocols match on
// IP alone.
type DestinationCriteria struct {
	IP   uint32 // big-endian value
	Port uint16
}

// DestinationFromAddr builds criteria from a parsed IPv4 address.
func DestinationFromAddr(addr netip.Addr, port uint16) (DestinationCriteria, error) {
	if !addr.Is4() {
		return DestinationCriteria{}, errors.Errorf(errors.KindValidation,
			"destination %s is not an IPv4 address", addr)
	}
	a4 := addr.As4()
	ip := uint32(a4[0])<<24 | uint32(a4[1])<<16 | uint32(a4[2])<<8 | uint32(a4[3])
	return DestinationCriteria{IP: ip, Port: port}, nil
}

// DestinationFromString parses a dotted-quad destination.
func DestinationFromString(ip string, port uint16) (DestinationCriteria, error) {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return DestinationCriteria{}, errors.Wrapf(err, errors.KindValidation,
			"invalid destination ip %q", ip)
	}
	return DestinationFromAddr(addr, port)
}

// Match tests exact destination equality: IP always, port only for
// TCP/UDP.
func (c DestinationCriteria) Match(ev PacketEvent) bool {
	if ev.DstIP != c.IP {
		return false
	}
	if ev.Proto == ProtoTCP || ev.Proto == ProtoUDP {
		return ev.DstPort == c.Port
	}
	return true
}

// Validate rejects the zero destination address.
func (c DestinationCriteria) Validate() error {
	if c.IP == 0 {
		return errors.New(errors.KindValidation, "destination ip must not be 0.0.0.0")
	}
	return nil
}

// Addr returns the destination as a netip.Addr.
func (c DestinationCriteria) Addr() netip.Addr {
	return netip.AddrFrom4([4]byte{byte(c.IP >> 24), byte(c.IP >> 16), byte(c.IP >> 8), byte(c.IP)})
}

func (c DestinationCriteria) String() string {
	return fmt.Sprintf("dst %s:%d", c.Addr(), c.Port)
}

// egressDenyHook accounts dropped bytes.
func egressDenyHook(sh *Shard, _ DestinationCriteria, ev PacketEvent) {
	sh.Add(CounterBytesDropped, uint64(ev.Length))
}

// EgressSurface bundles the engine and manager for egress packet drop.
type EgressSurface = Surface[PacketEvent, DestinationCriteria]

// NewEgressSurface creates the egress drop surface.
func NewEgressSurface(maxRules int, clk clock.Clock) *EgressSurface {
	return NewSurface[PacketEvent, DestinationCriteria](maxRules, clk, EgressCounterNames, egressDenyHook)
}
