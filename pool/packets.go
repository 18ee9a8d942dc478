// File: pool/packets.go
// Author: momentics <momentics@gmail.com>

package pool

import "github.com/momentics/melcomm/packet"

// packetRetainLimit keeps very large packets out of the pool.
const packetRetainLimit = 1 << 20

var packets = NewSyncPool(func() *packet.Packet { return packet.New(256) }).
	WithReset(func(p *packet.Packet) { p.Clear() })

// GetPacket returns an empty packet.
func GetPacket() *packet.Packet { return packets.Get() }

// PutPacket recycles p. The caller must not use p afterwards.
func PutPacket(p *packet.Packet) {
	if p == nil || p.Size() > packetRetainLimit {
		return
	}
	packets.Put(p)
}
