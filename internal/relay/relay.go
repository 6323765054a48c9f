// Package relay implements the "controller" side of the shared
// well-known port: a small UDP switch that every replica's transport
// dials as its target address. It has no opinion about Raft — it only
// learns which source address last spoke for a given replica id (every
// message carries "src") and forwards accordingly, fanning a broadcast
// dst out to everyone it has heard from besides the sender. Production
// replicas need no such thing when run as a single local process tree
// sharing one loopback; this exists for multi-process deployments and
// the end-to-end test harness, where each replica's socket cannot see
// the others directly.
package relay

import (
	"context"
	"net"
	"strconv"

	"kvraft/internal/codec"
	"kvraft/internal/rlog"
)

const maxDatagramSize = 65535

// Relay is a single UDP socket bound to the cluster's well-known port.
type Relay struct {
	conn  *net.UDPConn
	log   rlog.Logger
	known map[string]*net.UDPAddr
}

// Listen binds the well-known port on every interface.
func Listen(port int, log rlog.Logger) (*Relay, error) {
	addr, err := net.ResolveUDPAddr("udp", net.JoinHostPort("0.0.0.0", strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	return &Relay{conn: conn, log: log, known: make(map[string]*net.UDPAddr)}, nil
}

// Close releases the socket.
func (r *Relay) Close() error { return r.conn.Close() }

// Run blocks, relaying datagrams until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = r.conn.Close()
	}()

	buf := make([]byte, maxDatagramSize)
	for {
		n, from, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		r.relay(buf[:n], from)
	}
}

func (r *Relay) relay(data []byte, from *net.UDPAddr) {
	msg, err := codec.Decode(data)
	if err != nil {
		r.log.Debug("relay dropped malformed datagram", "err", err)
		return
	}

	if msg.Src != "" {
		r.known[msg.Src] = from
	}

	if msg.Dst == codec.Broadcast {
		for id, addr := range r.known {
			if id == msg.Src {
				continue
			}
			r.forward(data, addr)
		}
		return
	}

	if addr, ok := r.known[msg.Dst]; ok {
		r.forward(data, addr)
	}
}

func (r *Relay) forward(data []byte, addr *net.UDPAddr) {
	if _, err := r.conn.WriteToUDP(data, addr); err != nil {
		r.log.Debug("relay failed to forward datagram", "err", err)
	}
}
