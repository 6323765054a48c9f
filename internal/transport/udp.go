// Package transport implements the non-blocking UDP datagram
// send/receive described by the spec: one socket, addressed logically
// by replica id inside the message envelope rather than by network
// address. All peers and the controller share one well-known port;
// this replica's own socket binds an ephemeral local port and sends
// every outbound datagram to that well-known port, letting the
// simulator/controller on the other end route by the "dst" field.
package transport

import (
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"
	"kvraft/internal/codec"
	"kvraft/internal/rlog"
)

// pollTimeout bounds how long a single receive poll blocks before
// returning control to the event loop; it is the "only blocking
// primitive" the core's single-threaded model tolerates.
const pollTimeout = 100 * time.Microsecond

// maxDatagramSize is the receive buffer size; one datagram per message.
const maxDatagramSize = 65535

// UDP is a non-blocking datagram endpoint bound to an ephemeral local
// port and writing to the cluster's well-known port on localhost.
type UDP struct {
	conn   *net.UDPConn
	target *net.UDPAddr
	log    rlog.Logger
}

// Dial binds an ephemeral local UDP socket and resolves the shared
// well-known port every message — inbound or outbound — travels
// through.
func Dial(wellKnownPort int, log rlog.Logger) (*UDP, error) {
	laddr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, err
	}

	target, err := net.ResolveUDPAddr("udp", net.JoinHostPort("127.0.0.1", strconv.Itoa(wellKnownPort)))
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &UDP{conn: conn, target: target, log: log}, nil
}

// Close releases the socket.
func (u *UDP) Close() error { return u.conn.Close() }

// Send encodes and writes msg. A send failure is treated as message
// loss, per the spec's error-handling design: it is logged and
// swallowed, never retried here.
func (u *UDP) Send(msg codec.Message) {
	data, err := codec.Encode(msg)
	if err != nil {
		u.log.Warn("failed to encode outbound message", "type", msg.Type, "err", err)
		return
	}

	if _, err := u.conn.WriteToUDP(data, u.target); err != nil {
		u.log.Debug("dropped outbound datagram", "type", msg.Type, "dst", msg.Dst, "err", err)
	}
}

// Drain performs one non-blocking poll and returns every datagram that
// had already arrived, decoded into messages. Datagrams that fail to
// decode are dropped silently, matching the spec's "malformed datagram
// ... dropped silently" rule.
func (u *UDP) Drain() []codec.Message {
	var msgs []codec.Message
	buf := make([]byte, maxDatagramSize)

	for {
		if err := u.conn.SetReadDeadline(time.Now().Add(pollTimeout)); err != nil {
			return msgs
		}

		n, _, err := u.conn.ReadFromUDP(buf)
		if err != nil {
			// timeout (no more pending datagrams) or a transient
			// error: either way, stop draining for this tick.
			return msgs
		}

		traceID := uuid.NewString()
		msg, decodeErr := codec.Decode(buf[:n])
		if decodeErr != nil {
			u.log.Debug("dropped malformed datagram", "trace", traceID, "err", decodeErr)
			continue
		}

		u.log.Trace("received datagram", "trace", traceID, "type", msg.Type, "src", msg.Src)
		msgs = append(msgs, msg)
	}
}
