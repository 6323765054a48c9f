package transport

import (
	"net"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"kvraft/internal/codec"
)

// newTestPair wires up two UDP endpoints so that b's well-known port
// is a's bound local port, letting a single test drive a send/receive
// round trip without a real simulator in the loop.
func newTestPair(t *testing.T) (a, b *UDP) {
	t.Helper()

	log := hclog.NewNullLogger()

	a, err := Dial(0, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	aPort := a.conn.LocalAddr().(*net.UDPAddr).Port

	b, err = Dial(aPort, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	return a, b
}

func TestDrainReturnsNothingWhenIdle(t *testing.T) {
	a, _ := newTestPair(t)
	require.Empty(t, a.Drain())
}

func TestSendThenDrainRoundTrips(t *testing.T) {
	a, b := newTestPair(t)

	b.Send(codec.Message{Src: "0001", Dst: "0000", Leader: codec.Broadcast, Type: codec.Hello})

	var got []codec.Message
	deadline := time.Now().Add(time.Second)
	for len(got) == 0 && time.Now().Before(deadline) {
		got = a.Drain()
	}

	require.Len(t, got, 1)
	require.Equal(t, codec.Hello, got[0].Type)
	require.Equal(t, "0001", got[0].Src)
}

func TestDropsMalformedDatagramSilently(t *testing.T) {
	a, b := newTestPair(t)

	_, err := b.conn.WriteToUDP([]byte("not json"), b.target)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	require.Empty(t, a.Drain())
}
