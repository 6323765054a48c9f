package replica

import "kvraft/internal/codec"

// fakeTransport is an in-memory Transport: Send appends to a buffer a
// test can inspect, and Drain hands back (and clears) an inbox the
// test fills directly. No network, no goroutines — perfect for
// driving Tick() deterministically.
type fakeTransport struct {
	sent  []codec.Message
	inbox []codec.Message
}

func (f *fakeTransport) Send(m codec.Message) { f.sent = append(f.sent, m) }

func (f *fakeTransport) Drain() []codec.Message {
	out := f.inbox
	f.inbox = nil
	return out
}

func (f *fakeTransport) deliver(msgs ...codec.Message) {
	f.inbox = append(f.inbox, msgs...)
}

func (f *fakeTransport) takeSent() []codec.Message {
	out := f.sent
	f.sent = nil
	return out
}
