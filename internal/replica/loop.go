package replica

import "context"

// Run drives the single-threaded event loop described by §4.1 and
// §5: drain client replies, drain peer replies, emit leader
// replication, poll for inbound datagrams, dispatch them, advance
// commit/apply, then check the election timer. It returns when ctx is
// done. There is no other concurrency in this package — every call
// below runs serially in this goroutine.
func (r *Replica) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		r.Tick()
	}
}

// Tick runs exactly one iteration of the event loop. It is exported
// so tests can drive the replica deterministically, one step at a
// time, instead of racing a background goroutine.
func (r *Replica) Tick() {
	for _, m := range r.clientQueue {
		r.transport.Send(m)
	}
	r.clientQueue = r.clientQueue[:0]

	for _, m := range r.peerQueue {
		r.transport.Send(m)
	}
	r.peerQueue = r.peerQueue[:0]

	now := r.clock.Now()
	r.emitReplication(now)

	inbound := r.transport.Drain()
	r.dispatch(inbound)

	r.advanceCommitAndApply()

	if r.electionDue(r.clock.Now()) {
		r.startElection(r.clock.Now())
	}
}
