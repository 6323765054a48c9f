package replica

import "kvraft/internal/codec"

// action is what a per-role step handler tells dispatchTick to do
// with the message it was just given.
type action int

const (
	// consumed means the handler fully dealt with the message
	// (replied, applied state, or silently ignored it); move on.
	consumed action = iota
	// hold means the message must be re-offered next tick (client
	// get/put backlogged per §4.2/§4.3/§4.7).
	hold
	// changedRole means the handler mutated role/term/leader state
	// and this same message must now be replayed under the new role,
	// per the backlog++[msg]++remaining reinsertion discipline (§4.4).
	changedRole
)

// dispatch drains this tick's backlog plus newly received messages
// through the current role's handler, one message at a time. A role
// change re-dispatches the triggering message under the new role by
// rebuilding the queue as held-so-far ++ [msg] ++ remaining and
// restarting the scan from the front — a loop, not recursion, so a
// storm of role changes in one tick cannot grow the call stack.
func (r *Replica) dispatch(newMsgs []codec.Message) {
	queue := make([]codec.Message, 0, len(r.backlog)+len(newMsgs))
	queue = append(queue, r.backlog...)
	queue = append(queue, newMsgs...)
	r.backlog = r.backlog[:0]

	var held []codec.Message

	i := 0
	for i < len(queue) {
		msg := queue[i]

		var act action
		switch r.role {
		case Follower:
			act = r.stepFollower(msg)
		case Candidate:
			act = r.stepCandidate(msg)
		case Leader:
			act = r.stepLeader(msg)
		}

		switch act {
		case hold:
			held = append(held, msg)
			i++
		case changedRole:
			remaining := queue[i+1:]
			next := make([]codec.Message, 0, len(held)+1+len(remaining))
			next = append(next, held...)
			next = append(next, msg)
			next = append(next, remaining...)
			queue = next
			held = held[:0]
			i = 0
		default: // consumed
			i++
		}
	}

	r.backlog = append(r.backlog, held...)
}
