package replica

import "kvraft/internal/codec"

// stepCandidate implements §4.3. get/put are backlogged; an
// append-entries from a current-or-newer term means some other
// replica already won this term, so we concede and replay the
// message as a follower; a vote for our term counts toward quorum and
// may install us as leader; a request_vote for a higher term means we
// lost a race and must concede too.
func (r *Replica) stepCandidate(msg codec.Message) action {
	switch msg.Type {
	case codec.Get, codec.Put:
		return hold

	case codec.AppendEntry:
		if msg.Term >= r.currentTerm {
			r.revertToFollower(r.clock.Now(), msg.Term, msg.Src)
			return changedRole
		}
		r.enqueuePeer(codec.Message{Dst: msg.Src, Type: codec.AppendEntryResponse, Term: r.currentTerm, Success: false})
		return consumed

	case codec.Vote:
		if msg.Term != r.currentTerm {
			return consumed
		}
		r.votesReceived++
		if r.votesReceived > len(r.peers)/2 {
			r.takeLead(r.clock.Now())
			return changedRole
		}
		return consumed

	case codec.RequestVote:
		if msg.Term > r.currentTerm {
			r.revertToFollower(r.clock.Now(), msg.Term, codec.Broadcast)
			return changedRole
		}
		return consumed // reject silently: we're also contesting this term

	default:
		return consumed
	}
}
