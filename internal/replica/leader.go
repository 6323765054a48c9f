package replica

import "kvraft/internal/codec"

// stepLeader implements §4.7 (client writes) and the message-handling
// half of §4.8 (replication responses). The send side of replication
// lives in replication.go and runs once per tick, not per message.
func (r *Replica) stepLeader(msg codec.Message) action {
	switch msg.Type {
	case codec.Get:
		r.enqueueClient(codec.Message{Dst: msg.Src, Type: codec.Ok, MID: msg.MID, Value: r.raftLog.Get(msg.Key)})
		return consumed

	case codec.Put:
		if r.stagedPut != nil {
			return hold
		}
		r.raftLog.Append(entryFromPut(r, msg))
		staged := msg
		r.stagedPut = &staged
		r.quorum = map[string]struct{}{r.id: {}}
		return consumed

	case codec.AppendEntryResponse:
		r.handleAppendEntryResponse(msg)
		return consumed

	case codec.RequestVote:
		if msg.Term > r.currentTerm {
			r.revertToFollower(r.clock.Now(), msg.Term, codec.Broadcast)
			return changedRole
		}
		return consumed

	case codec.AppendEntry:
		// Raft election safety (I2) means this should never happen
		// for an equal term, but a higher term means some other
		// replica already won a later election; concede.
		if msg.Term > r.currentTerm {
			r.revertToFollower(r.clock.Now(), msg.Term, msg.Src)
			return changedRole
		}
		return consumed

	default:
		return consumed
	}
}
