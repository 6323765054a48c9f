package replica

import "kvraft/internal/codec"

// stepFollower implements §4.2: redirect/backlog client requests,
// grant or reject votes, accept or reject append-entries.
func (r *Replica) stepFollower(msg codec.Message) action {
	switch msg.Type {
	case codec.Get, codec.Put:
		if r.leaderID != codec.Broadcast {
			r.enqueueClient(codec.Message{Dst: msg.Src, Type: codec.Redirect, MID: msg.MID})
			return consumed
		}
		return hold

	case codec.RequestVote:
		r.handleRequestVoteAsFollower(msg)
		return consumed

	case codec.AppendEntry:
		r.handleAppendEntryAsFollower(msg)
		return consumed

	default:
		// vote / append_entry_response / hello: not meaningful to a
		// follower, ignored.
		return consumed
	}
}

// handleRequestVoteAsFollower grants a vote iff the candidate's log
// is at least as up to date as ours and either we haven't voted this
// term (same term) or the candidate's term is strictly higher.
func (r *Replica) handleRequestVoteAsFollower(msg codec.Message) {
	logUpToDate := msg.LastLogIndex >= r.raftLog.LastIndex()
	sameTermUnvoted := msg.Term == r.currentTerm && !r.votedThisTerm
	grant := logUpToDate && (sameTermUnvoted || msg.Term > r.currentTerm)

	if !grant {
		return // reject silently
	}

	now := r.clock.Now()
	r.currentTerm = msg.Term
	r.votedThisTerm = true
	r.resetElectionTimer(now)

	r.enqueuePeer(codec.Message{Dst: msg.Src, Type: codec.Vote, Term: r.currentTerm})
}

// handleAppendEntryAsFollower implements the follower side of
// replication and the commit-index/apply split: entries are only
// truncated/appended when non-empty, but commitIndex advances from
// any valid heartbeat too (§9 bullet 2 — a heartbeat alone must never
// truncate the log).
func (r *Replica) handleAppendEntryAsFollower(msg codec.Message) {
	logConsistent := msg.PrevLogIndex < r.raftLog.Len() &&
		r.raftLog.TermAt(msg.PrevLogIndex) == msg.PrevLogTerm
	accept := msg.Term >= r.currentTerm && logConsistent

	if !accept {
		r.enqueuePeer(codec.Message{
			Dst: msg.Src, Type: codec.AppendEntryResponse,
			Term: r.currentTerm, Success: false, NextIndex: r.raftLog.CommitIndex(),
		})
		return
	}

	now := r.clock.Now()
	r.currentTerm = msg.Term
	r.leaderID = msg.Src
	r.votedThisTerm = false
	r.resetElectionTimer(now)

	if len(msg.Entries) > 0 {
		r.raftLog.TruncateAndAppend(msg.PrevLogIndex, fromWire(msg.Entries))
	}

	resp := codec.Message{
		Dst: msg.Src, Type: codec.AppendEntryResponse,
		Term: r.currentTerm, Success: true, NextIndex: r.raftLog.Len(),
	}
	if msg.PutID != "" {
		resp.PutID = msg.PutID
	}
	r.enqueuePeer(resp)

	if msg.LeaderCommit > r.raftLog.CommitIndex() {
		newCommit := msg.LeaderCommit
		if r.raftLog.LastIndex() < newCommit {
			newCommit = r.raftLog.LastIndex()
		}
		r.raftLog.AdvanceCommit(newCommit)
		r.raftLog.ApplyCommitted() // followers apply but never ack: clients only talk to the leader
	}
}
