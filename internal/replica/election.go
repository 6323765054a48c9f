package replica

import (
	"time"

	"kvraft/internal/codec"
)

// resetElectionTimer redraws a fresh random timeout and marks "now" as
// the last time this replica heard from a leader or granted a vote.
// Used on follower vote-grant and accepted append-entries, and on
// every reversion to follower (§4.9).
func (r *Replica) resetElectionTimer(now time.Time) {
	r.lastHeard = now
	r.electionTimeout = r.clock.RandomElectionTimeout()
}

// electionDue reports whether the election timer has fired: this
// replica is not a leader, has heard nothing since its timeout
// elapsed, and has not already voted this term.
func (r *Replica) electionDue(now time.Time) bool {
	return r.role != Leader && !r.votedThisTerm && now.Sub(r.lastHeard) > r.electionTimeout
}

// startElection begins a new election round (§4.6). Note the
// election timer is deliberately NOT redrawn here — only lastHeard is
// bumped — so a candidate that fails to win escalates to a new term
// at the same cadence rather than waiting out a fresh random timeout.
// votedThisTerm is deliberately left false: a candidate that fails to
// reach quorum (e.g. a split vote) must still be electionDue next
// round so it can escalate to a new term.
func (r *Replica) startElection(now time.Time) {
	r.role = Candidate
	r.currentTerm++
	r.votesReceived = 1 // self
	r.lastHeard = now

	r.enqueuePeer(codec.Message{
		Type:         codec.RequestVote,
		Dst:          codec.Broadcast,
		Term:         r.currentTerm,
		LastLogIndex: r.raftLog.LastIndex(),
		LastLogTerm:  r.raftLog.LastTerm(),
	})
}

// revertToFollower adopts term and leaderID, clears all role-specific
// state (I6: "a follower reverting from leader clears vote state"),
// and resets the election timer. It is the single choke point every
// "observed a message with term >= current_term while not a plain
// follower" path funnels through.
func (r *Replica) revertToFollower(now time.Time, term uint64, leaderID string) {
	r.role = Follower
	r.currentTerm = term
	r.votedThisTerm = false
	r.leaderID = leaderID
	r.resetElectionTimer(now)

	r.votesReceived = 0
	r.nextIndex = nil
	r.matchIndex = nil
	r.perPeerSend = nil
	r.stagedPut = nil
	r.quorum = nil
}

// takeLead installs this replica as leader of the current term
// (§4.5). The sentinel entry at index 0 is fixed, which is why the
// immediate authority broadcast below can unconditionally use
// prevLogIndex=0, prevLogTerm=0: every replica's log agrees on index 0
// by construction.
func (r *Replica) takeLead(now time.Time) {
	r.role = Leader
	r.leaderID = r.id
	r.votedThisTerm = true // I6: a leader has voted_this_term = true for its own term
	r.votesReceived = 0

	r.nextIndex = make(map[string]uint64, len(r.peers))
	r.matchIndex = make(map[string]uint64, len(r.peers))
	r.perPeerSend = make(map[string]*peerSend, len(r.peers))
	for _, p := range r.peers {
		r.nextIndex[p] = r.raftLog.Len()
		r.matchIndex[p] = 0
		r.perPeerSend[p] = &peerSend{lastSentAt: now, gap: leaderInstallGap}
	}
	r.stagedPut = nil
	r.quorum = nil

	r.enqueuePeer(codec.Message{
		Type:         codec.AppendEntry,
		Dst:          codec.Broadcast,
		Term:         r.currentTerm,
		PrevLogIndex: 0,
		PrevLogTerm:  0,
		LeaderCommit: r.raftLog.CommitIndex(),
	})
}
