package replica

import (
	"time"

	"kvraft/internal/codec"
)

// emitReplication is the leader-only send side of §4.8, run once per
// tick (event-loop step (c)), independently per peer: a slow peer's
// pacing never blocks a send to a responsive one.
func (r *Replica) emitReplication(now time.Time) {
	if r.role != Leader {
		return
	}

	for _, p := range r.peers {
		ps := r.perPeerSend[p]

		hasNewWork := r.raftLog.LastIndex() >= r.nextIndex[p]
		if hasNewWork && !now.Before(ps.lastSentAt.Add(ps.gap)) {
			entries := r.raftLog.Slice(r.nextIndex[p], maxEntriesPerAppend)
			prevIdx := r.nextIndex[p] - 1

			msg := codec.Message{
				Dst: p, Type: codec.AppendEntry, Term: r.currentTerm,
				PrevLogIndex: prevIdx, PrevLogTerm: r.raftLog.TermAt(prevIdx),
				Entries:      toWire(entries),
				LeaderCommit: r.raftLog.CommitIndex(),
				NumPuts:      countPuts(entries),
			}
			if r.stagedPut != nil {
				msg.PutID = r.stagedPut.MID
			}
			r.enqueuePeer(msg)

			ps.lastSentAt = now
			ps.gap = retryGap
			continue
		}

		if !now.Before(ps.lastSentAt.Add(heartbeatGap)) {
			r.enqueuePeer(codec.Message{
				Dst: p, Type: codec.AppendEntry, Term: r.currentTerm,
				PrevLogIndex: r.nextIndex[p] - 1, PrevLogTerm: r.raftLog.TermAt(r.nextIndex[p] - 1),
				LeaderCommit: r.raftLog.CommitIndex(),
			})
			ps.lastSentAt = now
		}
	}
}

// handleAppendEntryResponse is the receive side of §4.8. Reaching
// quorum on the currently staged put commits it immediately; the
// generic match-index scan in advanceCommitAndApply is what actually
// applies entries and acknowledges clients, so this can commit a bit
// ahead of that scan without skipping the apply step.
func (r *Replica) handleAppendEntryResponse(msg codec.Message) {
	if msg.Success {
		next := msg.NextIndex
		if next > r.raftLog.Len() {
			next = r.raftLog.Len()
		}
		r.nextIndex[msg.Src] = next
		r.matchIndex[msg.Src] = next - 1
		r.perPeerSend[msg.Src].gap = leaderInstallGap

		if r.stagedPut != nil && msg.PutID == r.stagedPut.MID {
			r.quorum[msg.Src] = struct{}{}
			if len(r.quorum) > len(r.peers)/2 {
				r.raftLog.AdvanceCommit(r.raftLog.LastIndex())
				r.stagedPut = nil
				r.quorum = nil
			}
		}
		return
	}

	if msg.Term > r.currentTerm {
		r.revertToFollower(r.clock.Now(), msg.Term, codec.Broadcast)
		return
	}

	nextIndex := msg.NextIndex
	if nextIndex < 1 {
		// Index 0 is the fixed sentinel every log agrees on; never
		// point a retry at it or prevIdx := nextIndex-1 below
		// underflows to the largest uint64 on the next emit.
		nextIndex = 1
	}
	r.nextIndex[msg.Src] = nextIndex
}

// advanceCommitAndApply is the leader-only tail of §4.8, run once per
// tick after the inbound queue has been fully dispatched. It
// implements the classic Raft commit rule over match_index/term, then
// applies whatever newly committed entries resulted and acknowledges
// their clients in index order. Followers apply inline as part of
// accepting append-entries (see handleAppendEntryAsFollower) and never
// reach this function.
func (r *Replica) advanceCommitAndApply() {
	if r.role != Leader {
		return
	}

	for n := r.raftLog.CommitIndex() + 1; n <= r.raftLog.LastIndex(); n++ {
		if r.raftLog.TermAt(n) != r.currentTerm {
			break
		}

		count := 1 // self
		for _, p := range r.peers {
			if r.matchIndex[p] >= n {
				count++
			}
		}
		if count <= len(r.peers)/2 {
			break
		}
		r.raftLog.AdvanceCommit(n)
	}

	for _, e := range r.raftLog.ApplyCommitted() {
		r.enqueueClient(codec.Message{Dst: e.Client, Type: codec.Ok, MID: e.PutID})
	}
}
