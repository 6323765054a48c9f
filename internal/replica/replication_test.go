package replica

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kvraft/internal/codec"
)

func TestEmitReplicationSendsPendingEntriesBeforeHeartbeatGap(t *testing.T) {
	r, tr, clk := newTestReplica("A", []string{"B", "C", "D", "E"})
	r.takeLead(clk.Now())
	tr.takeSent()

	r.raftLog.Append(entryOf(0, "k", "v"))
	clk.Advance(3 * time.Millisecond) // past the leader-install pacing gap
	r.emitReplication(clk.Now())

	var gotEntry bool
	for _, m := range r.peerQueue {
		if m.Dst == "B" && len(m.Entries) == 1 {
			gotEntry = true
		}
	}
	require.True(t, gotEntry)
}

func TestEmitReplicationSendsHeartbeatWhenIdle(t *testing.T) {
	r, _, clk := newTestReplica("A", []string{"B", "C", "D", "E"})
	r.takeLead(clk.Now())
	r.peerQueue = nil

	clk.Advance(451 * time.Millisecond)
	r.emitReplication(clk.Now())

	require.Len(t, r.peerQueue, 4)
	for _, m := range r.peerQueue {
		require.Equal(t, codec.AppendEntry, m.Type)
		require.Empty(t, m.Entries)
	}
}

func TestEmitReplicationRespectsRetryPacingPerPeer(t *testing.T) {
	r, _, clk := newTestReplica("A", []string{"B", "C"})
	r.takeLead(clk.Now())
	r.peerQueue = nil
	r.raftLog.Append(entryOf(0, "k", "v"))

	clk.Advance(3 * time.Millisecond) // past the leader-install pacing gap
	r.emitReplication(clk.Now())      // first send per peer, gap becomes retryGap
	r.peerQueue = nil

	clk.Advance(1 * time.Millisecond) // well under retryGap (100ms)
	r.emitReplication(clk.Now())

	require.Empty(t, r.peerQueue)
}

func TestHandleAppendEntryResponseAdvancesNextAndMatchIndex(t *testing.T) {
	r, _, clk := newTestReplica("A", []string{"B", "C"})
	r.takeLead(clk.Now())
	r.raftLog.Append(entryOf(0, "k", "v"))

	r.handleAppendEntryResponse(codec.Message{Src: "B", Type: codec.AppendEntryResponse, Term: 0, Success: true, NextIndex: 2})

	require.Equal(t, uint64(2), r.nextIndex["B"])
	require.Equal(t, uint64(1), r.matchIndex["B"])
}

// A failure reporting NextIndex 0 (the follower's commit index) must
// retry at index 1: index 0 is the sentinel, and a nextIndex of 0 would
// make the next emit's prevIdx underflow.
func TestHandleAppendEntryResponseRetriesAboveSentinelOnFailure(t *testing.T) {
	r, _, clk := newTestReplica("A", []string{"B", "C"})
	r.takeLead(clk.Now())

	r.handleAppendEntryResponse(codec.Message{Src: "B", Type: codec.AppendEntryResponse, Term: 0, Success: false, NextIndex: 0})

	require.Equal(t, uint64(1), r.nextIndex["B"])
}

func TestAdvanceCommitRequiresMajorityAtCurrentTerm(t *testing.T) {
	r, _, clk := newTestReplica("A", []string{"B", "C", "D", "E"})
	r.takeLead(clk.Now())
	r.currentTerm = 3
	r.raftLog.Append(entryOf(3, "k", "v"))

	r.matchIndex["B"] = 1 // only one other peer caught up; not a majority of 5
	r.advanceCommitAndApply()
	require.Equal(t, uint64(0), r.raftLog.CommitIndex())

	r.matchIndex["C"] = 1 // self + B + C = 3 out of 5
	r.advanceCommitAndApply()
	require.Equal(t, uint64(1), r.raftLog.CommitIndex())
}

func TestAdvanceCommitNeverCommitsAnEarlierTermDirectly(t *testing.T) {
	r, _, clk := newTestReplica("A", []string{"B", "C", "D", "E"})
	r.takeLead(clk.Now())
	r.currentTerm = 2
	r.raftLog.Append(entryOf(1, "k", "v")) // entry from a stale term

	r.matchIndex["B"] = 1
	r.matchIndex["C"] = 1
	r.advanceCommitAndApply()

	require.Equal(t, uint64(0), r.raftLog.CommitIndex())
}
