// Package replica implements the Raft replica state machine: the
// role lifecycle, the log-consistency and commit protocol, the
// randomized-timeout election protocol, client redirection and the
// write-commit pipeline, and the single-threaded event loop driving
// all of it. This is the core described by the surrounding spec; the
// transport, codec, clock, and config packages are its external
// collaborators.
package replica

import (
	"time"

	"kvraft/internal/clock"
	"kvraft/internal/codec"
	"kvraft/internal/raftlog"
	"kvraft/internal/rlog"
)

// Role is one of the three Raft roles a Replica can be in.
type Role int

const (
	Follower Role = iota
	Candidate
	Leader
)

func (r Role) String() string {
	switch r {
	case Follower:
		return "follower"
	case Candidate:
		return "candidate"
	case Leader:
		return "leader"
	default:
		return "unknown"
	}
}

// Timing constants from the spec's election and replication protocol
// (§4.9). maxEntriesPerAppend caps a single append-entries datagram;
// heartbeatGap is the idle re-send interval; retryGap is the
// outstanding-work re-send interval; leaderInstallGap is the pacing a
// freshly installed leader uses to assert authority quickly.
const (
	maxEntriesPerAppend = 7
	heartbeatGap        = 450 * time.Millisecond
	retryGap            = 100 * time.Millisecond
	leaderInstallGap    = 2500 * time.Microsecond
)

// peerSend tracks the per-peer pacing a leader uses to decide whether
// the next tick owes that peer a send.
type peerSend struct {
	lastSentAt time.Time
	gap        time.Duration
}

// Sender is anything the replica can hand outbound messages to. It is
// satisfied by *transport.UDP in production and by a fake in tests.
type Sender interface {
	Send(codec.Message)
}

// Receiver is anything the replica can poll for inbound datagrams.
type Receiver interface {
	Drain() []codec.Message
}

// Transport bundles the two directions the event loop needs.
type Transport interface {
	Sender
	Receiver
}

// Replica is one participant in the cluster. It owns no goroutines of
// its own beyond the single Run loop; every method on it is called
// serially from that loop, so it needs no locking (§5).
type Replica struct {
	id    string
	peers []string

	transport Transport
	clock     clock.Clock
	log       rlog.Logger

	raftLog *raftlog.Log

	currentTerm   uint64
	votedThisTerm bool
	leaderID      string
	role          Role

	lastHeard       time.Time
	electionTimeout time.Duration

	// candidate-only
	votesReceived int

	// leader-only
	nextIndex   map[string]uint64
	matchIndex  map[string]uint64
	perPeerSend map[string]*peerSend
	stagedPut   *codec.Message
	quorum      map[string]struct{}

	// persists across ticks: client get/put messages held because no
	// leader is known yet, or because a put is already staged.
	backlog []codec.Message

	clientQueue []codec.Message
	peerQueue   []codec.Message
}

// New constructs a Replica in the follower role with current_term=0,
// as specified for replica startup (§3 Lifecycles).
func New(id string, peers []string, tr Transport, clk clock.Clock, log rlog.Logger) *Replica {
	r := &Replica{
		id:        id,
		peers:     append([]string(nil), peers...),
		transport: tr,
		clock:     clk,
		log:       log,
		raftLog:   raftlog.New(),
		leaderID:  codec.Broadcast,
		role:      Follower,
	}
	r.resetElectionTimer(clk.Now())
	return r
}

// ID returns the replica's own id.
func (r *Replica) ID() string { return r.id }

// Role returns the replica's current role, for observability/tests.
func (r *Replica) Role() Role { return r.role }

// Term returns current_term, for observability/tests.
func (r *Replica) Term() uint64 { return r.currentTerm }

// LeaderID returns the replica's believed leader, or codec.Broadcast
// if unknown.
func (r *Replica) LeaderID() string { return r.leaderID }

func (r *Replica) enqueueClient(msg codec.Message) {
	msg.Src = r.id
	msg.Leader = r.leaderID
	r.clientQueue = append(r.clientQueue, msg)
}

func (r *Replica) enqueuePeer(msg codec.Message) {
	msg.Src = r.id
	msg.Leader = r.leaderID
	r.peerQueue = append(r.peerQueue, msg)
}
