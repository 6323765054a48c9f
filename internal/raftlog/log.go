// Package raftlog holds the two pieces of state that make up the
// replicated state machine: the append-only log itself, and the
// key-value map that is the result of applying it. Index 0 is always
// the fixed sentinel entry; real entries start at index 1.
package raftlog

import "kvraft/internal/codec"

// Entry is a single replicated log entry, the in-memory twin of
// codec.Entry (kept as a distinct type so the log package has no
// dependency on the wire format beyond explicit conversion).
type Entry struct {
	Term   uint64
	Key    string
	Value  string
	Client string
	PutID  string
}

// Log is the append-only entry sequence plus the applied key-value
// state. It has no notion of role, term ownership, or peers — those
// live in package replica; Log only knows how to grow, truncate, and
// apply itself.
type Log struct {
	entries     []Entry // entries[0] is the fixed sentinel
	kv          map[string]string
	commitIndex uint64
	lastApplied uint64
}

// New returns an empty log containing only the sentinel entry.
func New() *Log {
	return &Log{
		entries: []Entry{{}}, // sentinel: Term 0, no payload
		kv:      make(map[string]string),
	}
}

// LastIndex returns the highest index currently in the log (0 if
// empty save for the sentinel).
func (l *Log) LastIndex() uint64 { return uint64(len(l.entries) - 1) }

// Len returns len(log) in the spec's terms: LastIndex()+1.
func (l *Log) Len() uint64 { return uint64(len(l.entries)) }

// LastTerm returns the term of the last entry in the log.
func (l *Log) LastTerm() uint64 { return l.entries[len(l.entries)-1].Term }

// At returns the entry at index i and whether it exists.
func (l *Log) At(i uint64) (Entry, bool) {
	if i >= uint64(len(l.entries)) {
		return Entry{}, false
	}
	return l.entries[i], true
}

// TermAt returns the term of the entry at index i, or 0 if i is out
// of range (matching the sentinel's term).
func (l *Log) TermAt(i uint64) uint64 {
	e, ok := l.At(i)
	if !ok {
		return 0
	}
	return e.Term
}

// Append adds entry to the end of the log and returns its new index.
func (l *Log) Append(e Entry) uint64 {
	l.entries = append(l.entries, e)
	return l.LastIndex()
}

// TruncateAndAppend drops everything after prevLogIndex and appends
// entries in its place, implementing the leader-driven suffix
// truncation a follower performs when reconciling its log.
func (l *Log) TruncateAndAppend(prevLogIndex uint64, entries []Entry) {
	l.entries = append(l.entries[:prevLogIndex+1:prevLogIndex+1], entries...)
}

// Slice returns up to max entries starting at from (1-based real
// indices), used by the leader to cap how much it sends per
// append-entries datagram.
func (l *Log) Slice(from uint64, max int) []Entry {
	if from >= uint64(len(l.entries)) {
		return nil
	}
	end := from + uint64(max)
	if end > uint64(len(l.entries)) {
		end = uint64(len(l.entries))
	}
	out := make([]Entry, end-from)
	copy(out, l.entries[from:end])
	return out
}

// CommitIndex returns the highest index known committed.
func (l *Log) CommitIndex() uint64 { return l.commitIndex }

// LastApplied returns the highest index applied to the key-value map.
func (l *Log) LastApplied() uint64 { return l.lastApplied }

// AdvanceCommit raises commitIndex to idx if idx is higher; commit
// only ever moves forward (I5).
func (l *Log) AdvanceCommit(idx uint64) {
	if idx > l.commitIndex {
		l.commitIndex = idx
	}
}

// ApplyCommitted applies every entry in (lastApplied, commitIndex] to
// the key-value map, in index order, and returns the entries applied
// so the caller can acknowledge their clients.
func (l *Log) ApplyCommitted() []Entry {
	var applied []Entry
	for l.lastApplied < l.commitIndex {
		l.lastApplied++
		e := l.entries[l.lastApplied]
		l.kv[e.Key] = e.Value
		applied = append(applied, e)
	}
	return applied
}

// Get reads key from the applied state; an absent key reads as the
// empty string (P8), never an error.
func (l *Log) Get(key string) string { return l.kv[key] }

// FromWire converts wire entries into the log's internal
// representation.
func FromWire(entries []codec.Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{Term: e.Term, Key: e.Key, Value: e.Value, Client: e.Client, PutID: e.PutID}
	}
	return out
}

// ToWire converts internal entries into their wire representation.
func ToWire(entries []Entry) []codec.Entry {
	out := make([]codec.Entry, len(entries))
	for i, e := range entries {
		out[i] = codec.Entry{Term: e.Term, Key: e.Key, Value: e.Value, Client: e.Client, PutID: e.PutID}
	}
	return out
}
