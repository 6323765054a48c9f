package replica

import (
	"kvraft/internal/codec"
	"kvraft/internal/raftlog"
)

// entryFromPut builds the log entry a leader appends on admitting a
// client put (§4.7): {term, key, value, client, put_id = MID}.
func entryFromPut(r *Replica, msg codec.Message) raftlog.Entry {
	return raftlog.Entry{Term: r.currentTerm, Key: msg.Key, Value: msg.Value, Client: msg.Src, PutID: msg.MID}
}

func fromWire(entries []codec.Entry) []raftlog.Entry { return raftlog.FromWire(entries) }

func toWire(entries []raftlog.Entry) []codec.Entry { return raftlog.ToWire(entries) }

func countPuts(entries []raftlog.Entry) int {
	n := 0
	for _, e := range entries {
		if e.Key != "" {
			n++
		}
	}
	return n
}
