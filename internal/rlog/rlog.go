// Package rlog is the structured logging sink used by the replica and
// its bootstrap. It wraps github.com/hashicorp/go-hclog the way the
// rest of the corpus wraps a logger package around a third-party base
// (see e.g. the jmsadair-raft logger in the retrieval pack): a thin
// named-field API so call sites never import hclog directly.
package rlog

import (
	"os"

	"github.com/hashicorp/go-hclog"
)

// Logger is an alias of hclog's full Logger interface.
type Logger = hclog.Logger

// New builds the root logger for a replica process, named by its id so
// that multi-replica test runs interleave cleanly.
func New(replicaID string) Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:            "kvraft",
		Level:           levelFromEnv(),
		Output:          os.Stdout,
		IncludeLocation: false,
	}).With("replica", replicaID)
}

func levelFromEnv() hclog.Level {
	if v := os.Getenv("KVRAFT_LOG_LEVEL"); v != "" {
		return hclog.LevelFromString(v)
	}
	return hclog.Info
}
