package monitor

import (
	"go.uber.org/zap"

	"github.com/haveachin/slping/pkg/slping"
)

// This is just a collection of utility functions to have consistent log fields
// for every data field that is being logged.

func logTarget(t Target) []zap.Field {
	return []zap.Field{
		zap.String("targetId", string(t.ID)),
		zap.String("targetAddr", t.Addr),
	}
}

func logResult(r slping.Result) []zap.Field {
	return []zap.Field{
		zap.String("version", r.Status.Version.Name),
		zap.Int32("protocol", r.Status.Version.Protocol),
		zap.Int32("playersOnline", r.Status.Players.Online),
		zap.Int32("playersMax", r.Status.Players.Max),
		zap.Duration("latency", r.Latency),
	}
}
