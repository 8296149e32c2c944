//go:generate mockgen -destination=monitor_mock_test.go -package=monitor_test github.com/haveachin/slping/internal/app/monitor Pinger
package monitor_test

import (
	"time"

	gomock "github.com/golang/mock/gomock"

	"github.com/haveachin/slping/pkg/slping"
	"github.com/haveachin/slping/pkg/slping/protocol/status"
)

func onlineResult(addr string, online int32) slping.Result {
	return slping.Result{
		Addr: addr,
		JSON: `{"version":{"name":"1.21.2","protocol":768},"players":{"max":20,"online":1}}`,
		Status: status.ResponseJSON{
			Version: status.VersionJSON{Name: "1.21.2", Protocol: 768},
			Players: status.PlayersJSON{Max: 20, Online: online},
		},
		Latency:   10 * time.Millisecond,
		QueriedAt: time.Now(),
	}
}

func mockPinger(ctrl *gomock.Controller, res slping.Result, err error) *MockPinger {
	p := NewMockPinger(ctrl)
	p.EXPECT().Ping(gomock.Any(), gomock.Any()).AnyTimes().Return(res, err)
	return p
}
