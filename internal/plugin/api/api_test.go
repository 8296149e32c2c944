package api_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/haveachin/slping/internal/app/monitor"
	"github.com/haveachin/slping/internal/plugin/api"
	"github.com/haveachin/slping/pkg/slping"
	"github.com/haveachin/slping/pkg/slping/config"
	"github.com/haveachin/slping/pkg/slping/protocol/status"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

type fakeMonitor struct {
	statuses map[monitor.TargetID]monitor.Status
	pollErr  error
	polled   []monitor.TargetID
}

func (m *fakeMonitor) Statuses() []monitor.Status {
	ss := []monitor.Status{}
	for _, id := range []monitor.TargetID{"lobby", "survival"} {
		if s, ok := m.statuses[id]; ok {
			ss = append(ss, s)
		}
	}
	return ss
}

func (m *fakeMonitor) Status(id monitor.TargetID) (monitor.Status, bool) {
	s, ok := m.statuses[id]
	return s, ok
}

func (m *fakeMonitor) Poll(_ context.Context, id monitor.TargetID) (monitor.Status, error) {
	s, ok := m.statuses[id]
	if !ok {
		return monitor.Status{}, monitor.ErrTargetNotFound
	}
	m.polled = append(m.polled, id)
	return s, m.pollErr
}

func newFakeMonitor() *fakeMonitor {
	now := time.Now()
	favicon := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
	json := `{"version":{"name":"1.21.2","protocol":768},"players":{"max":20,"online":1,"sample":[{"name":"Notch","id":"069a79f4-44e9-4726-a5be-fca90e38aaf5"}]},"description":"Lobby"}`

	resp, err := status.ParseResponseJSON(json)
	if err != nil {
		panic(err)
	}
	resp.Favicon = &favicon

	return &fakeMonitor{
		statuses: map[monitor.TargetID]monitor.Status{
			"lobby": {
				TargetID: "lobby",
				Addr:     "lobby.example.com",
				Online:   true,
				Result: slping.Result{
					Addr:    "lobby.example.com",
					JSON:    json,
					Status:  resp,
					Latency: 42 * time.Millisecond,
				},
				UpdatedAt: now,
				LastSeen:  now,
			},
			"survival": {
				TargetID:  "survival",
				Addr:      "survival.example.com",
				Err:       errors.New("connection refused"),
				Failures:  3,
				UpdatedAt: now,
			},
		},
	}
}

func newTestServer(m api.Monitor) *httptest.Server {
	srv := api.Server{
		Config:  config.DefaultConfig().API,
		Monitor: m,
	}
	return httptest.NewServer(srv.Router())
}

type targetResponse struct {
	ID          string `json:"id"`
	Online      bool   `json:"online"`
	Error       string `json:"error"`
	Failures    int    `json:"failures"`
	LatencyMs   int64  `json:"latencyMs"`
	Description string `json:"description"`
	FaviconHash string `json:"faviconHash"`
	Players     *struct {
		Online int32    `json:"online"`
		Sample []string `json:"sample"`
	} `json:"players"`
	Raw json.RawMessage `json:"raw"`
}

func doRequest(t *testing.T, method, url string, v any) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if v != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatal(err)
		}
	}
	return resp
}

func TestGetTargets(t *testing.T) {
	ts := newTestServer(newFakeMonitor())
	defer ts.Close()

	var targets []targetResponse
	resp := doRequest(t, http.MethodGet, ts.URL+"/v1/targets", &targets)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d", resp.StatusCode)
	}

	if len(targets) != 2 {
		t.Fatalf("got %d targets", len(targets))
	}
	if targets[0].ID != "lobby" || !targets[0].Online || targets[0].Players.Online != 1 {
		t.Errorf("unexpected lobby %+v", targets[0])
	}
	if targets[0].Raw != nil {
		t.Error("list should not contain raw documents")
	}
	if targets[1].Online || targets[1].Error != "connection refused" || targets[1].Failures != 3 {
		t.Errorf("unexpected survival %+v", targets[1])
	}
	if targets[1].Players != nil {
		t.Error("never seen target has players")
	}
}

func TestGetTarget(t *testing.T) {
	ts := newTestServer(newFakeMonitor())
	defer ts.Close()

	tt := []struct {
		name       string
		id         string
		statusCode int
	}{
		{
			name:       "online",
			id:         "lobby",
			statusCode: http.StatusOK,
		},
		{
			name:       "unknown",
			id:         "creative",
			statusCode: http.StatusNotFound,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var target targetResponse
			resp := doRequest(t, http.MethodGet, ts.URL+"/v1/targets/"+tc.id, &target)
			if resp.StatusCode != tc.statusCode {
				t.Fatalf("got status %d; want %d", resp.StatusCode, tc.statusCode)
			}
			if tc.statusCode != http.StatusOK {
				return
			}

			if target.Description != "Lobby" || target.LatencyMs != 42 {
				t.Errorf("unexpected target %+v", target)
			}
			if len(target.Players.Sample) != 1 || target.Players.Sample[0] != "Notch" {
				t.Errorf("got sample %v", target.Players.Sample)
			}
			if target.FaviconHash == "" {
				t.Error("favicon hash missing")
			}
			if !strings.Contains(string(target.Raw), `"protocol":768`) {
				t.Errorf("got raw %s", target.Raw)
			}
		})
	}
}

func TestPingTarget(t *testing.T) {
	m := newFakeMonitor()
	ts := newTestServer(m)
	defer ts.Close()

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/targets/lobby/ping", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("got status %d", resp.StatusCode)
	}
	if len(m.polled) != 1 || m.polled[0] != "lobby" {
		t.Errorf("got polled %v", m.polled)
	}

	m.pollErr = errors.New("i/o timeout")
	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/targets/survival/ping", nil)
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("got status %d", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/targets/creative/ping", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("got status %d", resp.StatusCode)
	}
}

func TestGetFavicon(t *testing.T) {
	ts := newTestServer(newFakeMonitor())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/targets/lobby/favicon.png")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("Content-Type") != "image/png" {
		t.Errorf("got content type %q", resp.Header.Get("Content-Type"))
	}
	bb, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if string(bb) != string(pngBytes) {
		t.Errorf("got %x", bb)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/targets/lobby/favicon.png", nil)
	req.Header.Set("If-None-Match", resp.Header.Get("ETag"))
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotModified {
		t.Errorf("got status %d", resp2.StatusCode)
	}
	if etag := resp2.Header.Get("ETag"); etag == "" || etag != resp.Header.Get("ETag") {
		t.Errorf("got etag %q on not modified; want %q", etag, resp.Header.Get("ETag"))
	}

	resp3 := doRequest(t, http.MethodGet, ts.URL+"/v1/targets/survival/favicon.png", nil)
	if resp3.StatusCode != http.StatusNotFound {
		t.Errorf("got status %d", resp3.StatusCode)
	}
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(newFakeMonitor())
	defer ts.Close()

	resp := doRequest(t, http.MethodGet, ts.URL+"/metrics", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("got status %d", resp.StatusCode)
	}
}
