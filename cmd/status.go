package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/haveachin/slping/pkg/slping"
)

var (
	statusJSONOutput bool
	statusProxyURL   string
	statusPingerCfg  = slping.DefaultPingerConfig()

	statusCmd = &cobra.Command{
		Use:   "status ADDR...",
		Short: "Queries the status of Minecraft servers once",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = newLogger(environment)
			if err != nil {
				return err
			}
			defer logger.Sync()

			d, err := slping.NewDialer(statusProxyURL, statusPingerCfg.Timeout)
			if err != nil {
				return err
			}

			p := slping.NewPinger(slping.WithPingerConfig(statusPingerCfg))
			p.Dialer = d
			p.Logger = logger

			results := pingAll(cmd.Context(), p, args)

			out := cmd.OutOrStdout()
			if statusJSONOutput {
				if err := writeStatusJSON(out, results); err != nil {
					return err
				}
			} else {
				writeStatusTable(out, results)
			}

			var errs error
			for _, r := range results {
				if r.err != nil {
					errs = multierr.Append(errs, fmt.Errorf("%s: %w", r.addr, r.err))
				}
			}
			return errs
		},
	}
)

func init() {
	flags := statusCmd.Flags()
	flags.BoolVar(&statusJSONOutput, "json", false, "print the raw status documents as json")
	flags.StringVar(&statusProxyURL, "proxy", "", "dial through a proxy, e.g. socks5://127.0.0.1:1080")
	flags.DurationVarP(&statusPingerCfg.Timeout, "timeout", "t", statusPingerCfg.Timeout, "timeout of each query")
	flags.Int32VarP((*int32)(&statusPingerCfg.ProtocolVersion), "protocol", "p", int32(statusPingerCfg.ProtocolVersion), "protocol version sent in the handshake")
	flags.BoolVar(&statusPingerCfg.SendProxyProtocol, "proxy-protocol", statusPingerCfg.SendProxyProtocol, "send a PROXY protocol v2 header")
	flags.BoolVar(&statusPingerCfg.MeasureLatency, "latency", statusPingerCfg.MeasureLatency, "measure the latency with a ping packet")
}

type pingResult struct {
	addr string
	res  slping.Result
	err  error
}

func pingAll(ctx context.Context, p *slping.Pinger, addrs []string) []pingResult {
	results := make([]pingResult, len(addrs))
	var wg sync.WaitGroup
	wg.Add(len(addrs))
	for i, addr := range addrs {
		go func(i int, addr string) {
			defer wg.Done()
			res, err := p.Ping(ctx, addr)
			results[i] = pingResult{
				addr: addr,
				res:  res,
				err:  err,
			}
		}(i, addr)
	}
	wg.Wait()
	return results
}

func writeStatusTable(w io.Writer, results []pingResult) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"Address", "Version", "Players", "Latency", "Description"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, r := range results {
		if r.err != nil {
			tw.Append([]string{r.addr, "-", "-", "-", r.err.Error()})
			continue
		}

		s := r.res.Status
		latency := "-"
		if r.res.Latency > 0 {
			latency = r.res.Latency.Round(time.Millisecond).String()
		}

		tw.Append([]string{
			r.addr,
			fmt.Sprintf("%s (%d)", s.Version.Name, s.Version.Protocol),
			fmt.Sprintf("%d/%d", s.Players.Online, s.Players.Max),
			latency,
			s.Description.String(),
		})
	}

	tw.Render()
}

type statusJSONLine struct {
	Addr      string          `json:"address"`
	Status    json.RawMessage `json:"status,omitempty"`
	LatencyMs int64           `json:"latencyMs,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func writeStatusJSON(w io.Writer, results []pingResult) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		line := statusJSONLine{
			Addr:      r.addr,
			LatencyMs: r.res.Latency.Milliseconds(),
		}
		if json.Valid([]byte(r.res.JSON)) {
			line.Status = json.RawMessage(r.res.JSON)
		}
		if r.err != nil {
			line.Error = r.err.Error()
		}

		if err := enc.Encode(line); err != nil {
			return err
		}
	}
	return nil
}
