package slping

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/proxy"

	"github.com/haveachin/slping/pkg/slping/protocol"
	"github.com/haveachin/slping/pkg/slping/protocol/handshaking"
	"github.com/haveachin/slping/pkg/slping/protocol/status"
)

type PingerConfig struct {
	Timeout           time.Duration    `yaml:"timeout"`
	ProtocolVersion   protocol.Version `yaml:"protocolVersion"`
	MaxResponseSize   int              `yaml:"-"`
	SendProxyProtocol bool             `yaml:"sendProxyProtocol"`
	MeasureLatency    bool             `yaml:"measureLatency"`
}

type PingerConfigFunc func(cfg *PingerConfig)

func WithTimeout(d time.Duration) PingerConfigFunc {
	return func(cfg *PingerConfig) {
		cfg.Timeout = d
	}
}

func WithProtocolVersion(v protocol.Version) PingerConfigFunc {
	return func(cfg *PingerConfig) {
		cfg.ProtocolVersion = v
	}
}

func WithMaxResponseSize(n int) PingerConfigFunc {
	return func(cfg *PingerConfig) {
		cfg.MaxResponseSize = n
	}
}

func WithProxyProtocol(send bool) PingerConfigFunc {
	return func(cfg *PingerConfig) {
		cfg.SendProxyProtocol = send
	}
}

func WithLatency(measure bool) PingerConfigFunc {
	return func(cfg *PingerConfig) {
		cfg.MeasureLatency = measure
	}
}

func WithPingerConfig(c PingerConfig) PingerConfigFunc {
	return func(cfg *PingerConfig) {
		*cfg = c
	}
}

func DefaultPingerConfig() PingerConfig {
	return PingerConfig{
		Timeout:         5 * time.Second,
		ProtocolVersion: protocol.DefaultVersion,
		MaxResponseSize: protocol.MaxPacketLength,
		MeasureLatency:  true,
	}
}

// Result is the outcome of one status exchange.
type Result struct {
	Addr      string
	JSON      string
	Status    status.ResponseJSON
	Latency   time.Duration
	QueriedAt time.Time
}

// Pinger queries the status of Minecraft servers. A Pinger holds no state
// between calls and can be used by multiple goroutines at once.
type Pinger struct {
	Logger *zap.Logger
	Dialer proxy.ContextDialer

	cfg PingerConfig
}

func NewPinger(fns ...PingerConfigFunc) *Pinger {
	cfg := DefaultPingerConfig()
	for _, fn := range fns {
		fn(&cfg)
	}

	return &Pinger{
		Logger: zap.NewNop(),
		Dialer: &net.Dialer{},
		cfg:    cfg,
	}
}

func (p *Pinger) Config() PingerConfig {
	return p.cfg
}

// Ping dials addr and runs a status exchange on the new connection. The
// configured timeout and the deadline of ctx both bound the whole exchange.
func (p *Pinger) Ping(ctx context.Context, addr string) (Result, error) {
	host, port, err := ParseAddr(addr)
	if err != nil {
		return Result{}, err
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	dialAddr := net.JoinHostPort(host, strconv.Itoa(int(port)))
	c, err := p.Dialer.DialContext(ctx, "tcp", dialAddr)
	if err != nil {
		return Result{}, fmt.Errorf("dialing %s: %w", dialAddr, err)
	}
	defer c.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.SetDeadline(deadline); err != nil {
			return Result{}, err
		}
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.SetDeadline(time.Now())
	})
	defer stop()

	if p.cfg.SendProxyProtocol {
		if err := writeProxyProtocolHeader(c); err != nil {
			return Result{}, err
		}
	}

	res, err := p.Exchange(c, host, port)
	res.Addr = addr
	if err != nil && ctx.Err() != nil {
		err = fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	return res, err
}

// Exchange runs a status exchange over rw. It does not care what rw is
// backed by as long as writes block until all bytes are sent.
//
// If the status document cannot be decoded, the raw JSON is still returned
// in the Result together with an error wrapping status.ErrJSONDeserialization.
func (p *Pinger) Exchange(rw io.ReadWriter, host string, port uint16) (Result, error) {
	e := newExchange(rw)
	res := Result{
		Addr:      net.JoinHostPort(host, strconv.Itoa(int(port))),
		QueriedAt: time.Now(),
	}

	hs := handshaking.NewStatusHandshake(host, port)
	if p.cfg.ProtocolVersion != 0 {
		hs.ProtocolVersion = protocol.VarInt(p.cfg.ProtocolVersion)
	}

	if err := e.sendHandshake(hs); err != nil {
		return res, err
	}

	if err := e.sendStatusRequest(); err != nil {
		return res, err
	}

	maxLen := p.cfg.MaxResponseSize
	if maxLen <= 0 {
		maxLen = protocol.MaxPacketLength
	}
	json, err := e.readStatusResponse(maxLen)
	if err != nil {
		p.Logger.Debug("status exchange failed",
			zap.String("addr", res.Addr),
			zap.Stringer("state", e.state),
			zap.Error(err),
		)
		return res, err
	}
	res.JSON = json

	if p.cfg.MeasureLatency {
		latency, err := e.measureLatency()
		if err != nil {
			return res, err
		}
		res.Latency = latency
	}
	e.enter(StateDone)

	p.Logger.Debug("status exchange done",
		zap.String("addr", res.Addr),
		zap.Int("jsonLength", len(json)),
		zap.Duration("latency", res.Latency),
	)

	res.Status, err = status.ParseResponseJSON(json)
	return res, err
}

// IsTimeout reports whether err was caused by an elapsed deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
