package slping

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/haveachin/slping/pkg/slping/protocol"
	"github.com/haveachin/slping/pkg/slping/protocol/handshaking"
	"github.com/haveachin/slping/pkg/slping/protocol/status"
)

// ExchangeState is the progress of a single status exchange. States only
// ever move forward.
type ExchangeState int

const (
	StateIdle ExchangeState = iota
	StateHandshakeSent
	StateQuerySent
	StateAwaitingEnvelopeLength
	StateAwaitingEnvelopeBody
	StateAwaitingJSONLength
	StateAwaitingJSONBody
	StatePingSent
	StateDone
)

func (s ExchangeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateHandshakeSent:
		return "handshake sent"
	case StateQuerySent:
		return "query sent"
	case StateAwaitingEnvelopeLength:
		return "awaiting envelope length"
	case StateAwaitingEnvelopeBody:
		return "awaiting envelope body"
	case StateAwaitingJSONLength:
		return "awaiting json length"
	case StateAwaitingJSONBody:
		return "awaiting json body"
	case StatePingSent:
		return "ping sent"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ExchangeError reports the state an exchange was in when it failed.
type ExchangeError struct {
	State ExchangeState
	Err   error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%s: %v", e.State, e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// maxPongLength fits a pong packet with room to spare.
const maxPongLength = 16

type exchange struct {
	state ExchangeState

	r *bufio.Reader
	w io.Writer

	pk protocol.Packet
}

func newExchange(rw io.ReadWriter) *exchange {
	return &exchange{
		state: StateIdle,
		r:     bufio.NewReader(rw),
		w:     rw,
	}
}

func (e *exchange) enter(s ExchangeState) {
	if s > e.state {
		e.state = s
	}
}

func (e *exchange) fail(err error) error {
	return &ExchangeError{
		State: e.state,
		Err:   err,
	}
}

func (e *exchange) writePacket(m interface{ Marshal(*protocol.Packet) error }) error {
	if err := m.Marshal(&e.pk); err != nil {
		return err
	}
	_, err := e.pk.WriteTo(e.w)
	return err
}

func (e *exchange) sendHandshake(hs handshaking.ServerBoundHandshake) error {
	if err := e.writePacket(hs); err != nil {
		return e.fail(err)
	}
	e.enter(StateHandshakeSent)
	return nil
}

func (e *exchange) sendStatusRequest() error {
	if err := e.writePacket(status.ServerBoundRequest{}); err != nil {
		return e.fail(err)
	}
	e.enter(StateQuerySent)
	return nil
}

func (e *exchange) readStatusResponse(maxLen int) (string, error) {
	e.enter(StateAwaitingEnvelopeLength)
	pkLen, _, err := protocol.ReadPacketLength(e.r, maxLen)
	if err != nil {
		return "", e.fail(err)
	}

	e.enter(StateAwaitingEnvelopeBody)
	var pk protocol.Packet
	if _, err := pk.ReadBody(e.r, pkLen); err != nil {
		return "", e.fail(err)
	}

	e.enter(StateAwaitingJSONLength)
	var resp status.ClientBoundResponse
	if err := resp.Unmarshal(pk); err != nil {
		if errors.Is(err, protocol.ErrTruncatedString) {
			e.enter(StateAwaitingJSONBody)
		}
		return "", e.fail(err)
	}
	e.enter(StateAwaitingJSONBody)

	return string(resp.JSONResponse), nil
}

func (e *exchange) measureLatency() (time.Duration, error) {
	ping := status.ServerBoundPing{
		Payload: protocol.Long(time.Now().UnixMilli()),
	}
	start := time.Now()
	if err := e.writePacket(ping); err != nil {
		return 0, e.fail(err)
	}
	e.enter(StatePingSent)

	var pk protocol.Packet
	if _, err := pk.ReadFromLimited(e.r, maxPongLength); err != nil {
		return 0, e.fail(err)
	}
	latency := time.Since(start)

	var pong status.ClientBoundPong
	if err := pong.Unmarshal(pk); err != nil {
		return 0, e.fail(err)
	}
	if err := pong.Verify(ping); err != nil {
		return 0, e.fail(err)
	}
	return latency, nil
}
