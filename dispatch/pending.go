package dispatch

import (
	"context"
	"sync"
	"time"

	"evstation/ocpp"
)

// PendingCall is the handle of an outbound call. It resolves exactly once:
// with the peer's CallResult or CallError, with (nil, nil) when no response
// came in time, or with an error when the call could not be delivered.
type PendingCall struct {
	UniqueId    string
	Action      string
	Transaction bool
	Enqueued    time.Time

	data      []byte
	seq       uint64
	attempts  int
	offline   bool
	abandoned bool
	deadline  time.Time
	notBefore time.Time

	once sync.Once
	done chan struct{}
	msg  *ocpp.EnhancedMessage
	err  error
}

func newPendingCall(call *ocpp.Call, data []byte, transaction bool, now time.Time) *PendingCall {
	return &PendingCall{
		UniqueId:    call.UniqueId,
		Action:      call.Action,
		Transaction: transaction,
		Enqueued:    now,
		data:        data,
		done:        make(chan struct{}),
	}
}

func (p *PendingCall) resolve(msg *ocpp.EnhancedMessage, err error) {
	p.once.Do(func() {
		p.msg = msg
		p.err = err
		close(p.done)
	})
}

// Done is closed when the call is resolved.
func (p *PendingCall) Done() <-chan struct{} {
	return p.done
}

// Result is meaningful only after Done is closed.
func (p *PendingCall) Result() (*ocpp.EnhancedMessage, error) {
	select {
	case <-p.done:
		return p.msg, p.err
	default:
		return nil, nil
	}
}

func (p *PendingCall) Wait(ctx context.Context) (*ocpp.EnhancedMessage, error) {
	select {
	case <-p.done:
		return p.msg, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
