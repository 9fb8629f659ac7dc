package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"evstation/internal"
	"evstation/metrics/counters"
	"evstation/ocpp"
	"evstation/ocpp/core"
	"evstation/utility"
)

const (
	featureName = "Dispatcher"
	idleWait    = time.Minute
)

var (
	ErrOffline = errors.New("charging station is offline")
	ErrClosed  = errors.New("dispatcher is closed")
)

// Transport delivers a single encoded frame to the CSMS.
type Transport interface {
	Send(data []byte) error
}

type Config struct {
	MessageTimeout      time.Duration
	TransactionAttempts int
	RetryInterval       time.Duration
	QueueAllMessages    bool
}

type Status struct {
	Connected        bool   `json:"connected"`
	TransactionQueue int    `json:"transaction_queue"`
	NormalQueue      int    `json:"normal_queue"`
	InFlight         string `json:"in_flight,omitempty"`
	InFlightAction   string `json:"in_flight_action,omitempty"`
}

// Dispatcher owns every outbound call of the station. Calls are sent one at
// a time; transaction messages survive disconnects and are retried.
type Dispatcher struct {
	transport Transport
	features  ocpp.FeatureSet
	conf      Config
	logger    internal.LogHandler
	now       func() time.Time

	mutex        sync.Mutex
	connected    bool
	closed       bool
	seq          uint64
	transactions []*PendingCall
	normal       []*PendingCall
	inFlight     *PendingCall
	wake         chan struct{}
}

func NewDispatcher(transport Transport, features ocpp.FeatureSet, conf Config, logger internal.LogHandler) *Dispatcher {
	if conf.MessageTimeout <= 0 {
		conf.MessageTimeout = 30 * time.Second
	}
	if conf.TransactionAttempts <= 0 {
		conf.TransactionAttempts = 1
	}
	if logger == nil {
		logger = internal.NopLogger{}
	}
	return &Dispatcher{
		transport: transport,
		features:  features,
		conf:      conf,
		logger:    logger,
		now:       time.Now,
		wake:      make(chan struct{}, 1),
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	go d.Run(ctx)
}

// Run is the sender loop; it returns when ctx is cancelled and fails every
// call still queued with ErrClosed.
func (d *Dispatcher) Run(ctx context.Context) {
	timer := time.NewTimer(idleWait)
	defer timer.Stop()
	for {
		wait := d.step()
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)
		select {
		case <-ctx.Done():
			d.close()
			return
		case <-d.wake:
		case <-timer.C:
		}
	}
}

func (d *Dispatcher) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// step expires the in-flight call when its deadline passed and sends the next
// one when allowed. It returns how long the loop may sleep.
func (d *Dispatcher) step() time.Duration {
	d.mutex.Lock()
	now := d.now()
	var expired *PendingCall
	if d.inFlight != nil {
		if now.Before(d.inFlight.deadline) {
			wait := d.inFlight.deadline.Sub(now)
			d.mutex.Unlock()
			return wait
		}
		expired = d.expireInFlight(now)
	}
	if !d.connected || d.closed {
		d.mutex.Unlock()
		if expired != nil {
			expired.resolve(nil, nil)
		}
		return idleWait
	}
	next, wait := d.nextCall(now)
	if next != nil {
		next.attempts++
		next.deadline = now.Add(d.conf.MessageTimeout)
		d.inFlight = next
		wait = d.conf.MessageTimeout
	}
	d.mutex.Unlock()

	if expired != nil {
		expired.resolve(nil, nil)
	}
	if next == nil {
		return wait
	}
	if err := d.transport.Send(next.data); err != nil {
		d.sendFailed(next, err)
		return 0
	}
	return wait
}

// nextCall picks the older of the ready queue heads.
func (d *Dispatcher) nextCall(now time.Time) (*PendingCall, time.Duration) {
	wait := idleWait
	var next *PendingCall
	for _, queue := range [][]*PendingCall{d.transactions, d.normal} {
		if len(queue) == 0 {
			continue
		}
		head := queue[0]
		if now.Before(head.notBefore) {
			if w := head.notBefore.Sub(now); w < wait {
				wait = w
			}
			continue
		}
		if next == nil || head.seq < next.seq {
			next = head
		}
	}
	return next, wait
}

// expireInFlight handles a call whose response did not arrive in time. It
// returns the call when it has to be resolved as unanswered.
func (d *Dispatcher) expireInFlight(now time.Time) *PendingCall {
	call := d.inFlight
	d.inFlight = nil
	if call.Transaction && call.attempts < d.conf.TransactionAttempts {
		call.notBefore = now.Add(d.conf.RetryInterval * time.Duration(call.attempts))
		counters.ObserveRetry(call.Action)
		d.logger.FeatureEvent(featureName, call.UniqueId, fmt.Sprintf("%s timed out, attempt %d of %d", call.Action, call.attempts, d.conf.TransactionAttempts))
		return nil
	}
	d.remove(call)
	counters.ObserveCall(call.Action, "timeout")
	d.logger.FeatureEvent(featureName, call.UniqueId, fmt.Sprintf("%s got no response", call.Action))
	return call
}

func (d *Dispatcher) sendFailed(call *PendingCall, err error) {
	d.mutex.Lock()
	if d.inFlight != call {
		d.mutex.Unlock()
		return
	}
	d.inFlight = nil
	if call.Transaction || d.conf.QueueAllMessages {
		call.attempts = 0
		call.notBefore = d.now().Add(maxDuration(d.conf.RetryInterval, time.Second))
		d.mutex.Unlock()
		d.logger.Warn(fmt.Sprintf("sending %s %s failed, keeping it queued: %s", call.Action, call.UniqueId, err))
		return
	}
	d.remove(call)
	d.mutex.Unlock()
	counters.ObserveCall(call.Action, "failed")
	call.resolve(nil, fmt.Errorf("sending %s: %w", call.Action, err))
}

// remove drops the call from its queue; the caller holds the mutex.
func (d *Dispatcher) remove(call *PendingCall) {
	if call.Transaction {
		d.transactions = without(d.transactions, call)
	} else {
		d.normal = without(d.normal, call)
	}
	d.observe()
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

func without(queue []*PendingCall, call *PendingCall) []*PendingCall {
	for i, c := range queue {
		if c == call {
			return append(queue[:i:i], queue[i+1:]...)
		}
	}
	return queue
}

func (d *Dispatcher) observe() {
	counters.ObserveQueue("transaction", len(d.transactions))
	counters.ObserveQueue("normal", len(d.normal))
}

// DispatchCall queues the request and returns its handle.
func (d *Dispatcher) DispatchCall(request ocpp.Request) (*PendingCall, error) {
	if request == nil {
		return nil, utility.Err("request is nil")
	}
	call := ocpp.NewCall(utility.NewUUID(), request)
	data, err := json.Marshal(call)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", call.Action, err)
	}
	pending := newPendingCall(call, data, core.IsTransactionMessage(call.Action), d.now())

	d.mutex.Lock()
	if d.closed {
		d.mutex.Unlock()
		return nil, ErrClosed
	}
	if !d.connected && !pending.Transaction && !d.conf.QueueAllMessages {
		d.mutex.Unlock()
		counters.ObserveCall(pending.Action, "offline")
		pending.resolve(nil, ErrOffline)
		return pending, nil
	}
	d.seq++
	pending.seq = d.seq
	pending.offline = !d.connected
	if pending.Transaction {
		d.transactions = append(d.transactions, pending)
	} else {
		d.normal = append(d.normal, pending)
	}
	d.observe()
	d.mutex.Unlock()

	d.signal()
	return pending, nil
}

// DispatchCallAsync sends the request and waits for the answer. A CallError is
// returned as a message; (nil, nil) means no answer came within timeout.
func (d *Dispatcher) DispatchCallAsync(ctx context.Context, request ocpp.Request, timeout time.Duration) (*ocpp.EnhancedMessage, error) {
	call, err := d.DispatchCall(request)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = d.conf.MessageTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-call.Done():
		return call.Result()
	case <-timer.C:
		d.abandon(call)
		return nil, nil
	case <-ctx.Done():
		d.abandon(call)
		return nil, ctx.Err()
	}
}

// abandon marks a call nobody waits for. Unsent normal calls are dropped;
// transaction messages still go out.
func (d *Dispatcher) abandon(call *PendingCall) {
	d.mutex.Lock()
	call.abandoned = true
	drop := call != d.inFlight && !call.Transaction
	if drop {
		d.remove(call)
	}
	d.mutex.Unlock()
	if drop {
		call.resolve(nil, nil)
	}
}

func (d *Dispatcher) DispatchCallResult(uniqueId string, response ocpp.Response) error {
	return d.reply(&ocpp.CallResult{UniqueId: uniqueId, Payload: response})
}

func (d *Dispatcher) DispatchCallError(uniqueId string, code ocpp.ErrorCode, description string, details interface{}) error {
	return d.reply(&ocpp.CallError{
		UniqueId:         uniqueId,
		ErrorCode:        code,
		ErrorDescription: description,
		ErrorDetails:     details,
	})
}

// reply bypasses the queues: answers to the peer's calls are not subject to
// the one-call-in-flight rule.
func (d *Dispatcher) reply(message json.Marshaler) error {
	d.mutex.Lock()
	connected := d.connected
	d.mutex.Unlock()
	if !connected {
		return ErrOffline
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("encoding reply: %w", err)
	}
	return d.transport.Send(data)
}

func (d *Dispatcher) pendingAction(uniqueId string) (string, bool) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.inFlight != nil && d.inFlight.UniqueId == uniqueId {
		return d.inFlight.Action, true
	}
	return "", false
}

// OnMessageReceived decodes an inbound frame. Responses resolve the call in
// flight; calls are returned to the caller for handling.
func (d *Dispatcher) OnMessageReceived(data []byte) (msg *ocpp.EnhancedMessage, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg = nil
			err = fmt.Errorf("inbound message: %v", r)
			d.logger.Error("handling inbound message", err)
		}
	}()

	msg, err = ocpp.ParseMessage(data, d.features, d.pendingAction)
	if err != nil {
		var parseErr *ocpp.ParseError
		if errors.As(err, &parseErr) {
			switch {
			case parseErr.Replyable():
				if replyErr := d.DispatchCallError(parseErr.UniqueId, parseErr.Code, parseErr.Err.Error(), nil); replyErr != nil {
					d.logger.Error(fmt.Sprintf("replying %s to %s", parseErr.Code, parseErr.UniqueId), replyErr)
				}
			case parseErr.MessageType == ocpp.CallTypeResult || parseErr.MessageType == ocpp.CallTypeError:
				d.failInFlight(parseErr.UniqueId, err)
			}
		}
		return nil, err
	}

	switch msg.MessageType {
	case ocpp.CallTypeResult, ocpp.CallTypeError:
		d.resolveInFlight(msg)
	}
	return msg, nil
}

// inFlightState is what the response path reads of the call, taken under
// the lock since abandon writes it from the waiting goroutine.
type inFlightState struct {
	offline   bool
	abandoned bool
}

func (d *Dispatcher) takeInFlight(uniqueId string) (*PendingCall, inFlightState) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	call := d.inFlight
	if call == nil || call.UniqueId != uniqueId {
		return nil, inFlightState{}
	}
	d.inFlight = nil
	d.remove(call)
	return call, inFlightState{offline: call.offline, abandoned: call.abandoned}
}

func (d *Dispatcher) resolveInFlight(msg *ocpp.EnhancedMessage) {
	call, state := d.takeInFlight(msg.UniqueId)
	if call == nil {
		d.logger.Warn(fmt.Sprintf("dropping unmatched %s %s", msg.MessageType, msg.UniqueId))
		return
	}
	msg.Offline = state.offline
	if msg.IsCallError() {
		counters.ObserveCall(call.Action, "error")
		d.logger.FeatureEvent(featureName, call.UniqueId, fmt.Sprintf("%s answered with %s: %s", call.Action, msg.ErrorCode, msg.ErrorDescription))
	} else {
		counters.ObserveCall(call.Action, "accepted")
	}
	if state.abandoned {
		d.logger.FeatureEvent(featureName, call.UniqueId, fmt.Sprintf("late response to %s dropped", call.Action))
	}
	call.resolve(msg, nil)
	d.signal()
}

func (d *Dispatcher) failInFlight(uniqueId string, err error) {
	call, _ := d.takeInFlight(uniqueId)
	if call == nil {
		d.logger.Warn(fmt.Sprintf("dropping malformed response %s: %s", uniqueId, err))
		return
	}
	counters.ObserveCall(call.Action, "malformed")
	call.resolve(nil, err)
	d.signal()
}

func (d *Dispatcher) OnConnected() {
	d.mutex.Lock()
	d.connected = true
	d.mutex.Unlock()
	counters.ObserveConnection(true)
	d.signal()
}

// OnDisconnected keeps transaction messages for the next connection and fails
// the rest, unless every message is to be queued.
func (d *Dispatcher) OnDisconnected() {
	var failed []*PendingCall
	d.mutex.Lock()
	d.connected = false
	if call := d.inFlight; call != nil {
		d.inFlight = nil
		call.attempts = 0
		call.notBefore = time.Time{}
	}
	if !d.conf.QueueAllMessages {
		failed = d.normal
		d.normal = nil
	}
	for _, call := range d.transactions {
		call.offline = true
	}
	for _, call := range d.normal {
		call.offline = true
	}
	d.observe()
	d.mutex.Unlock()

	counters.ObserveConnection(false)
	for _, call := range failed {
		counters.ObserveCall(call.Action, "offline")
		call.resolve(nil, ErrOffline)
	}
}

func (d *Dispatcher) close() {
	d.mutex.Lock()
	d.closed = true
	d.inFlight = nil
	calls := append(d.transactions, d.normal...)
	d.transactions = nil
	d.normal = nil
	d.observe()
	d.mutex.Unlock()
	for _, call := range calls {
		call.resolve(nil, ErrClosed)
	}
}

func (d *Dispatcher) Status() Status {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	status := Status{
		Connected:        d.connected,
		TransactionQueue: len(d.transactions),
		NormalQueue:      len(d.normal),
	}
	if d.inFlight != nil {
		status.InFlight = d.inFlight.UniqueId
		status.InFlightAction = d.inFlight.Action
	}
	return status
}
