package station

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"evstation/devicemodel"
	"evstation/dispatch"
	"evstation/evse"
	"evstation/internal"
	"evstation/ocpp"
	"evstation/ocpp/core"
	"evstation/ocpp/smartcharging"
	"evstation/power"
	"evstation/types"
	"evstation/utility"
)

const (
	featureName              = "Station"
	defaultHeartbeatInterval = 300
	bootRetryInterval        = 30 * time.Second
)

var errNotSupported = utility.Err("action not supported by the station")

// Info identifies the station in BootNotification.
type Info struct {
	Id              string
	Vendor          string
	Model           string
	SerialNumber    string
	FirmwareVersion string
}

// ChargingStation answers the CSMS's calls and drives the station's own
// messages: boot, heartbeat, transaction events.
type ChargingStation struct {
	info       Info
	dispatcher *dispatch.Dispatcher
	profiles   *power.ProfileManager
	calculator *power.CompositeCalculator
	evses      *evse.Manager
	device     *devicemodel.Store
	logger     internal.LogHandler
	now        func() time.Time
	timeout    time.Duration

	ctx         context.Context
	mutex       sync.Mutex
	booted      bool
	bootRunning bool
	startupSent bool
	wake        chan struct{}
}

func NewChargingStation(info Info, dispatcher *dispatch.Dispatcher, profiles *power.ProfileManager, calculator *power.CompositeCalculator, evses *evse.Manager, device *devicemodel.Store) *ChargingStation {
	return &ChargingStation{
		info:       info,
		dispatcher: dispatcher,
		profiles:   profiles,
		calculator: calculator,
		evses:      evses,
		device:     device,
		logger:     internal.NopLogger{},
		now:        time.Now,
		timeout:    30 * time.Second,
		ctx:        context.Background(),
		wake:       make(chan struct{}, 1),
	}
}

func (cs *ChargingStation) SetLogger(logger internal.LogHandler) {
	cs.logger = logger
}

func (cs *ChargingStation) SetTimeout(timeout time.Duration) {
	cs.timeout = timeout
}

// Features lists every action the station and the CSMS exchange.
func Features() ocpp.FeatureSet {
	return ocpp.NewFeatureSet(append(core.Features(), smartcharging.Features()...)...)
}

func (cs *ChargingStation) Start(ctx context.Context) {
	cs.ctx = ctx
	cs.dispatcher.Start(ctx)
	go cs.heartbeat(ctx)
}

func (cs *ChargingStation) Booted() bool {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()
	return cs.booted
}

func (cs *ChargingStation) OnConnected() {
	cs.dispatcher.OnConnected()
	go cs.boot(cs.ctx)
}

func (cs *ChargingStation) OnDisconnected() {
	cs.mutex.Lock()
	cs.booted = false
	cs.mutex.Unlock()
	cs.dispatcher.OnDisconnected()
}

// boot repeats BootNotification until the CSMS accepts it.
func (cs *ChargingStation) boot(ctx context.Context) {
	cs.mutex.Lock()
	if cs.bootRunning {
		cs.mutex.Unlock()
		return
	}
	cs.bootRunning = true
	cs.mutex.Unlock()
	defer func() {
		cs.mutex.Lock()
		cs.bootRunning = false
		cs.mutex.Unlock()
	}()

	request := core.NewBootNotificationRequest(core.ChargingStation{
		SerialNumber:    cs.info.SerialNumber,
		Model:           cs.info.Model,
		VendorName:      cs.info.Vendor,
		FirmwareVersion: cs.info.FirmwareVersion,
	}, types.BootReasonPowerUp)

	for {
		msg, err := cs.dispatcher.DispatchCallAsync(ctx, request, cs.timeout)
		retry := bootRetryInterval
		switch {
		case err != nil:
			cs.logger.Warn(fmt.Sprintf("boot notification failed: %s", err))
			if ctx.Err() != nil || err == dispatch.ErrOffline || err == dispatch.ErrClosed {
				return
			}
		case msg == nil:
			cs.logger.Warn("no answer to boot notification")
		case msg.IsCallError():
			cs.logger.Warn(fmt.Sprintf("boot notification answered with %s", msg.ErrorCode))
		default:
			response := msg.Response.(*core.BootNotificationResponse)
			if response.Interval > 0 {
				retry = time.Duration(response.Interval) * time.Second
			}
			if response.Status == types.RegistrationStatusAccepted {
				cs.onBootAccepted(response)
				return
			}
			cs.logger.FeatureEvent(featureName, cs.info.Id, fmt.Sprintf("registration %s, retry in %s", response.Status, retry))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
	}
}

func (cs *ChargingStation) onBootAccepted(response *core.BootNotificationResponse) {
	if response.Interval > 0 {
		if err := cs.device.Set(devicemodel.HeartbeatInterval, fmt.Sprint(response.Interval)); err != nil {
			cs.logger.Error("storing heartbeat interval", err)
		}
	}
	cs.mutex.Lock()
	cs.booted = true
	sendStartup := !cs.startupSent
	cs.startupSent = true
	cs.mutex.Unlock()
	cs.logger.FeatureEvent(featureName, cs.info.Id, fmt.Sprintf("registration accepted, heartbeat every %ds", cs.heartbeatInterval()))

	timestamp := types.NewDateTime(cs.now())
	if sendStartup {
		cs.dispatch(core.NewSecurityEventNotificationRequest(core.SecurityEventStartupOfTheDevice, timestamp))
	}
	for _, evseId := range cs.evses.EvseIds() {
		status := core.ConnectorStatusAvailable
		if cs.evses.HasActiveTransaction(evseId) {
			status = core.ConnectorStatusOccupied
		}
		cs.dispatch(core.NewStatusNotificationRequest(evseId, status, timestamp))
	}
	cs.wakeHeartbeat()
}

func (cs *ChargingStation) heartbeatInterval() int {
	return cs.device.GetInt(devicemodel.HeartbeatInterval, defaultHeartbeatInterval)
}

func (cs *ChargingStation) wakeHeartbeat() {
	select {
	case cs.wake <- struct{}{}:
	default:
	}
}

func (cs *ChargingStation) heartbeat(ctx context.Context) {
	for {
		interval := time.Duration(cs.heartbeatInterval()) * time.Second
		select {
		case <-ctx.Done():
			return
		case <-cs.wake:
			continue
		case <-time.After(interval):
		}
		if !cs.Booted() {
			continue
		}
		msg, err := cs.dispatcher.DispatchCallAsync(ctx, &core.HeartbeatRequest{}, cs.timeout)
		if err != nil || msg == nil || msg.IsCallError() {
			cs.logger.Debug(fmt.Sprintf("heartbeat not answered: %v", err))
			continue
		}
		if response, ok := msg.Response.(*core.HeartbeatResponse); ok {
			if drift := response.Drift(cs.now()); drift > time.Minute || drift < -time.Minute {
				cs.logger.Warn(fmt.Sprintf("local clock differs from csms by %s", drift.Round(time.Second)))
			}
		}
	}
}

// dispatch queues a call nobody waits for; failures only get logged.
func (cs *ChargingStation) dispatch(request ocpp.Request) *dispatch.PendingCall {
	call, err := cs.dispatcher.DispatchCall(request)
	if err != nil {
		cs.logger.Error(fmt.Sprintf("queueing %s", request.GetFeatureName()), err)
		return nil
	}
	go func() {
		msg, err := call.Wait(cs.ctx)
		if err != nil {
			cs.logger.Warn(fmt.Sprintf("%s not delivered: %s", call.Action, err))
			return
		}
		if msg != nil && msg.IsCallError() {
			cs.logger.Warn(fmt.Sprintf("%s answered with %s: %s", call.Action, msg.ErrorCode, msg.ErrorDescription))
		}
	}()
	return call
}

// HandleMessage is the transport's message handler.
func (cs *ChargingStation) HandleMessage(data []byte) {
	msg, err := cs.dispatcher.OnMessageReceived(data)
	if err != nil {
		cs.logger.Warn(fmt.Sprintf("inbound message: %s", err))
		return
	}
	if msg.MessageType != ocpp.CallTypeRequest {
		return
	}
	response, followUp, err := cs.handleRequest(msg)
	if err != nil {
		code := ocpp.ErrorCodeInternalError
		if errors.Is(err, errNotSupported) {
			code = ocpp.ErrorCodeNotSupported
		} else {
			cs.logger.Error(fmt.Sprintf("handling %s", msg.Action), err)
		}
		if replyErr := cs.dispatcher.DispatchCallError(msg.UniqueId, code, err.Error(), nil); replyErr != nil {
			cs.logger.Error("sending call error", replyErr)
		}
		return
	}
	if err = cs.dispatcher.DispatchCallResult(msg.UniqueId, response); err != nil {
		cs.logger.Error(fmt.Sprintf("replying to %s", msg.Action), err)
		return
	}
	if followUp != nil {
		followUp()
	}
}

// handleRequest returns the response and, for some actions, the calls to
// send once the response is out.
func (cs *ChargingStation) handleRequest(msg *ocpp.EnhancedMessage) (ocpp.Response, func(), error) {
	switch request := msg.Request.(type) {
	case *smartcharging.SetChargingProfileRequest:
		return cs.OnSetChargingProfile(request), nil, nil
	case *smartcharging.ClearChargingProfileRequest:
		return cs.OnClearChargingProfile(request), nil, nil
	case *smartcharging.GetChargingProfilesRequest:
		response, followUp := cs.OnGetChargingProfiles(request)
		return response, followUp, nil
	case *smartcharging.GetCompositeScheduleRequest:
		return cs.OnGetCompositeSchedule(request), nil, nil
	case *core.RequestStartTransactionRequest:
		response, followUp := cs.OnRequestStartTransaction(request)
		return response, followUp, nil
	case *core.RequestStopTransactionRequest:
		response, followUp := cs.OnRequestStopTransaction(request)
		return response, followUp, nil
	case *core.GetVariablesRequest:
		return cs.OnGetVariables(request), nil, nil
	case *core.SetVariablesRequest:
		return cs.OnSetVariables(request), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s", errNotSupported, msg.Action)
	}
}
