package station

import (
	"context"
	"fmt"

	"evstation/evse"
	"evstation/ocpp/core"
	"evstation/power"
	"evstation/types"
	"evstation/utility"
)

// OnRequestStartTransaction opens a transaction on the requested evse, or on
// the first free one. A charging profile sent along must be a TxProfile.
func (cs *ChargingStation) OnRequestStartTransaction(request *core.RequestStartTransactionRequest) (*core.RequestStartTransactionResponse, func()) {
	rejected := func(reason, info string) (*core.RequestStartTransactionResponse, func()) {
		cs.logger.FeatureEvent(featureName, cs.info.Id, fmt.Sprintf("remote start %d rejected: %s %s", request.RemoteStartId, reason, info))
		return &core.RequestStartTransactionResponse{
			Status:     types.RequestStartStopStatusRejected,
			StatusInfo: types.NewStatusInfo(reason, info),
		}, nil
	}

	evseId, ok := cs.freeEvse(request.EvseId)
	if !ok {
		if request.EvseId != nil && !cs.evses.EvseExists(*request.EvseId) {
			return rejected("UnknownEVSE", fmt.Sprint(*request.EvseId))
		}
		return rejected("TxInProgress", "no free evse")
	}

	var profile *types.ChargingProfile
	if request.ChargingProfile != nil {
		profile = request.ChargingProfile.Copy()
		if result := cs.profiles.Validate(profile, evseId, types.ProfileSourceRequestStartTransaction); result != power.Valid {
			return rejected(result.ReasonCode(), result.String())
		}
	}

	remoteStartId := request.RemoteStartId
	tx, err := cs.evses.StartTransaction(evseId, request.IdToken, &remoteStartId, cs.now())
	if err != nil {
		return rejected("TxInProgress", err.Error())
	}
	if profile != nil {
		profile.TransactionId = tx.Id
		response := cs.profiles.AddProfile(profile, evseId, types.ChargingLimitSourceCSO, types.ProfileSourceRequestStartTransaction)
		if response.Status != types.ChargingProfileStatusAccepted {
			cs.logger.Warn(fmt.Sprintf("profile %d of remote start %d not installed: %v", profile.Id, remoteStartId, response.StatusInfo))
		}
	}

	followUp := func() {
		cs.sendTransactionEvent(types.TransactionEventStarted, types.TriggerReasonRemoteStart, tx, nil)
	}
	return &core.RequestStartTransactionResponse{
		Status:        types.RequestStartStopStatusAccepted,
		TransactionId: tx.Id,
	}, followUp
}

func (cs *ChargingStation) freeEvse(requested *int) (int, bool) {
	if requested != nil {
		if !cs.evses.EvseExists(*requested) || cs.evses.HasActiveTransaction(*requested) {
			return 0, false
		}
		return *requested, true
	}
	for _, evseId := range cs.evses.EvseIds() {
		if !cs.evses.HasActiveTransaction(evseId) {
			return evseId, true
		}
	}
	return 0, false
}

func (cs *ChargingStation) OnRequestStopTransaction(request *core.RequestStopTransactionRequest) (*core.RequestStopTransactionResponse, func()) {
	tx, err := cs.stopTransaction(request.TransactionId)
	if err != nil {
		return &core.RequestStopTransactionResponse{
			Status:     types.RequestStartStopStatusRejected,
			StatusInfo: types.NewStatusInfo("TxNotFound", request.TransactionId),
		}, nil
	}
	followUp := func() {
		cs.sendTransactionEvent(types.TransactionEventEnded, types.TriggerReasonRemoteStop, tx, nil)
	}
	return &core.RequestStopTransactionResponse{Status: types.RequestStartStopStatusAccepted}, followUp
}

func (cs *ChargingStation) stopTransaction(transactionId string) (evse.Transaction, error) {
	tx, err := cs.evses.StopTransaction(transactionId)
	if err != nil {
		return tx, err
	}
	if n := cs.profiles.DeleteTransactionTxProfiles(transactionId); n > 0 {
		cs.logger.FeatureEvent(featureName, transactionId, fmt.Sprintf("%d transaction profiles removed", n))
	}
	return tx, nil
}

// StartLocalTransaction authorizes the token with the CSMS and starts charging
// on the evse.
func (cs *ChargingStation) StartLocalTransaction(ctx context.Context, evseId int, idToken types.IdToken) (evse.Transaction, error) {
	if !cs.evses.EvseExists(evseId) {
		return evse.Transaction{}, utility.Err(fmt.Sprintf("unknown evse %d", evseId))
	}
	if cs.evses.HasActiveTransaction(evseId) {
		return evse.Transaction{}, utility.Err(fmt.Sprintf("evse %d is busy", evseId))
	}
	status, err := cs.Authorize(ctx, idToken)
	if err != nil {
		return evse.Transaction{}, err
	}
	if status != types.AuthorizationStatusAccepted {
		return evse.Transaction{}, utility.Err(fmt.Sprintf("token %s not authorized: %s", idToken.IdToken, status))
	}
	tx, err := cs.evses.StartTransaction(evseId, idToken, nil, cs.now())
	if err != nil {
		return tx, err
	}
	cs.sendTransactionEvent(types.TransactionEventStarted, types.TriggerReasonAuthorized, tx, nil)
	return tx, nil
}

func (cs *ChargingStation) StopLocalTransaction(transactionId string) error {
	tx, err := cs.stopTransaction(transactionId)
	if err != nil {
		return err
	}
	cs.sendTransactionEvent(types.TransactionEventEnded, types.TriggerReasonAuthorized, tx, nil)
	return nil
}

// Authorize asks the CSMS about the token. No answer counts as unknown.
func (cs *ChargingStation) Authorize(ctx context.Context, idToken types.IdToken) (types.AuthorizationStatus, error) {
	msg, err := cs.dispatcher.DispatchCallAsync(ctx, &core.AuthorizeRequest{IdToken: idToken}, cs.timeout)
	if err != nil {
		return "", fmt.Errorf("authorize: %w", err)
	}
	if msg == nil {
		return types.AuthorizationStatusUnknown, nil
	}
	if msg.IsCallError() {
		return "", utility.Err(fmt.Sprintf("authorize: %s %s", msg.ErrorCode, msg.ErrorDescription))
	}
	return msg.Response.(*core.AuthorizeResponse).IdTokenInfo.Status, nil
}

// SendMeterValues reports readings of the evse: inside a transaction as a
// TransactionEvent, otherwise as MeterValues.
func (cs *ChargingStation) SendMeterValues(evseId int, values []types.MeterValue) error {
	if !cs.evses.EvseExists(evseId) {
		return utility.Err(fmt.Sprintf("unknown evse %d", evseId))
	}
	if len(values) == 0 {
		return utility.Err("no meter values")
	}
	if transactionId, ok := cs.evses.TransactionId(evseId); ok {
		if tx, found := cs.evses.FindTransaction(transactionId); found {
			cs.sendTransactionEvent(types.TransactionEventUpdated, types.TriggerReasonMeterValuePeriodic, tx, values)
			return nil
		}
	}
	cs.dispatch(core.NewMeterValuesRequest(evseId, values))
	return nil
}

func (cs *ChargingStation) sendTransactionEvent(eventType types.TransactionEventType, trigger types.TriggerReasonType, tx evse.Transaction, values []types.MeterValue) {
	// a stopped transaction is gone from the manager, its copy holds the next number
	seqNo := tx.SeqNo()
	if eventType != types.TransactionEventEnded {
		seqNo = cs.evses.NextSeqNo(tx.Id)
	}
	request := &core.TransactionEventRequest{
		EventType:     eventType,
		Timestamp:     types.NewDateTime(cs.now()),
		TriggerReason: trigger,
		SeqNo:         seqNo,
		TransactionInfo: types.TransactionInfo{
			TransactionId: tx.Id,
			RemoteStartId: tx.RemoteStartId,
		},
		Evse:       &types.EVSE{Id: tx.EvseId},
		MeterValue: values,
	}
	switch eventType {
	case types.TransactionEventStarted:
		idToken := tx.IdToken
		request.IdToken = &idToken
		request.TransactionInfo.ChargingState = types.ChargingStateCharging
	case types.TransactionEventEnded:
		request.TransactionInfo.ChargingState = types.ChargingStateIdle
	}
	cs.dispatch(request)
}
