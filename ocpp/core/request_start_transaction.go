package core

import "evstation/types"

const RequestStartTransactionFeatureName = "RequestStartTransaction"

type RequestStartTransactionRequest struct {
	EvseId          *int                   `json:"evseId,omitempty"`
	RemoteStartId   int                    `json:"remoteStartId"`
	IdToken         types.IdToken          `json:"idToken"`
	ChargingProfile *types.ChargingProfile `json:"chargingProfile,omitempty"`
}

type RequestStartTransactionResponse struct {
	Status        types.RequestStartStopStatus `json:"status"`
	TransactionId string                       `json:"transactionId,omitempty"`
	StatusInfo    *types.StatusInfo            `json:"statusInfo,omitempty"`
}

func (r RequestStartTransactionRequest) GetFeatureName() string {
	return RequestStartTransactionFeatureName
}

func (c RequestStartTransactionResponse) GetFeatureName() string {
	return RequestStartTransactionFeatureName
}
