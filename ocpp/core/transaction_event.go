package core

import "evstation/types"

const TransactionEventFeatureName = "TransactionEvent"

type TransactionEventRequest struct {
	EventType       types.TransactionEventType `json:"eventType"`
	Timestamp       *types.DateTime            `json:"timestamp"`
	TriggerReason   types.TriggerReasonType    `json:"triggerReason"`
	SeqNo           int                        `json:"seqNo"`
	Offline         bool                       `json:"offline,omitempty"`
	TransactionInfo types.TransactionInfo      `json:"transactionInfo"`
	Evse            *types.EVSE                `json:"evse,omitempty"`
	IdToken         *types.IdToken             `json:"idToken,omitempty"`
	MeterValue      []types.MeterValue         `json:"meterValue,omitempty"`
}

type TransactionEventResponse struct {
	TotalCost   *float64           `json:"totalCost,omitempty"`
	IdTokenInfo *types.IdTokenInfo `json:"idTokenInfo,omitempty"`
}

func (r TransactionEventRequest) GetFeatureName() string {
	return TransactionEventFeatureName
}

func (c TransactionEventResponse) GetFeatureName() string {
	return TransactionEventFeatureName
}
