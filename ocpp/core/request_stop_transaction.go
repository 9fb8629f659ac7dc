package core

import "evstation/types"

const RequestStopTransactionFeatureName = "RequestStopTransaction"

type RequestStopTransactionRequest struct {
	TransactionId string `json:"transactionId"`
}

type RequestStopTransactionResponse struct {
	Status     types.RequestStartStopStatus `json:"status"`
	StatusInfo *types.StatusInfo            `json:"statusInfo,omitempty"`
}

func (r RequestStopTransactionRequest) GetFeatureName() string {
	return RequestStopTransactionFeatureName
}

func (c RequestStopTransactionResponse) GetFeatureName() string {
	return RequestStopTransactionFeatureName
}
