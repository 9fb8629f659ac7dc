package core

import "evstation/types"

const MeterValuesFeatureName = "MeterValues"

type MeterValuesRequest struct {
	EvseId     int                `json:"evseId"`
	MeterValue []types.MeterValue `json:"meterValue"`
}

type MeterValuesResponse struct {
}

func (r MeterValuesRequest) GetFeatureName() string {
	return MeterValuesFeatureName
}

func (c MeterValuesResponse) GetFeatureName() string {
	return MeterValuesFeatureName
}

func NewMeterValuesRequest(evseId int, values []types.MeterValue) *MeterValuesRequest {
	return &MeterValuesRequest{EvseId: evseId, MeterValue: values}
}
