package smartcharging

import "evstation/types"

const GetCompositeScheduleFeatureName = "GetCompositeSchedule"

type GetCompositeScheduleRequest struct {
	Duration         int                        `json:"duration"`
	ChargingRateUnit types.ChargingRateUnitType `json:"chargingRateUnit,omitempty"`
	EvseId           int                        `json:"evseId"`
}

type GetCompositeScheduleResponse struct {
	Status     types.GenericStatus      `json:"status"`
	StatusInfo *types.StatusInfo        `json:"statusInfo,omitempty"`
	Schedule   *types.CompositeSchedule `json:"schedule,omitempty"`
}

func (r GetCompositeScheduleRequest) GetFeatureName() string {
	return GetCompositeScheduleFeatureName
}

func (c GetCompositeScheduleResponse) GetFeatureName() string {
	return GetCompositeScheduleFeatureName
}

func NewGetCompositeScheduleRequest(evseId int, duration int) *GetCompositeScheduleRequest {
	return &GetCompositeScheduleRequest{EvseId: evseId, Duration: duration}
}
