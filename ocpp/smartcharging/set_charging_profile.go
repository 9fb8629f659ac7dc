package smartcharging

import "evstation/types"

const SetChargingProfileFeatureName = "SetChargingProfile"

type SetChargingProfileRequest struct {
	EvseId          int                    `json:"evseId"`
	ChargingProfile *types.ChargingProfile `json:"chargingProfile"`
}

type SetChargingProfileResponse struct {
	Status     types.ChargingProfileStatus `json:"status"`
	StatusInfo *types.StatusInfo           `json:"statusInfo,omitempty"`
}

func NewSetChargingProfileRequest(evseId int, chargingProfile *types.ChargingProfile) *SetChargingProfileRequest {
	return &SetChargingProfileRequest{EvseId: evseId, ChargingProfile: chargingProfile}
}

func (r SetChargingProfileRequest) GetFeatureName() string {
	return SetChargingProfileFeatureName
}

func (c SetChargingProfileResponse) GetFeatureName() string {
	return SetChargingProfileFeatureName
}
