package smartcharging

import "evstation/types"

const ClearChargingProfileFeatureName = "ClearChargingProfile"

type ClearChargingProfileCriteria struct {
	EvseId                 *int                             `json:"evseId,omitempty"`
	ChargingProfilePurpose types.ChargingProfilePurposeType `json:"chargingProfilePurpose,omitempty"`
	StackLevel             *int                             `json:"stackLevel,omitempty"`
}

type ClearChargingProfileRequest struct {
	ChargingProfileId       *int                          `json:"chargingProfileId,omitempty"`
	ChargingProfileCriteria *ClearChargingProfileCriteria `json:"chargingProfileCriteria,omitempty"`
}

type ClearChargingProfileResponse struct {
	Status     types.ClearChargingProfileStatus `json:"status"`
	StatusInfo *types.StatusInfo                `json:"statusInfo,omitempty"`
}

func (r ClearChargingProfileRequest) GetFeatureName() string {
	return ClearChargingProfileFeatureName
}

func (c ClearChargingProfileResponse) GetFeatureName() string {
	return ClearChargingProfileFeatureName
}
