package smartcharging

import "evstation/types"

const GetChargingProfilesFeatureName = "GetChargingProfiles"

type ChargingProfileCriterion struct {
	ChargingProfilePurpose types.ChargingProfilePurposeType `json:"chargingProfilePurpose,omitempty"`
	StackLevel             *int                             `json:"stackLevel,omitempty"`
	ChargingProfileId      []int                            `json:"chargingProfileId,omitempty"`
	ChargingLimitSource    []types.ChargingLimitSourceType  `json:"chargingLimitSource,omitempty"`
}

type GetChargingProfilesRequest struct {
	RequestId       int                      `json:"requestId"`
	EvseId          *int                     `json:"evseId,omitempty"`
	ChargingProfile ChargingProfileCriterion `json:"chargingProfile"`
}

type GetChargingProfilesResponse struct {
	Status     types.GetChargingProfileStatus `json:"status"`
	StatusInfo *types.StatusInfo              `json:"statusInfo,omitempty"`
}

func (r GetChargingProfilesRequest) GetFeatureName() string {
	return GetChargingProfilesFeatureName
}

func (c GetChargingProfilesResponse) GetFeatureName() string {
	return GetChargingProfilesFeatureName
}
