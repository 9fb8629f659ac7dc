package smartcharging

import "evstation/types"

const ReportChargingProfilesFeatureName = "ReportChargingProfiles"

type ReportChargingProfilesRequest struct {
	RequestId           int                           `json:"requestId"`
	ChargingLimitSource types.ChargingLimitSourceType `json:"chargingLimitSource"`
	Tbc                 bool                          `json:"tbc,omitempty"`
	EvseId              int                           `json:"evseId"`
	ChargingProfile     []types.ChargingProfile       `json:"chargingProfile"`
}

type ReportChargingProfilesResponse struct {
}

func (r ReportChargingProfilesRequest) GetFeatureName() string {
	return ReportChargingProfilesFeatureName
}

func (c ReportChargingProfilesResponse) GetFeatureName() string {
	return ReportChargingProfilesFeatureName
}
