package smartcharging

import "evstation/ocpp"

func Features() []ocpp.Feature {
	return []ocpp.Feature{
		ocpp.NewFeature(&SetChargingProfileRequest{}, &SetChargingProfileResponse{}),
		ocpp.NewFeature(&ClearChargingProfileRequest{}, &ClearChargingProfileResponse{}),
		ocpp.NewFeature(&GetChargingProfilesRequest{}, &GetChargingProfilesResponse{}),
		ocpp.NewFeature(&ReportChargingProfilesRequest{}, &ReportChargingProfilesResponse{}),
		ocpp.NewFeature(&GetCompositeScheduleRequest{}, &GetCompositeScheduleResponse{}),
	}
}
