package station

import (
	"fmt"
	"time"

	"evstation/devicemodel"
	"evstation/ocpp/smartcharging"
	"evstation/power"
	"evstation/types"
	"evstation/utility"
)

const externalConstraintsRejected = "ChargingStationExternalConstraintsInSetChargingProfileRequest"

// OnSetChargingProfile installs a profile sent by the CSMS. External
// constraints come from the energy management side only.
func (cs *ChargingStation) OnSetChargingProfile(request *smartcharging.SetChargingProfileRequest) *smartcharging.SetChargingProfileResponse {
	profile := request.ChargingProfile
	if profile == nil {
		return &smartcharging.SetChargingProfileResponse{
			Status:     types.ChargingProfileStatusRejected,
			StatusInfo: types.NewStatusInfo("MissingParam", "chargingProfile"),
		}
	}
	if profile.ChargingProfilePurpose == types.ChargingProfilePurposeChargingStationExternalConstraints {
		cs.logger.FeatureEvent(featureName, cs.info.Id, fmt.Sprintf("profile %d rejected: external constraints", profile.Id))
		return &smartcharging.SetChargingProfileResponse{
			Status:     types.ChargingProfileStatusRejected,
			StatusInfo: types.NewStatusInfo("InvalidValue", externalConstraintsRejected),
		}
	}
	response := cs.profiles.AddProfile(profile, request.EvseId, types.ChargingLimitSourceCSO, types.ProfileSourceSetChargingProfile)
	return &smartcharging.SetChargingProfileResponse{
		Status:     response.Status,
		StatusInfo: response.StatusInfo,
	}
}

func (cs *ChargingStation) OnClearChargingProfile(request *smartcharging.ClearChargingProfileRequest) *smartcharging.ClearChargingProfileResponse {
	criteria := power.ClearCriteria{ProfileId: request.ChargingProfileId}
	if c := request.ChargingProfileCriteria; c != nil {
		criteria.EvseId = c.EvseId
		criteria.Purpose = c.ChargingProfilePurpose
		criteria.StackLevel = c.StackLevel
	}
	return &smartcharging.ClearChargingProfileResponse{Status: cs.profiles.ClearProfiles(criteria)}
}

// OnGetChargingProfiles answers right away; the profiles follow in one
// ReportChargingProfiles per evse and limit source.
func (cs *ChargingStation) OnGetChargingProfiles(request *smartcharging.GetChargingProfilesRequest) (*smartcharging.GetChargingProfilesResponse, func()) {
	criterion := request.ChargingProfile
	records := cs.profiles.GetReportedProfiles(&types.ProfileCriteria{
		EvseId:       request.EvseId,
		ProfileIds:   criterion.ChargingProfileId,
		Purpose:      criterion.ChargingProfilePurpose,
		StackLevel:   criterion.StackLevel,
		LimitSources: criterion.ChargingLimitSource,
	})
	if len(records) == 0 {
		return &smartcharging.GetChargingProfilesResponse{Status: types.GetChargingProfileStatusNoProfiles}, nil
	}
	reports := reportsFor(request.RequestId, records)
	followUp := func() {
		for _, report := range reports {
			cs.dispatch(report)
		}
	}
	return &smartcharging.GetChargingProfilesResponse{Status: types.GetChargingProfileStatusAccepted}, followUp
}

// reportsFor groups the records by evse and limit source, keeping the order in
// which each group first appears. All reports but the last carry tbc.
func reportsFor(requestId int, records []*types.ProfileRecord) []*smartcharging.ReportChargingProfilesRequest {
	type key struct {
		evseId int
		source types.ChargingLimitSourceType
	}
	var reports []*smartcharging.ReportChargingProfilesRequest
	index := make(map[key]int)
	for _, record := range records {
		k := key{evseId: record.EvseId, source: record.LimitSource}
		i, ok := index[k]
		if !ok {
			i = len(reports)
			index[k] = i
			reports = append(reports, &smartcharging.ReportChargingProfilesRequest{
				RequestId:           requestId,
				ChargingLimitSource: record.LimitSource,
				EvseId:              record.EvseId,
			})
		}
		reports[i].ChargingProfile = append(reports[i].ChargingProfile, *record.Profile.Copy())
	}
	for i := range reports {
		reports[i].Tbc = i < len(reports)-1
	}
	return reports
}

func (cs *ChargingStation) OnGetCompositeSchedule(request *smartcharging.GetCompositeScheduleRequest) *smartcharging.GetCompositeScheduleResponse {
	unit := request.ChargingRateUnit
	if unit != "" && !utility.Contains(cs.device.GetList(devicemodel.RateUnit), string(unit)) {
		return &smartcharging.GetCompositeScheduleResponse{
			Status:     types.GenericStatusRejected,
			StatusInfo: types.NewStatusInfo("UnsupportedRateUnit", string(unit)),
		}
	}
	if request.EvseId != 0 && !cs.evses.EvseExists(request.EvseId) {
		return &smartcharging.GetCompositeScheduleResponse{
			Status:     types.GenericStatusRejected,
			StatusInfo: types.NewStatusInfo("UnknownEVSE", fmt.Sprint(request.EvseId)),
		}
	}
	start := cs.now().Truncate(time.Second)
	schedule := cs.calculator.Calculate(power.CompositeRequest{
		Start:              start,
		End:                start.Add(time.Duration(request.Duration) * time.Second),
		EvseId:             request.EvseId,
		RateUnit:           unit,
		MergeDCPhases:      true,
		IncludeStationWide: true,
	})
	return &smartcharging.GetCompositeScheduleResponse{
		Status:   types.GenericStatusAccepted,
		Schedule: &schedule,
	}
}
