package station

import (
	"testing"

	"evstation/devicemodel"
	"evstation/ocpp/smartcharging"
	"evstation/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amps(id, stack int, purpose types.ChargingProfilePurposeType, limit float64) *types.ChargingProfile {
	return &types.ChargingProfile{
		Id:                     id,
		StackLevel:             stack,
		ChargingProfilePurpose: purpose,
		ChargingProfileKind:    types.ChargingProfileKindAbsolute,
		ChargingSchedule: []types.ChargingSchedule{{
			Id:                     id,
			StartSchedule:          types.NewDateTime(testNow),
			ChargingRateUnit:       types.ChargingRateUnitAmperes,
			ChargingSchedulePeriod: []types.ChargingSchedulePeriod{{StartPeriod: 0, Limit: limit}},
		}},
	}
}

func TestSetChargingProfile(t *testing.T) {
	st := newTestStation(t)

	response := st.OnSetChargingProfile(&smartcharging.SetChargingProfileRequest{
		EvseId:          1,
		ChargingProfile: amps(1, 0, types.ChargingProfilePurposeTxDefaultProfile, 16),
	})
	assert.Equal(t, types.ChargingProfileStatusAccepted, response.Status)

	response = st.OnSetChargingProfile(&smartcharging.SetChargingProfileRequest{EvseId: 1})
	assert.Equal(t, types.ChargingProfileStatusRejected, response.Status)
	assert.Equal(t, "MissingParam", response.StatusInfo.ReasonCode)

	response = st.OnSetChargingProfile(&smartcharging.SetChargingProfileRequest{
		EvseId:          1,
		ChargingProfile: amps(2, 0, types.ChargingProfilePurposeTxProfile, 16),
	})
	assert.Equal(t, types.ChargingProfileStatusRejected, response.Status)
	assert.Equal(t, "TxProfileMissingTransactionId", response.StatusInfo.AdditionalInfo)

	records := st.profiles.GetReportedProfiles(nil)
	require.Len(t, records, 1)
	assert.Equal(t, types.ChargingLimitSourceCSO, records[0].LimitSource)
	assert.Equal(t, types.ProfileSourceSetChargingProfile, records[0].Source)
}

func TestSetChargingProfileRejectsExternalConstraints(t *testing.T) {
	st := newTestStation(t)

	var response smartcharging.SetChargingProfileResponse
	st.call(t, "m1", smartcharging.SetChargingProfileFeatureName, `{"evseId":0,"chargingProfile":{
		"id":9,"stackLevel":0,"chargingProfilePurpose":"ChargingStationExternalConstraints","chargingProfileKind":"Absolute",
		"chargingSchedule":[{"id":1,"startSchedule":"2024-01-17T12:00:00Z","chargingRateUnit":"A","chargingSchedulePeriod":[{"startPeriod":0,"limit":10}]}]}}`,
		&response)

	assert.Equal(t, types.ChargingProfileStatusRejected, response.Status)
	require.NotNil(t, response.StatusInfo)
	assert.Equal(t, "InvalidValue", response.StatusInfo.ReasonCode)
	assert.Equal(t, externalConstraintsRejected, response.StatusInfo.AdditionalInfo)
	assert.Empty(t, st.profiles.GetReportedProfiles(nil))
}

func TestClearChargingProfile(t *testing.T) {
	st := newTestStation(t)
	st.OnSetChargingProfile(&smartcharging.SetChargingProfileRequest{EvseId: 1, ChargingProfile: amps(1, 0, types.ChargingProfilePurposeTxDefaultProfile, 16)})
	st.OnSetChargingProfile(&smartcharging.SetChargingProfileRequest{EvseId: 2, ChargingProfile: amps(2, 1, types.ChargingProfilePurposeTxDefaultProfile, 16)})

	evseId := 2
	response := st.OnClearChargingProfile(&smartcharging.ClearChargingProfileRequest{
		ChargingProfileCriteria: &smartcharging.ClearChargingProfileCriteria{EvseId: &evseId},
	})
	assert.Equal(t, types.ClearChargingProfileStatusAccepted, response.Status)

	profileId := 7
	response = st.OnClearChargingProfile(&smartcharging.ClearChargingProfileRequest{ChargingProfileId: &profileId})
	assert.Equal(t, types.ClearChargingProfileStatusUnknown, response.Status)

	records := st.profiles.GetReportedProfiles(nil)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Profile.Id)
}

func TestReportsGroupByEvseAndSource(t *testing.T) {
	records := []*types.ProfileRecord{
		{EvseId: 0, LimitSource: types.ChargingLimitSourceCSO, Profile: *amps(1, 0, types.ChargingProfilePurposeChargingStationMaxProfile, 32)},
		{EvseId: 1, LimitSource: types.ChargingLimitSourceCSO, Profile: *amps(2, 0, types.ChargingProfilePurposeTxDefaultProfile, 16)},
		{EvseId: 1, LimitSource: types.ChargingLimitSourceEMS, Profile: *amps(3, 0, types.ChargingProfilePurposeChargingStationExternalConstraints, 10)},
		{EvseId: 1, LimitSource: types.ChargingLimitSourceCSO, Profile: *amps(4, 1, types.ChargingProfilePurposeTxDefaultProfile, 12)},
	}

	reports := reportsFor(5, records)

	require.Len(t, reports, 3)
	assert.Equal(t, 0, reports[0].EvseId)
	assert.Equal(t, 1, reports[1].EvseId)
	assert.Equal(t, types.ChargingLimitSourceCSO, reports[1].ChargingLimitSource)
	assert.Len(t, reports[1].ChargingProfile, 2)
	assert.Equal(t, types.ChargingLimitSourceEMS, reports[2].ChargingLimitSource)
	assert.True(t, reports[0].Tbc)
	assert.True(t, reports[1].Tbc)
	assert.False(t, reports[2].Tbc)
	for _, report := range reports {
		assert.Equal(t, 5, report.RequestId)
	}
}

func TestGetChargingProfilesSendsReportsAfterReply(t *testing.T) {
	st := newTestStation(t)
	st.OnSetChargingProfile(&smartcharging.SetChargingProfileRequest{EvseId: 1, ChargingProfile: amps(1, 0, types.ChargingProfilePurposeTxDefaultProfile, 16)})
	st.OnSetChargingProfile(&smartcharging.SetChargingProfileRequest{EvseId: 0, ChargingProfile: amps(2, 0, types.ChargingProfilePurposeChargingStationMaxProfile, 32)})
	external := st.profiles.AddProfile(amps(3, 0, types.ChargingProfilePurposeChargingStationExternalConstraints, 10), 1, types.ChargingLimitSourceEMS, types.ProfileSourceInstallation)
	require.Equal(t, types.ChargingProfileStatusAccepted, external.Status)

	var response smartcharging.GetChargingProfilesResponse
	st.call(t, "m1", smartcharging.GetChargingProfilesFeatureName, `{"requestId":3,"evseId":1,"chargingProfile":{}}`, &response)
	assert.Equal(t, types.GetChargingProfileStatusAccepted, response.Status)

	var first smartcharging.ReportChargingProfilesRequest
	f := st.expectCall(t, smartcharging.ReportChargingProfilesFeatureName, &first)
	assert.Equal(t, 3, first.RequestId)
	assert.Equal(t, types.ChargingLimitSourceCSO, first.ChargingLimitSource)
	assert.True(t, first.Tbc)
	require.Len(t, first.ChargingProfile, 1)
	assert.Equal(t, 1, first.ChargingProfile[0].Id)
	st.answer(f, `{}`)

	var second smartcharging.ReportChargingProfilesRequest
	f = st.expectCall(t, smartcharging.ReportChargingProfilesFeatureName, &second)
	assert.Equal(t, types.ChargingLimitSourceEMS, second.ChargingLimitSource)
	assert.False(t, second.Tbc)
	st.answer(f, `{}`)
	st.noFrame(t)

	st.call(t, "m2", smartcharging.GetChargingProfilesFeatureName, `{"requestId":4,"chargingProfile":{"chargingProfilePurpose":"TxProfile"}}`, &response)
	assert.Equal(t, types.GetChargingProfileStatusNoProfiles, response.Status)
	st.noFrame(t)
}

func TestGetCompositeSchedule(t *testing.T) {
	st := newTestStation(t)
	st.OnSetChargingProfile(&smartcharging.SetChargingProfileRequest{EvseId: 0, ChargingProfile: amps(1, 0, types.ChargingProfilePurposeChargingStationMaxProfile, 32)})

	response := st.OnGetCompositeSchedule(&smartcharging.GetCompositeScheduleRequest{Duration: 600, EvseId: 1, ChargingRateUnit: types.ChargingRateUnitAmperes})
	require.Equal(t, types.GenericStatusAccepted, response.Status)
	require.NotNil(t, response.Schedule)
	assert.Equal(t, 1, response.Schedule.EvseId)
	assert.Equal(t, 600, response.Schedule.Duration)
	assert.True(t, testNow.Equal(response.Schedule.ScheduleStart.Time))
	require.Len(t, response.Schedule.ChargingSchedulePeriod, 1)
	assert.Equal(t, 32.0, response.Schedule.ChargingSchedulePeriod[0].Limit)

	response = st.OnGetCompositeSchedule(&smartcharging.GetCompositeScheduleRequest{Duration: 600, EvseId: 5})
	assert.Equal(t, types.GenericStatusRejected, response.Status)
	assert.Equal(t, "UnknownEVSE", response.StatusInfo.ReasonCode)
	assert.Nil(t, response.Schedule)

	require.NoError(t, st.device.Set(devicemodel.RateUnit, "A"))
	response = st.OnGetCompositeSchedule(&smartcharging.GetCompositeScheduleRequest{Duration: 600, EvseId: 1, ChargingRateUnit: types.ChargingRateUnitWatts})
	assert.Equal(t, types.GenericStatusRejected, response.Status)
	assert.Equal(t, "UnsupportedRateUnit", response.StatusInfo.ReasonCode)
}
