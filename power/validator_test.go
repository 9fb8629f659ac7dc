package power

import (
	"testing"

	"evstation/devicemodel"
	"evstation/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	purposeTx       = types.ChargingProfilePurposeTxProfile
	purposeTxDef    = types.ChargingProfilePurposeTxDefaultProfile
	purposeMax      = types.ChargingProfilePurposeChargingStationMaxProfile
	purposeExternal = types.ChargingProfilePurposeChargingStationExternalConstraints
	sourceSet       = types.ProfileSourceSetChargingProfile
	sourceStart     = types.ProfileSourceRequestStartTransaction
)

func TestTxProfileMissingTransactionId(t *testing.T) {
	env := newTestEnv(t)
	profile := relative(1, 0, purposeTx, sp(0, 16))

	assert.Equal(t, TxProfileMissingTransactionId, env.profiles.Validate(profile, 1, sourceSet))
	assert.Equal(t, Valid, env.profiles.Validate(profile, 1, sourceStart))
}

func TestTxProfileConflictingStackLevel(t *testing.T) {
	env := newTestEnv(t)
	txId := env.startTransaction(t, 1, at(12, 0))

	first := relative(1, 1, purposeTx, sp(0, 16))
	first.TransactionId = txId
	env.add(t, first, 1)

	second := relative(2, 1, purposeTx, sp(0, 10))
	second.TransactionId = txId
	assert.Equal(t, TxProfileConflictingStackLevel, env.profiles.Validate(second, 1, sourceSet))

	second.StackLevel = 2
	assert.Equal(t, Valid, env.profiles.Validate(second, 1, sourceSet))

	first.ChargingSchedule[0].ChargingSchedulePeriod[0].Limit = 20
	assert.Equal(t, Valid, env.profiles.Validate(first, 1, sourceSet), "replacing a profile does not conflict with itself")
}

func TestTxProfileTransactionRules(t *testing.T) {
	env := newTestEnv(t)
	profile := relative(1, 0, purposeTx, sp(0, 16))
	profile.TransactionId = "tx-1"

	assert.Equal(t, TxProfileEvseIdNotGreaterThanZero, env.profiles.Validate(profile, 0, sourceSet))
	assert.Equal(t, TxProfileEvseHasNoActiveTransaction, env.profiles.Validate(profile, 1, sourceSet))

	env.startTransaction(t, 1, at(12, 0))
	assert.Equal(t, TxProfileTransactionNotOnEvse, env.profiles.Validate(profile, 1, sourceSet))
}

func TestEvseDoesNotExist(t *testing.T) {
	env := newTestEnv(t)
	profile := relative(1, 0, purposeTxDef, sp(0, 16))
	assert.Equal(t, EvseDoesNotExist, env.profiles.Validate(profile, 9, sourceSet))
}

func TestMaxProfileRules(t *testing.T) {
	env := newTestEnv(t)

	profile := absolute(1, 0, purposeMax, at(0, 0), 0, sp(0, 32))
	assert.Equal(t, Valid, env.profiles.Validate(profile, 0, sourceSet))
	assert.Equal(t, ChargingStationMaxProfileEvseIdGreaterThanZero, env.profiles.Validate(profile, 1, sourceSet))

	relativeMax := relative(2, 0, purposeMax, sp(0, 32))
	assert.Equal(t, ChargingStationMaxProfileCannotBeRelative, env.profiles.Validate(relativeMax, 0, sourceSet))
}

func TestRequestStartTransactionOnlyTakesTxProfiles(t *testing.T) {
	env := newTestEnv(t)
	profile := relative(1, 0, purposeTxDef, sp(0, 16))
	assert.Equal(t, RequestStartTransactionNonTxProfile, env.profiles.Validate(profile, 1, sourceStart))
}

func TestInvalidProfileType(t *testing.T) {
	env := newTestEnv(t)
	profile := relative(1, 0, "", sp(0, 16))
	assert.Equal(t, InvalidProfileType, env.profiles.Validate(profile, 1, sourceSet))
	assert.Equal(t, InvalidProfileType, env.profiles.Validate(nil, 1, sourceSet))
}

func TestExternalConstraintsCannotBeReplaced(t *testing.T) {
	env := newTestEnv(t)
	external := absolute(5, 0, purposeExternal, at(0, 0), 0, sp(0, 40))
	response := env.profiles.AddProfile(external, 0, types.ChargingLimitSourceEMS, types.ProfileSourceInstallation)
	require.Equal(t, types.ChargingProfileStatusAccepted, response.Status)

	replacement := absolute(5, 0, purposeMax, at(0, 0), 0, sp(0, 40))
	assert.Equal(t, ExistingChargingStationExternalConstraints, env.profiles.Validate(replacement, 0, sourceSet))
}

func TestDuplicateTxDefaultAcrossScopes(t *testing.T) {
	env := newTestEnv(t)
	env.add(t, relative(1, 1, purposeTxDef, sp(0, 16)), 0)

	assert.Equal(t, DuplicateTxDefaultProfileFound, env.profiles.Validate(relative(2, 1, purposeTxDef, sp(0, 10)), 1, sourceSet))
	assert.Equal(t, Valid, env.profiles.Validate(relative(2, 2, purposeTxDef, sp(0, 10)), 1, sourceSet))

	response := env.profiles.AddProfile(relative(3, 1, purposeTxDef, sp(0, 10)), 2, types.ChargingLimitSourceCSO, sourceSet)
	assert.Equal(t, types.ChargingProfileStatusRejected, response.Status)
	assert.Equal(t, "DuplicateProfile", response.StatusInfo.ReasonCode)
	assert.Equal(t, "DuplicateTxDefaultProfileFound", response.StatusInfo.AdditionalInfo)
}

func TestDuplicateValidityPeriod(t *testing.T) {
	env := newTestEnv(t)
	first := relative(1, 0, purposeTxDef, sp(0, 16))
	first.ValidFrom = types.NewDateTime(at(10, 0))
	first.ValidTo = types.NewDateTime(at(12, 0))
	env.add(t, first, 1)

	overlapping := relative(2, 0, purposeTxDef, sp(0, 16))
	overlapping.ValidFrom = types.NewDateTime(at(11, 0))
	overlapping.ValidTo = types.NewDateTime(at(13, 0))
	assert.Equal(t, DuplicateProfileValidityPeriod, env.profiles.Validate(overlapping, 1, sourceSet))

	touching := relative(3, 0, purposeTxDef, sp(0, 16))
	touching.ValidFrom = types.NewDateTime(at(12, 0))
	assert.Equal(t, Valid, env.profiles.Validate(touching, 1, sourceSet))

	unbounded := relative(4, 0, purposeTxDef, sp(0, 16))
	assert.Equal(t, DuplicateProfileValidityPeriod, env.profiles.Validate(unbounded, 1, sourceSet))
	assert.Equal(t, Valid, env.profiles.Validate(unbounded, 2, sourceSet))
}

func TestScheduleRules(t *testing.T) {
	withPeriods := func(periods ...types.ChargingSchedulePeriod) *types.ChargingProfile {
		return relative(1, 0, purposeTxDef, periods...)
	}
	phases := func(numberPhases, phaseToUse *int) types.ChargingSchedulePeriod {
		return types.ChargingSchedulePeriod{StartPeriod: 0, Limit: 16, NumberPhases: numberPhases, PhaseToUse: phaseToUse}
	}

	tests := []struct {
		name    string
		profile func() *types.ChargingProfile
		evseId  int
		want    ValidationResult
	}{
		{"empty schedules", func() *types.ChargingProfile {
			p := withPeriods(sp(0, 16))
			p.ChargingSchedule = nil
			return p
		}, 1, ChargingProfileEmptyChargingSchedules},
		{"no periods", func() *types.ChargingProfile { return withPeriods() }, 1, ChargingProfileNoChargingSchedulePeriods},
		{"first period not zero", func() *types.ChargingProfile { return withPeriods(sp(60, 16)) }, 1, ChargingProfileFirstStartScheduleIsNotZero},
		{"out of order", func() *types.ChargingProfile { return withPeriods(sp(0, 16), sp(600, 10), sp(600, 8)) }, 1, ChargingSchedulePeriodsOutOfOrder},
		{"absolute without start", func() *types.ChargingProfile {
			return profileOf(1, 0, purposeTxDef, types.ChargingProfileKindAbsolute, sp(0, 16))
		}, 1, ChargingProfileMissingRequiredStartSchedule},
		{"recurring without start", func() *types.ChargingProfile {
			return profileOf(1, 0, purposeTxDef, types.ChargingProfileKindRecurring, sp(0, 16))
		}, 1, ChargingProfileMissingRequiredStartSchedule},
		{"relative with start", func() *types.ChargingProfile {
			p := withPeriods(sp(0, 16))
			p.ChargingSchedule[0].StartSchedule = types.NewDateTime(at(12, 0))
			return p
		}, 1, ChargingProfileExtraneousStartSchedule},
		{"phases on dc", func() *types.ChargingProfile { return withPeriods(phases(types.IntPtr(1), nil)) }, 3, ChargingSchedulePeriodExtraneousPhaseValues},
		{"phase to use with three phases", func() *types.ChargingProfile {
			return withPeriods(phases(types.IntPtr(3), types.IntPtr(1)))
		}, 1, ChargingSchedulePeriodInvalidPhaseToUse},
		{"phase to use without switching", func() *types.ChargingProfile {
			return withPeriods(phases(types.IntPtr(1), types.IntPtr(2)))
		}, 1, ChargingSchedulePeriodPhaseToUseACPhaseSwitchingUnsupported},
		{"more phases than supply", func() *types.ChargingProfile { return withPeriods(phases(types.IntPtr(4), nil)) }, 1, ChargingSchedulePeriodUnsupportedNumberPhases},
		{"single phase", func() *types.ChargingProfile { return withPeriods(phases(types.IntPtr(1), nil)) }, 1, Valid},
		{"dc without phases", func() *types.ChargingProfile { return withPeriods(sp(0, 100)) }, 3, Valid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			assert.Equal(t, tt.want, env.profiles.Validate(tt.profile(), tt.evseId, sourceSet))
		})
	}
}

func TestRateUnitFromDeviceModel(t *testing.T) {
	env := newTestEnv(t)
	profile := relative(1, 0, purposeTxDef, sp(0, 11000))
	profile.ChargingSchedule[0].ChargingRateUnit = types.ChargingRateUnitWatts
	assert.Equal(t, Valid, env.profiles.Validate(profile, 1, sourceSet))

	require.NoError(t, env.store.Set(devicemodel.RateUnit, "A"))
	assert.Equal(t, ChargingScheduleChargingRateUnitUnsupported, env.profiles.Validate(profile, 1, sourceSet))
}

func TestPhaseSwitchingEnabled(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Set(devicemodel.ACPhaseSwitchingSupported, "true"))
	profile := relative(1, 0, purposeTxDef, types.ChargingSchedulePeriod{Limit: 16, NumberPhases: types.IntPtr(1), PhaseToUse: types.IntPtr(2)})
	assert.Equal(t, Valid, env.profiles.Validate(profile, 1, sourceSet))
}

func TestValidateIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.add(t, relative(1, 1, purposeTxDef, sp(0, 16)), 1)

	candidates := []*types.ChargingProfile{
		relative(2, 1, purposeTxDef, sp(0, 10)),
		relative(3, 1, purposeTx, sp(0, 10)),
		absolute(4, 0, purposeMax, at(0, 0), 0, sp(0, 32)),
	}
	for _, profile := range candidates {
		first := env.profiles.Validate(profile, 1, sourceSet)
		second := env.profiles.Validate(profile, 1, sourceSet)
		assert.Equal(t, first, second)
	}
	assert.Len(t, env.profiles.GetReportedProfiles(nil), 1)
}

func TestReasonCodes(t *testing.T) {
	assert.Equal(t, "TxNotFound", TxProfileEvseHasNoActiveTransaction.ReasonCode())
	assert.Equal(t, "UnknownEVSE", EvseDoesNotExist.ReasonCode())
	assert.Equal(t, "UnsupportedRateUnit", ChargingScheduleChargingRateUnitUnsupported.ReasonCode())
	assert.Equal(t, "InvalidSchedule", ChargingSchedulePeriodsOutOfOrder.ReasonCode())
	assert.Equal(t, "MissingParam", TxProfileMissingTransactionId.ReasonCode())
	assert.Equal(t, "InvalidValue", ExistingChargingStationExternalConstraints.ReasonCode())
	assert.Equal(t, "ChargingSchedulePeriodUnsupportedNumberPhases", ChargingSchedulePeriodUnsupportedNumberPhases.String())
	assert.Equal(t, "ValidationResult(99)", ValidationResult(99).String())
}
