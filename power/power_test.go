package power

import (
	"testing"
	"time"

	"evstation/devicemodel"
	"evstation/evse"
	"evstation/types"

	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store      *devicemodel.Store
	evses      *evse.Manager
	profiles   *ProfileManager
	calculator *CompositeCalculator
}

func newTestEnv(t *testing.T, evses ...evse.Evse) *testEnv {
	if len(evses) == 0 {
		evses = []evse.Evse{
			{Id: 1, PhaseType: types.CurrentPhaseAC},
			{Id: 2, PhaseType: types.CurrentPhaseAC},
			{Id: 3, PhaseType: types.CurrentPhaseDC},
		}
	}
	store := devicemodel.NewStore(nil, nil)
	require.NoError(t, store.Load(map[devicemodel.VariableRef]string{
		devicemodel.RateUnit:                  "A,W",
		devicemodel.ACPhaseSwitchingSupported: "false",
		devicemodel.SupplyPhases:              "3",
		devicemodel.DefaultLimitAmps:          "48",
		devicemodel.DefaultLimitWatts:         "33120",
		devicemodel.DefaultNumberPhases:       "3",
		devicemodel.SupplyVoltage:             "230",
	}))
	manager := evse.NewManager(evses, nil)
	profiles, err := NewProfileManager(NewMemoryRepository(), store, manager, nil)
	require.NoError(t, err)
	return &testEnv{
		store:      store,
		evses:      manager,
		profiles:   profiles,
		calculator: NewCompositeCalculator(profiles, store, manager, nil),
	}
}

func (env *testEnv) startTransaction(t *testing.T, evseId int, start time.Time) string {
	tx, err := env.evses.StartTransaction(evseId, types.IdToken{IdToken: "tag", Type: types.IdTokenTypeCentral}, nil, start)
	require.NoError(t, err)
	return tx.Id
}

func (env *testEnv) add(t *testing.T, profile *types.ChargingProfile, evseId int) {
	response := env.profiles.AddProfile(profile, evseId, types.ChargingLimitSourceCSO, types.ProfileSourceSetChargingProfile)
	require.Equal(t, types.ChargingProfileStatusAccepted, response.Status, "%+v", response.StatusInfo)
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 1, 17, hour, minute, 0, 0, time.UTC)
}

func sp(start int, limit float64) types.ChargingSchedulePeriod {
	return types.ChargingSchedulePeriod{StartPeriod: start, Limit: limit}
}

func profileOf(id, stack int, purpose types.ChargingProfilePurposeType, kind types.ChargingProfileKindType, periods ...types.ChargingSchedulePeriod) *types.ChargingProfile {
	return &types.ChargingProfile{
		Id:                     id,
		StackLevel:             stack,
		ChargingProfilePurpose: purpose,
		ChargingProfileKind:    kind,
		ChargingSchedule: []types.ChargingSchedule{{
			Id:                     id,
			ChargingRateUnit:       types.ChargingRateUnitAmperes,
			ChargingSchedulePeriod: periods,
		}},
	}
}

// absolute builds an Absolute profile; a zero duration leaves it open ended.
func absolute(id, stack int, purpose types.ChargingProfilePurposeType, start time.Time, duration int, periods ...types.ChargingSchedulePeriod) *types.ChargingProfile {
	profile := profileOf(id, stack, purpose, types.ChargingProfileKindAbsolute, periods...)
	profile.ChargingSchedule[0].StartSchedule = types.NewDateTime(start)
	if duration > 0 {
		profile.ChargingSchedule[0].Duration = types.IntPtr(duration)
	}
	return profile
}

func relative(id, stack int, purpose types.ChargingProfilePurposeType, periods ...types.ChargingSchedulePeriod) *types.ChargingProfile {
	return profileOf(id, stack, purpose, types.ChargingProfileKindRelative, periods...)
}
