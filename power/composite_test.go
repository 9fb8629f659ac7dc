package power

import (
	"math/rand"
	"testing"
	"time"

	"evstation/evse"
	"evstation/internal"
	"evstation/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type offsetLimit struct {
	offset int
	limit  float64
}

func flatten(schedule types.CompositeSchedule) []offsetLimit {
	var result []offsetLimit
	for _, p := range schedule.ChargingSchedulePeriod {
		result = append(result, offsetLimit{offset: p.StartPeriod, limit: p.Limit})
	}
	return result
}

func TestCompositeScheduleFillsGapsWithDefault(t *testing.T) {
	env := newTestEnv(t)
	env.add(t, absolute(1, 0, purposeTxDef, at(12, 2), 3600, sp(0, 32), sp(1800, 31), sp(2700, 30)), 1)

	schedule := env.calculator.Calculate(CompositeRequest{Start: at(12, 0), End: at(20, 50), EvseId: 1})

	assert.Equal(t, 1, schedule.EvseId)
	assert.Equal(t, 31800, schedule.Duration)
	assert.Equal(t, types.ChargingRateUnitAmperes, schedule.ChargingRateUnit)
	assert.True(t, schedule.ScheduleStart.Equal(at(12, 0)))
	assert.Equal(t, []offsetLimit{{0, 48}, {120, 32}, {1920, 31}, {2820, 30}, {3720, 48}}, flatten(schedule))
	for _, p := range schedule.ChargingSchedulePeriod {
		require.NotNil(t, p.NumberPhases)
		assert.Equal(t, 3, *p.NumberPhases)
	}
}

func TestCompositeScheduleEmptyWindow(t *testing.T) {
	env := newTestEnv(t)
	schedule := env.calculator.Calculate(CompositeRequest{Start: at(12, 0), End: at(12, 0), EvseId: 1})
	assert.Equal(t, 0, schedule.Duration)
	assert.Empty(t, schedule.ChargingSchedulePeriod)
}

func TestCompositeScheduleRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	env.add(t, absolute(1, 0, purposeTxDef, at(12, 0), 3600, sp(0, 10), sp(900, 20), sp(1800, 15)), 1)

	schedule := env.calculator.Calculate(CompositeRequest{Start: at(12, 0), End: at(13, 0), EvseId: 1})
	assert.Equal(t, []offsetLimit{{0, 10}, {900, 20}, {1800, 15}}, flatten(schedule))
}

func TestStationMaxProfileIsCeiling(t *testing.T) {
	env := newTestEnv(t)
	env.add(t, absolute(1, 0, purposeMax, at(0, 0), 0, sp(0, 10)), 0)
	env.add(t, absolute(2, 0, purposeTxDef, at(0, 0), 0, sp(0, 32), sp(3600, 6)), 1)

	schedule := env.calculator.Calculate(CompositeRequest{Start: at(0, 0), End: at(4, 0), EvseId: 1, IncludeStationWide: true})
	assert.Equal(t, []offsetLimit{{0, 10}, {3600, 6}}, flatten(schedule))
	for _, p := range schedule.ChargingSchedulePeriod {
		assert.LessOrEqual(t, p.Limit, 10.0)
	}

	evseOnly := env.calculator.Calculate(CompositeRequest{Start: at(0, 0), End: at(4, 0), EvseId: 1})
	assert.Equal(t, []offsetLimit{{0, 32}, {3600, 6}}, flatten(evseOnly))
}

func TestHighestStackLevelWins(t *testing.T) {
	env := newTestEnv(t)
	env.add(t, absolute(1, 1, purposeTxDef, at(0, 0), 0, sp(0, 16)), 1)
	env.add(t, absolute(2, 4, purposeTxDef, at(12, 0), 1800, sp(0, 8)), 1)

	schedule := env.calculator.Calculate(CompositeRequest{Start: at(11, 0), End: at(14, 0), EvseId: 1})
	assert.Equal(t, []offsetLimit{{0, 16}, {3600, 8}, {5400, 16}}, flatten(schedule))
}

func TestTxProfileBeatsTxDefault(t *testing.T) {
	env := newTestEnv(t)
	txId := env.startTransaction(t, 1, at(12, 0))
	env.add(t, absolute(1, 5, purposeTxDef, at(0, 0), 0, sp(0, 20)), 1)
	tx := relative(2, 0, purposeTx, sp(0, 25))
	tx.TransactionId = txId
	env.add(t, tx, 1)

	schedule := env.calculator.Calculate(CompositeRequest{Start: at(12, 0), End: at(13, 0), EvseId: 1})
	assert.Equal(t, []offsetLimit{{0, 25}}, flatten(schedule))

	env.evses.StopTransaction(txId)
	schedule = env.calculator.Calculate(CompositeRequest{Start: at(12, 0), End: at(13, 0), EvseId: 1})
	assert.Equal(t, []offsetLimit{{0, 20}}, flatten(schedule))
}

func TestEvseTxDefaultBeatsStationTxDefault(t *testing.T) {
	env := newTestEnv(t)
	env.add(t, absolute(1, 3, purposeTxDef, at(0, 0), 0, sp(0, 16)), 0)
	env.add(t, absolute(2, 1, purposeTxDef, at(0, 0), 0, sp(0, 20)), 1)

	schedule := env.calculator.Calculate(CompositeRequest{Start: at(12, 0), End: at(13, 0), EvseId: 1, IncludeStationWide: true})
	assert.Equal(t, []offsetLimit{{0, 20}}, flatten(schedule))

	other := env.calculator.Calculate(CompositeRequest{Start: at(12, 0), End: at(13, 0), EvseId: 2, IncludeStationWide: true})
	assert.Equal(t, []offsetLimit{{0, 16}}, flatten(other))
}

func TestRelativeProfileAnchorsAtTransactionStart(t *testing.T) {
	env := newTestEnv(t)
	txId := env.startTransaction(t, 1, at(12, 10))
	tx := relative(1, 0, purposeTx, sp(0, 10), sp(600, 20))
	tx.TransactionId = txId
	env.add(t, tx, 1)

	schedule := env.calculator.Calculate(CompositeRequest{Start: at(12, 0), End: at(13, 0), EvseId: 1})
	assert.Equal(t, []offsetLimit{{0, 48}, {600, 10}, {1200, 20}}, flatten(schedule))
}

func TestRelativeProfileKeepsSessionAnchor(t *testing.T) {
	env := newTestEnv(t)
	txId := env.startTransaction(t, 1, at(12, 0))
	tx := relative(1, 0, purposeTx, sp(0, 32), sp(1800, 16))
	tx.TransactionId = txId
	env.add(t, tx, 1)

	schedule := env.calculator.Calculate(CompositeRequest{Start: at(13, 0), End: at(14, 0), EvseId: 1})
	assert.Equal(t, []offsetLimit{{0, 16}}, flatten(schedule))

	midway := env.calculator.Calculate(CompositeRequest{Start: at(12, 20), End: at(13, 0), EvseId: 1})
	assert.Equal(t, []offsetLimit{{0, 32}, {600, 16}}, flatten(midway))
}

func TestRelativeProfileWithoutTransaction(t *testing.T) {
	env := newTestEnv(t)
	env.add(t, relative(1, 0, purposeTxDef, sp(0, 10)), 2)

	schedule := env.calculator.Calculate(CompositeRequest{Start: at(12, 0), End: at(13, 0), EvseId: 2})
	assert.Equal(t, []offsetLimit{{0, 48}}, flatten(schedule))
}

func TestRecurringDailyProfile(t *testing.T) {
	env := newTestEnv(t)
	profile := profileOf(1, 0, purposeTxDef, types.ChargingProfileKindRecurring, sp(0, 10))
	profile.RecurrencyKind = types.RecurrencyKindDaily
	profile.ChargingSchedule[0].StartSchedule = types.NewDateTime(time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC))
	profile.ChargingSchedule[0].Duration = types.IntPtr(3600)
	env.add(t, profile, 1)

	schedule := env.calculator.Calculate(CompositeRequest{Start: at(7, 0), End: at(10, 0), EvseId: 1})
	assert.Equal(t, []offsetLimit{{0, 48}, {3600, 10}, {7200, 48}}, flatten(schedule))
}

func TestValidityClipsProfile(t *testing.T) {
	env := newTestEnv(t)
	profile := absolute(1, 0, purposeTxDef, at(0, 0), 0, sp(0, 10))
	profile.ValidFrom = types.NewDateTime(at(12, 30))
	profile.ValidTo = types.NewDateTime(at(12, 45))
	env.add(t, profile, 1)

	schedule := env.calculator.Calculate(CompositeRequest{Start: at(12, 0), End: at(13, 0), EvseId: 1})
	assert.Equal(t, []offsetLimit{{0, 48}, {1800, 10}, {2700, 48}}, flatten(schedule))
}

func TestUnitConversion(t *testing.T) {
	env := newTestEnv(t)
	watts := absolute(1, 0, purposeTxDef, at(0, 0), 0, sp(0, 11040))
	watts.ChargingSchedule[0].ChargingRateUnit = types.ChargingRateUnitWatts
	env.add(t, watts, 1)
	env.add(t, absolute(2, 0, purposeTxDef, at(0, 0), 0, sp(0, 16)), 2)

	amps := env.calculator.Calculate(CompositeRequest{Start: at(12, 0), End: at(13, 0), EvseId: 1, RateUnit: types.ChargingRateUnitAmperes})
	assert.Equal(t, []offsetLimit{{0, 16}}, flatten(amps))

	power := env.calculator.Calculate(CompositeRequest{Start: at(12, 0), End: at(13, 0), EvseId: 2, RateUnit: types.ChargingRateUnitWatts})
	assert.Equal(t, types.ChargingRateUnitWatts, power.ChargingRateUnit)
	assert.Equal(t, []offsetLimit{{0, 11040}}, flatten(power))
}

func TestDCConversionUsesSinglePhase(t *testing.T) {
	env := newTestEnv(t)
	watts := absolute(1, 0, purposeTxDef, at(0, 0), 0, sp(0, 23000))
	watts.ChargingSchedule[0].ChargingRateUnit = types.ChargingRateUnitWatts
	env.add(t, watts, 3)

	schedule := env.calculator.Calculate(CompositeRequest{Start: at(12, 0), End: at(13, 0), EvseId: 3, MergeDCPhases: true})
	assert.Equal(t, []offsetLimit{{0, 100}}, flatten(schedule))
	assert.Nil(t, schedule.ChargingSchedulePeriod[0].NumberPhases)
}

func TestStationScheduleSumsEvses(t *testing.T) {
	env := newTestEnv(t,
		evse.Evse{Id: 1, PhaseType: types.CurrentPhaseAC},
		evse.Evse{Id: 2, PhaseType: types.CurrentPhaseAC},
	)
	env.add(t, absolute(1, 0, purposeTxDef, at(0, 0), 0, sp(0, 10)), 1)
	env.add(t, absolute(2, 1, purposeTxDef, at(0, 0), 0, sp(0, 16)), 2)

	schedule := env.calculator.Calculate(CompositeRequest{Start: at(12, 0), End: at(13, 0), EvseId: 0})
	assert.Equal(t, []offsetLimit{{0, 26}}, flatten(schedule))

	env.add(t, absolute(3, 0, purposeMax, at(12, 30), 0, sp(0, 20)), 0)
	schedule = env.calculator.Calculate(CompositeRequest{Start: at(12, 0), End: at(13, 0), EvseId: 0})
	assert.Equal(t, []offsetLimit{{0, 26}, {1800, 20}}, flatten(schedule))
}

func TestEvseLimitIsLowestCeiling(t *testing.T) {
	env := newTestEnv(t)
	txId := env.startTransaction(t, 1, at(12, 0))
	tx := relative(1, 2, purposeTx, sp(0, 50))
	tx.TransactionId = txId
	env.add(t, tx, 1)
	env.add(t, absolute(2, 0, purposeMax, at(0, 0), 0, sp(0, 40)), 0)

	request := CompositeRequest{Start: at(12, 0), End: at(13, 0), EvseId: 1, IncludeStationWide: true}
	assert.Equal(t, []offsetLimit{{0, 40}}, flatten(env.calculator.Calculate(request)))

	external := absolute(3, 0, purposeExternal, at(0, 0), 0, sp(0, 30))
	require.Equal(t, types.ChargingProfileStatusAccepted, env.profiles.AddProfile(external, 0, types.ChargingLimitSourceEMS, types.ProfileSourceInstallation).Status)
	assert.Equal(t, []offsetLimit{{0, 30}}, flatten(env.calculator.Calculate(request)))

	// same stack level: the one installed last wins
	later := absolute(4, 0, purposeExternal, at(0, 0), 0, sp(0, 35))
	require.Equal(t, types.ChargingProfileStatusAccepted, env.profiles.AddProfile(later, 0, types.ChargingLimitSourceEMS, types.ProfileSourceInstallation).Status)
	assert.Equal(t, []offsetLimit{{0, 35}}, flatten(env.calculator.Calculate(request)))
}

func TestCompositeScheduleCoversWindow(t *testing.T) {
	r := rand.New(rand.NewSource(17))
	purposes := []types.ChargingProfilePurposeType{purposeTxDef, purposeMax}

	for round := 0; round < 50; round++ {
		env := newTestEnv(t)
		for id := 1; id <= 8; id++ {
			purpose := purposes[r.Intn(len(purposes))]
			evseId := 0
			if purpose == purposeTxDef {
				evseId = r.Intn(3)
			}
			start := at(0, 0).Add(time.Duration(r.Intn(24*60)) * time.Minute)
			var periods []types.ChargingSchedulePeriod
			offset := 0
			for n := 1 + r.Intn(4); n > 0; n-- {
				periods = append(periods, sp(offset, float64(6+r.Intn(40))))
				offset += 60 + r.Intn(3600)
			}
			profile := absolute(id, r.Intn(4), purpose, start, r.Intn(4)*1800, periods...)
			// rejected duplicates are fine, they just do not take part
			env.profiles.AddProfile(profile, evseId, types.ChargingLimitSourceCSO, sourceSet)
		}

		windowStart := at(0, 0).Add(time.Duration(r.Intn(36*3600)) * time.Second)
		windowEnd := windowStart.Add(time.Duration(1+r.Intn(24*3600)) * time.Second)
		duration := int(windowEnd.Sub(windowStart).Seconds())
		evseId := r.Intn(4)

		schedule := env.calculator.Calculate(CompositeRequest{Start: windowStart, End: windowEnd, EvseId: evseId, IncludeStationWide: true})
		require.Equal(t, duration, schedule.Duration)
		periods := schedule.ChargingSchedulePeriod
		require.NotEmpty(t, periods, "round %d", round)
		assert.Equal(t, 0, periods[0].StartPeriod, "round %d", round)
		for i := range periods {
			assert.Less(t, periods[i].StartPeriod, duration, "round %d", round)
			assert.Greater(t, periods[i].Limit, 0.0, "round %d", round)
			if i > 0 {
				assert.Greater(t, periods[i].StartPeriod, periods[i-1].StartPeriod, "round %d", round)
				assert.False(t, periods[i].Limit == periods[i-1].Limit && samePhases(periods[i].NumberPhases, periods[i-1].NumberPhases), "round %d: adjacent periods not merged", round)
			}
		}
	}
}

type warnRecorder struct {
	internal.NopLogger
	warnings []string
}

func (w *warnRecorder) Warn(text string) {
	w.warnings = append(w.warnings, text)
}

// Two profiles of one purpose on the same stack level should not occur: the
// validator refuses them before they reach the calculator.
func TestStackLevelCollisionShouldNotOccur(t *testing.T) {
	env := newTestEnv(t)
	recorder := &warnRecorder{}
	calculator := NewCompositeCalculator(env.profiles, env.store, env.evses, recorder)

	env.add(t, absolute(1, 2, purposeTxDef, at(0, 0), 0, sp(0, 16)), 0)
	env.add(t, absolute(2, 1, purposeMax, at(0, 0), 0, sp(0, 30)), 0)
	for _, evseId := range []int{0, 1} {
		response := env.profiles.AddProfile(absolute(3, 2, purposeTxDef, at(1, 0), 0, sp(0, 8)), evseId, types.ChargingLimitSourceCSO, sourceSet)
		assert.Equal(t, types.ChargingProfileStatusRejected, response.Status)
	}
	response := env.profiles.AddProfile(absolute(4, 1, purposeMax, at(1, 0), 0, sp(0, 20)), 0, types.ChargingLimitSourceCSO, sourceSet)
	assert.Equal(t, types.ChargingProfileStatusRejected, response.Status)

	schedule := calculator.Calculate(CompositeRequest{Start: at(0, 0), End: at(3, 0), EvseId: 1, IncludeStationWide: true})
	assert.Equal(t, []offsetLimit{{0, 16}}, flatten(schedule))
	assert.Empty(t, recorder.warnings)
}
