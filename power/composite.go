package power

import (
	"fmt"
	"time"

	"evstation/internal"
	"evstation/types"
	"evstation/utility"
)

type CompositeRequest struct {
	Start  time.Time
	End    time.Time
	EvseId int
	// RateUnit of the result; empty means amperes
	RateUnit types.ChargingRateUnitType
	// MergeDCPhases drops numberPhases from DC results so that periods
	// differing only in phases are merged
	MergeDCPhases bool
	// IncludeStationWide lets profiles installed on evse 0 apply to an EVSE query
	IncludeStationWide bool
}

// ProfileProvider hands out the profiles that currently pass validation.
type ProfileProvider interface {
	GetValidProfiles(evseId int) []*types.ProfileRecord
}

type CompositeCalculator struct {
	profiles ProfileProvider
	device   DeviceModel
	evses    EvseState
	logger   internal.LogHandler
}

func NewCompositeCalculator(profiles ProfileProvider, device DeviceModel, evses EvseState, logger internal.LogHandler) *CompositeCalculator {
	if logger == nil {
		logger = internal.NopLogger{}
	}
	return &CompositeCalculator{
		profiles: profiles,
		device:   device,
		evses:    evses,
		logger:   logger,
	}
}

// entry is one schedule period of one profile placed on the absolute timeline.
type entry struct {
	period    utility.Period
	limit     float64
	unit      types.ChargingRateUnitType
	phases    *int
	purpose   types.ChargingProfilePurposeType
	stack     int
	seq       int64
	evseId    int
	profileId int
}

type limit struct {
	value  float64
	phases *int
}

type scope struct {
	evseId  int
	entries []entry
}

// calculation holds the state of one Calculate call.
type calculation struct {
	c         *CompositeCalculator
	settings  settings
	unit      types.ChargingRateUnitType
	phaseType types.CurrentPhaseType
	warned    map[[2]int]bool
}

func (c *CompositeCalculator) Calculate(req CompositeRequest) types.CompositeSchedule {
	unit := req.RateUnit
	if unit == "" {
		unit = types.ChargingRateUnitAmperes
	}
	schedule := types.CompositeSchedule{
		EvseId:                 req.EvseId,
		ScheduleStart:          types.DateTime{Time: req.Start},
		ChargingRateUnit:       unit,
		ChargingSchedulePeriod: []types.ChargingSchedulePeriod{},
	}
	if !req.End.After(req.Start) {
		return schedule
	}
	duration := int(req.End.Sub(req.Start).Seconds())
	schedule.Duration = duration

	settings := readSettings(c.device)
	calc := &calculation{
		c:         c,
		settings:  settings,
		unit:      unit,
		phaseType: phaseTypeOf(c.evses, req.EvseId, settings),
		warned:    make(map[[2]int]bool),
	}
	window := utility.NewPeriod(req.Start, req.End)

	var scopes []scope
	var evaluate func(t time.Time) limit
	if req.EvseId == 0 && len(c.evses.EvseIds()) > 0 {
		station := c.collect(0, true, window)
		var evses []scope
		for _, evseId := range c.evses.EvseIds() {
			evses = append(evses, c.collect(evseId, true, window))
		}
		scopes = append(evses, station)
		evaluate = func(t time.Time) limit {
			return calc.stationLimit(station, evses, t)
		}
	} else {
		target := c.collect(req.EvseId, req.IncludeStationWide || req.EvseId == 0, window)
		scopes = []scope{target}
		evaluate = func(t time.Time) limit {
			return calc.evseLimit(target, t)
		}
	}

	var periods []utility.Period
	for _, s := range scopes {
		for _, e := range s.entries {
			periods = append(periods, e.period)
		}
	}
	periods = append(periods, window)

	var result []types.ChargingSchedulePeriod
	for _, instant := range utility.Boundaries(periods...) {
		if !window.Contains(instant) {
			continue
		}
		offset := int(instant.Sub(req.Start).Seconds())
		if offset >= duration && len(result) > 0 {
			continue
		}
		value := evaluate(instant)
		period := types.ChargingSchedulePeriod{StartPeriod: offset, Limit: value.value, NumberPhases: value.phases}
		if calc.phaseType == types.CurrentPhaseDC && req.MergeDCPhases {
			period.NumberPhases = nil
		}
		if n := len(result); n > 0 && result[n-1].StartPeriod == offset {
			result[n-1] = period
			continue
		}
		result = append(result, period)
	}
	schedule.ChargingSchedulePeriod = coalesce(result)
	return schedule
}

func coalesce(periods []types.ChargingSchedulePeriod) []types.ChargingSchedulePeriod {
	merged := make([]types.ChargingSchedulePeriod, 0, len(periods))
	for _, period := range periods {
		if n := len(merged); n > 0 && merged[n-1].Limit == period.Limit && samePhases(merged[n-1].NumberPhases, period.NumberPhases) {
			continue
		}
		merged = append(merged, period)
	}
	return merged
}

func samePhases(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func phaseTypeOf(evses EvseState, evseId int, settings settings) types.CurrentPhaseType {
	if evseId == 0 {
		if settings.supplyPhases == 0 {
			return types.CurrentPhaseDC
		}
		return types.CurrentPhaseAC
	}
	return evses.CurrentPhaseType(evseId)
}

// collect expands every profile that applies to the evse into timeline entries.
// TxProfiles only count for the transaction running on the evse.
func (c *CompositeCalculator) collect(evseId int, includeStationWide bool, window utility.Period) scope {
	s := scope{evseId: evseId}
	var transactionId string
	var txStart time.Time
	hasTx := false
	if evseId > 0 && c.evses.HasActiveTransaction(evseId) {
		transactionId, _ = c.evses.TransactionId(evseId)
		txStart, _ = c.evses.TransactionStartTime(evseId)
		hasTx = true
	}
	for _, record := range c.profiles.GetValidProfiles(evseId) {
		if record.EvseId != evseId && !includeStationWide {
			continue
		}
		if record.Profile.ChargingProfilePurpose == types.ChargingProfilePurposeTxProfile &&
			(!hasTx || record.Profile.TransactionId != transactionId) {
			continue
		}
		s.entries = append(s.entries, expand(record, window, txStart, hasTx)...)
	}
	return s
}

// expand places the first schedule of the profile on the timeline and clips
// it to the window and the profile's validity.
func expand(record *types.ProfileRecord, window utility.Period, txStart time.Time, hasTx bool) []entry {
	profile := record.Profile
	if len(profile.ChargingSchedule) == 0 {
		return nil
	}
	schedule := profile.ChargingSchedule[0]
	var length time.Duration
	if schedule.Duration != nil && *schedule.Duration > 0 {
		length = time.Duration(*schedule.Duration) * time.Second
	}
	bounded := func(start time.Time) utility.Period {
		if length > 0 {
			return utility.NewPeriod(start, start.Add(length))
		}
		return utility.NewPeriod(start, time.Time{})
	}

	var runs []utility.Period
	switch profile.ChargingProfileKind {
	case types.ChargingProfileKindAbsolute:
		if schedule.StartSchedule == nil {
			return nil
		}
		runs = append(runs, bounded(schedule.StartSchedule.Time))
	case types.ChargingProfileKindRelative:
		if !hasTx {
			return nil
		}
		// anchored at the session start whatever the query window, the clip
		// below drops the part before the window
		runs = append(runs, bounded(txStart))
	case types.ChargingProfileKindRecurring:
		if schedule.StartSchedule == nil {
			return nil
		}
		step := utility.Day
		if profile.RecurrencyKind == types.RecurrencyKindWeekly {
			step = utility.Week
		}
		runs = utility.Occurrences(schedule.StartSchedule.Time, step, length, window)
	default:
		return nil
	}

	validity := validityPeriod(&profile)
	var entries []entry
	for _, run := range runs {
		bounds := run.Clip(validity).Clip(window)
		if bounds.IsEmpty() {
			continue
		}
		periods := schedule.ChargingSchedulePeriod
		for i, p := range periods {
			start := run.Start.Add(time.Duration(p.StartPeriod) * time.Second)
			end := run.End
			if i+1 < len(periods) {
				end = run.Start.Add(time.Duration(periods[i+1].StartPeriod) * time.Second)
			}
			segment := utility.NewPeriod(start, end).Clip(bounds)
			if segment.IsEmpty() {
				continue
			}
			entries = append(entries, entry{
				period:    segment,
				limit:     p.Limit,
				unit:      schedule.ChargingRateUnit,
				phases:    p.NumberPhases,
				purpose:   profile.ChargingProfilePurpose,
				stack:     profile.StackLevel,
				seq:       record.Seq,
				evseId:    record.EvseId,
				profileId: profile.Id,
			})
		}
	}
	return entries
}

// pick returns the entry in force at t with the highest stack level among
// those accepted by match.
func (calc *calculation) pick(entries []entry, t time.Time, match func(e *entry) bool) *entry {
	var best *entry
	for i := range entries {
		e := &entries[i]
		if !match(e) || !e.period.Contains(t) {
			continue
		}
		switch {
		case best == nil || e.stack > best.stack:
			best = e
		case e.stack == best.stack && e.profileId != best.profileId:
			calc.warnTie(best, e)
			if e.seq > best.seq {
				best = e
			}
		}
	}
	return best
}

func (calc *calculation) warnTie(a, b *entry) {
	key := [2]int{a.profileId, b.profileId}
	if a.profileId > b.profileId {
		key = [2]int{b.profileId, a.profileId}
	}
	if calc.warned[key] {
		return
	}
	calc.warned[key] = true
	calc.c.logger.Warn(fmt.Sprintf("profiles %d and %d share purpose %s and stack level %d, using the latest", a.profileId, b.profileId, a.purpose, a.stack))
}

func purposeIs(purpose types.ChargingProfilePurposeType) func(e *entry) bool {
	return func(e *entry) bool {
		return e.purpose == purpose
	}
}

// txEntry resolves the transaction limit: a TxProfile beats any TxDefaultProfile,
// and an EVSE TxDefaultProfile beats a station wide one.
func (calc *calculation) txEntry(s scope, t time.Time) *entry {
	if e := calc.pick(s.entries, t, purposeIs(types.ChargingProfilePurposeTxProfile)); e != nil {
		return e
	}
	if e := calc.pick(s.entries, t, func(e *entry) bool {
		return e.purpose == types.ChargingProfilePurposeTxDefaultProfile && e.evseId != 0
	}); e != nil {
		return e
	}
	return calc.pick(s.entries, t, func(e *entry) bool {
		return e.purpose == types.ChargingProfilePurposeTxDefaultProfile && e.evseId == 0
	})
}

func (calc *calculation) evseLimit(s scope, t time.Time) limit {
	var limits []limit
	if e := calc.txEntry(s, t); e != nil {
		limits = append(limits, calc.convert(e))
	}
	for _, purpose := range []types.ChargingProfilePurposeType{
		types.ChargingProfilePurposeChargingStationMaxProfile,
		types.ChargingProfilePurposeChargingStationExternalConstraints,
	} {
		if e := calc.pick(s.entries, t, purposeIs(purpose)); e != nil {
			limits = append(limits, calc.convert(e))
		}
	}
	return calc.lowest(limits)
}

// stationLimit sums what the EVSEs may draw and caps the sum with the station
// wide ceilings. An EVSE with nothing in force counts with the default limit.
func (calc *calculation) stationLimit(station scope, evses []scope, t time.Time) limit {
	var limits []limit
	sum := 0.0
	found := false
	for _, s := range evses {
		var evseLimits []limit
		if e := calc.txEntry(s, t); e != nil {
			evseLimits = append(evseLimits, calc.convert(e))
		}
		if e := calc.pick(s.entries, t, func(e *entry) bool {
			return e.purpose == types.ChargingProfilePurposeChargingStationExternalConstraints && e.evseId == s.evseId
		}); e != nil {
			evseLimits = append(evseLimits, calc.convert(e))
		}
		if len(evseLimits) > 0 {
			found = true
		}
		sum += calc.lowest(evseLimits).value
	}
	if found {
		limits = append(limits, limit{value: sum, phases: calc.defaultLimit().phases})
	}
	for _, purpose := range []types.ChargingProfilePurposeType{
		types.ChargingProfilePurposeChargingStationMaxProfile,
		types.ChargingProfilePurposeChargingStationExternalConstraints,
	} {
		if e := calc.pick(station.entries, t, purposeIs(purpose)); e != nil {
			limits = append(limits, calc.convert(e))
		}
	}
	return calc.lowest(limits)
}

func (calc *calculation) lowest(limits []limit) limit {
	if len(limits) == 0 {
		return calc.defaultLimit()
	}
	result := limits[0]
	for _, l := range limits[1:] {
		if l.value < result.value {
			result = l
		}
	}
	return result
}

func (calc *calculation) defaultLimit() limit {
	l := limit{value: calc.settings.defaultAmps}
	if calc.unit == types.ChargingRateUnitWatts {
		l.value = calc.settings.defaultWatts
	}
	if calc.phaseType != types.CurrentPhaseDC {
		l.phases = types.IntPtr(calc.settings.defaultNumberPhases)
	}
	return l
}

// convert expresses the entry's limit in the requested unit,
// P = I * U * phases with a single phase on DC.
func (calc *calculation) convert(e *entry) limit {
	l := limit{value: e.limit, phases: e.phases}
	if e.unit == calc.unit {
		return l
	}
	phases := float64(calc.settings.defaultNumberPhases)
	if e.phases != nil && *e.phases > 0 {
		phases = float64(*e.phases)
	}
	if calc.phaseType == types.CurrentPhaseDC {
		phases = 1
	}
	factor := calc.settings.voltage * phases
	if calc.unit == types.ChargingRateUnitWatts {
		l.value = e.limit * factor
	} else {
		l.value = e.limit / factor
	}
	return l
}
