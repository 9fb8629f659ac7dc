package power

import (
	"evstation/types"
	"evstation/utility"
)

// Validator decides whether a profile may be installed. It never changes
// anything; the records it compares against are passed in.
type Validator struct {
	device DeviceModel
	evses  EvseState
}

func NewValidator(device DeviceModel, evses EvseState) *Validator {
	return &Validator{device: device, evses: evses}
}

func (v *Validator) Validate(profile *types.ChargingProfile, evseId int, source types.ProfileSource, stored []*types.ProfileRecord) ValidationResult {
	if profile == nil {
		return InvalidProfileType
	}
	if evseId != 0 && !v.evses.EvseExists(evseId) {
		return EvseDoesNotExist
	}
	for _, record := range stored {
		if record.Profile.Id == profile.Id &&
			record.Profile.ChargingProfilePurpose == types.ChargingProfilePurposeChargingStationExternalConstraints &&
			profile.ChargingProfilePurpose != types.ChargingProfilePurposeChargingStationExternalConstraints {
			return ExistingChargingStationExternalConstraints
		}
	}
	if source == types.ProfileSourceRequestStartTransaction && profile.ChargingProfilePurpose != types.ChargingProfilePurposeTxProfile {
		return RequestStartTransactionNonTxProfile
	}

	var result ValidationResult
	switch profile.ChargingProfilePurpose {
	case types.ChargingProfilePurposeChargingStationMaxProfile:
		result = v.validateMaxProfile(profile, evseId)
	case types.ChargingProfilePurposeTxDefaultProfile:
		result = v.validateTxDefaultProfile(profile, evseId, stored)
	case types.ChargingProfilePurposeTxProfile:
		result = v.validateTxProfile(profile, evseId, source, stored)
	case types.ChargingProfilePurposeChargingStationExternalConstraints:
		result = Valid
	default:
		result = InvalidProfileType
	}
	if result != Valid {
		return result
	}

	settings := readSettings(v.device)
	if result = v.validateSchedules(profile, evseId, settings); result != Valid {
		return result
	}

	switch profile.ChargingProfilePurpose {
	case types.ChargingProfilePurposeTxDefaultProfile, types.ChargingProfilePurposeChargingStationMaxProfile:
		if overlapsValidity(profile, evseId, stored) {
			return DuplicateProfileValidityPeriod
		}
	}
	return Valid
}

func (v *Validator) validateMaxProfile(profile *types.ChargingProfile, evseId int) ValidationResult {
	if evseId > 0 {
		return ChargingStationMaxProfileEvseIdGreaterThanZero
	}
	if profile.ChargingProfileKind == types.ChargingProfileKindRelative {
		return ChargingStationMaxProfileCannotBeRelative
	}
	return Valid
}

// validateTxDefaultProfile rejects a stack level already taken on the other
// scope class: a station wide profile against EVSE profiles and vice versa.
func (v *Validator) validateTxDefaultProfile(profile *types.ChargingProfile, evseId int, stored []*types.ProfileRecord) ValidationResult {
	for _, record := range stored {
		candidate := record.Profile
		if candidate.ChargingProfilePurpose != types.ChargingProfilePurposeTxDefaultProfile {
			continue
		}
		if (evseId == 0) == (record.EvseId == 0) {
			continue
		}
		if candidate.StackLevel == profile.StackLevel && candidate.Id != profile.Id {
			return DuplicateTxDefaultProfileFound
		}
	}
	return Valid
}

func (v *Validator) validateTxProfile(profile *types.ChargingProfile, evseId int, source types.ProfileSource, stored []*types.ProfileRecord) ValidationResult {
	fromRemoteStart := source == types.ProfileSourceRequestStartTransaction
	if profile.TransactionId == "" && !fromRemoteStart {
		return TxProfileMissingTransactionId
	}
	if evseId <= 0 {
		return TxProfileEvseIdNotGreaterThanZero
	}
	if fromRemoteStart && profile.TransactionId == "" {
		return Valid
	}
	if !fromRemoteStart {
		if !v.evses.HasActiveTransaction(evseId) {
			return TxProfileEvseHasNoActiveTransaction
		}
		if transactionId, _ := v.evses.TransactionId(evseId); transactionId != profile.TransactionId {
			return TxProfileTransactionNotOnEvse
		}
	}
	for _, record := range stored {
		candidate := record.Profile
		if candidate.ChargingProfilePurpose == types.ChargingProfilePurposeTxProfile &&
			candidate.TransactionId == profile.TransactionId &&
			candidate.StackLevel == profile.StackLevel &&
			candidate.Id != profile.Id {
			return TxProfileConflictingStackLevel
		}
	}
	return Valid
}

// phaseType of the station itself follows the supply: no supply phases means DC.
func (v *Validator) phaseType(evseId int, settings settings) types.CurrentPhaseType {
	if evseId == 0 {
		if settings.supplyPhases == 0 {
			return types.CurrentPhaseDC
		}
		return types.CurrentPhaseAC
	}
	return v.evses.CurrentPhaseType(evseId)
}

func (v *Validator) validateSchedules(profile *types.ChargingProfile, evseId int, settings settings) ValidationResult {
	if len(profile.ChargingSchedule) == 0 {
		return ChargingProfileEmptyChargingSchedules
	}
	phaseType := v.phaseType(evseId, settings)
	for _, schedule := range profile.ChargingSchedule {
		if !utility.Contains(settings.rateUnits, string(schedule.ChargingRateUnit)) {
			return ChargingScheduleChargingRateUnitUnsupported
		}
		periods := schedule.ChargingSchedulePeriod
		if len(periods) == 0 {
			return ChargingProfileNoChargingSchedulePeriods
		}
		if periods[0].StartPeriod != 0 {
			return ChargingProfileFirstStartScheduleIsNotZero
		}
		switch profile.ChargingProfileKind {
		case types.ChargingProfileKindAbsolute, types.ChargingProfileKindRecurring:
			if schedule.StartSchedule == nil {
				return ChargingProfileMissingRequiredStartSchedule
			}
		case types.ChargingProfileKindRelative:
			if schedule.StartSchedule != nil {
				return ChargingProfileExtraneousStartSchedule
			}
		}
		for i, period := range periods {
			if i > 0 && period.StartPeriod <= periods[i-1].StartPeriod {
				return ChargingSchedulePeriodsOutOfOrder
			}
			if result := validatePhases(period, phaseType, settings); result != Valid {
				return result
			}
		}
	}
	return Valid
}

func validatePhases(period types.ChargingSchedulePeriod, phaseType types.CurrentPhaseType, settings settings) ValidationResult {
	switch phaseType {
	case types.CurrentPhaseDC:
		if period.NumberPhases != nil || period.PhaseToUse != nil {
			return ChargingSchedulePeriodExtraneousPhaseValues
		}
	case types.CurrentPhaseAC:
		if period.PhaseToUse != nil && (period.NumberPhases == nil || *period.NumberPhases != 1) {
			return ChargingSchedulePeriodInvalidPhaseToUse
		}
		if period.PhaseToUse != nil && !settings.phaseSwitching {
			return ChargingSchedulePeriodPhaseToUseACPhaseSwitchingUnsupported
		}
		if period.NumberPhases != nil && *period.NumberPhases > settings.supplyPhases {
			return ChargingSchedulePeriodUnsupportedNumberPhases
		}
	}
	return Valid
}

func validityPeriod(profile *types.ChargingProfile) utility.Period {
	var from, to types.DateTime
	if profile.ValidFrom != nil {
		from = *profile.ValidFrom
	}
	if profile.ValidTo != nil {
		to = *profile.ValidTo
	}
	return utility.NewPeriod(from.Time, to.Time)
}

func overlapsValidity(profile *types.ChargingProfile, evseId int, stored []*types.ProfileRecord) bool {
	validity := validityPeriod(profile)
	for _, record := range stored {
		candidate := record.Profile
		if record.EvseId != evseId ||
			candidate.ChargingProfilePurpose != profile.ChargingProfilePurpose ||
			candidate.StackLevel != profile.StackLevel ||
			candidate.Id == profile.Id {
			continue
		}
		if validityPeriod(&candidate).Overlaps(validity) {
			return true
		}
	}
	return false
}
