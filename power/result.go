package power

import "fmt"

// ValidationResult is the outcome of checking a charging profile against the
// store, the device model and the EVSE state.
type ValidationResult int

const (
	Valid ValidationResult = iota
	EvseDoesNotExist
	ExistingChargingStationExternalConstraints
	InvalidProfileType
	RequestStartTransactionNonTxProfile
	TxProfileMissingTransactionId
	TxProfileEvseIdNotGreaterThanZero
	TxProfileTransactionNotOnEvse
	TxProfileEvseHasNoActiveTransaction
	TxProfileConflictingStackLevel
	ChargingStationMaxProfileCannotBeRelative
	ChargingStationMaxProfileEvseIdGreaterThanZero
	DuplicateTxDefaultProfileFound
	DuplicateProfileValidityPeriod
	ChargingProfileEmptyChargingSchedules
	ChargingProfileNoChargingSchedulePeriods
	ChargingProfileFirstStartScheduleIsNotZero
	ChargingProfileMissingRequiredStartSchedule
	ChargingProfileExtraneousStartSchedule
	ChargingSchedulePeriodsOutOfOrder
	ChargingScheduleChargingRateUnitUnsupported
	ChargingSchedulePeriodInvalidPhaseToUse
	ChargingSchedulePeriodPhaseToUseACPhaseSwitchingUnsupported
	ChargingSchedulePeriodExtraneousPhaseValues
	ChargingSchedulePeriodUnsupportedNumberPhases
)

var resultNames = [...]string{
	"Valid",
	"EvseDoesNotExist",
	"ExistingChargingStationExternalConstraints",
	"InvalidProfileType",
	"RequestStartTransactionNonTxProfile",
	"TxProfileMissingTransactionId",
	"TxProfileEvseIdNotGreaterThanZero",
	"TxProfileTransactionNotOnEvse",
	"TxProfileEvseHasNoActiveTransaction",
	"TxProfileConflictingStackLevel",
	"ChargingStationMaxProfileCannotBeRelative",
	"ChargingStationMaxProfileEvseIdGreaterThanZero",
	"DuplicateTxDefaultProfileFound",
	"DuplicateProfileValidityPeriod",
	"ChargingProfileEmptyChargingSchedules",
	"ChargingProfileNoChargingSchedulePeriods",
	"ChargingProfileFirstStartScheduleIsNotZero",
	"ChargingProfileMissingRequiredStartSchedule",
	"ChargingProfileExtraneousStartSchedule",
	"ChargingSchedulePeriodsOutOfOrder",
	"ChargingScheduleChargingRateUnitUnsupported",
	"ChargingSchedulePeriodInvalidPhaseToUse",
	"ChargingSchedulePeriodPhaseToUseACPhaseSwitchingUnsupported",
	"ChargingSchedulePeriodExtraneousPhaseValues",
	"ChargingSchedulePeriodUnsupportedNumberPhases",
}

func (r ValidationResult) String() string {
	if r < 0 || int(r) >= len(resultNames) {
		return fmt.Sprintf("ValidationResult(%d)", int(r))
	}
	return resultNames[r]
}

// ReasonCode is the OCPP reasonCode reported to the CSMS with a rejection;
// the result name goes into additionalInfo.
func (r ValidationResult) ReasonCode() string {
	switch r {
	case Valid:
		return "NoError"
	case TxProfileEvseHasNoActiveTransaction, TxProfileTransactionNotOnEvse:
		return "TxNotFound"
	case EvseDoesNotExist:
		return "UnknownEVSE"
	case ChargingScheduleChargingRateUnitUnsupported:
		return "UnsupportedRateUnit"
	case DuplicateTxDefaultProfileFound, DuplicateProfileValidityPeriod, TxProfileConflictingStackLevel:
		return "DuplicateProfile"
	case InvalidProfileType, RequestStartTransactionNonTxProfile, ChargingStationMaxProfileCannotBeRelative:
		return "InvalidProfile"
	case ChargingProfileEmptyChargingSchedules,
		ChargingProfileNoChargingSchedulePeriods,
		ChargingProfileFirstStartScheduleIsNotZero,
		ChargingProfileMissingRequiredStartSchedule,
		ChargingProfileExtraneousStartSchedule,
		ChargingSchedulePeriodsOutOfOrder,
		ChargingSchedulePeriodInvalidPhaseToUse,
		ChargingSchedulePeriodPhaseToUseACPhaseSwitchingUnsupported,
		ChargingSchedulePeriodExtraneousPhaseValues,
		ChargingSchedulePeriodUnsupportedNumberPhases:
		return "InvalidSchedule"
	case TxProfileMissingTransactionId:
		return "MissingParam"
	default:
		return "InvalidValue"
	}
}
