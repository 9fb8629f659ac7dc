package types

const SubProtocol201 = "ocpp2.0.1"

// Charging Profiles
type ChargingProfilePurposeType string
type ChargingProfileKindType string
type RecurrencyKindType string
type ChargingRateUnitType string
type ChargingLimitSourceType string
type CurrentPhaseType string

const (
	ChargingProfilePurposeChargingStationExternalConstraints ChargingProfilePurposeType = "ChargingStationExternalConstraints"
	ChargingProfilePurposeChargingStationMaxProfile          ChargingProfilePurposeType = "ChargingStationMaxProfile"
	ChargingProfilePurposeTxDefaultProfile                   ChargingProfilePurposeType = "TxDefaultProfile"
	ChargingProfilePurposeTxProfile                          ChargingProfilePurposeType = "TxProfile"
	ChargingProfileKindAbsolute                              ChargingProfileKindType    = "Absolute"
	ChargingProfileKindRecurring                             ChargingProfileKindType    = "Recurring"
	ChargingProfileKindRelative                              ChargingProfileKindType    = "Relative"
	RecurrencyKindDaily                                      RecurrencyKindType         = "Daily"
	RecurrencyKindWeekly                                     RecurrencyKindType         = "Weekly"
	ChargingRateUnitWatts                                    ChargingRateUnitType       = "W"
	ChargingRateUnitAmperes                                  ChargingRateUnitType       = "A"
	ChargingLimitSourceEMS                                   ChargingLimitSourceType    = "EMS"
	ChargingLimitSourceOther                                 ChargingLimitSourceType    = "Other"
	ChargingLimitSourceSO                                    ChargingLimitSourceType    = "SO"
	ChargingLimitSourceCSO                                   ChargingLimitSourceType    = "CSO"
	CurrentPhaseAC                                           CurrentPhaseType           = "AC"
	CurrentPhaseDC                                           CurrentPhaseType           = "DC"
	CurrentPhaseUnknown                                      CurrentPhaseType           = "Unknown"
)

func (p *ChargingProfilePurposeType) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, p,
		ChargingProfilePurposeChargingStationExternalConstraints,
		ChargingProfilePurposeChargingStationMaxProfile,
		ChargingProfilePurposeTxDefaultProfile,
		ChargingProfilePurposeTxProfile)
}

func (k *ChargingProfileKindType) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, k, ChargingProfileKindAbsolute, ChargingProfileKindRecurring, ChargingProfileKindRelative)
}

func (r *RecurrencyKindType) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, r, RecurrencyKindDaily, RecurrencyKindWeekly)
}

func (u *ChargingRateUnitType) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, u, ChargingRateUnitAmperes, ChargingRateUnitWatts)
}

func (s *ChargingLimitSourceType) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, s, ChargingLimitSourceEMS, ChargingLimitSourceOther, ChargingLimitSourceSO, ChargingLimitSourceCSO)
}

type ChargingSchedulePeriod struct {
	StartPeriod  int     `json:"startPeriod" bson:"start_period"`
	Limit        float64 `json:"limit" bson:"limit"`
	NumberPhases *int    `json:"numberPhases,omitempty" bson:"number_phases,omitempty"`
	PhaseToUse   *int    `json:"phaseToUse,omitempty" bson:"phase_to_use,omitempty"`
}

type ChargingSchedule struct {
	Id                     int                      `json:"id" bson:"id"`
	StartSchedule          *DateTime                `json:"startSchedule,omitempty" bson:"start_schedule,omitempty"`
	Duration               *int                     `json:"duration,omitempty" bson:"duration,omitempty"`
	ChargingRateUnit       ChargingRateUnitType     `json:"chargingRateUnit" bson:"charging_rate_unit"`
	ChargingSchedulePeriod []ChargingSchedulePeriod `json:"chargingSchedulePeriod" bson:"charging_schedule_period"`
	MinChargingRate        *float64                 `json:"minChargingRate,omitempty" bson:"min_charging_rate,omitempty"`
}

type ChargingProfile struct {
	Id                     int                        `json:"id" bson:"id"`
	StackLevel             int                        `json:"stackLevel" bson:"stack_level"`
	ChargingProfilePurpose ChargingProfilePurposeType `json:"chargingProfilePurpose" bson:"charging_profile_purpose"`
	ChargingProfileKind    ChargingProfileKindType    `json:"chargingProfileKind" bson:"charging_profile_kind"`
	RecurrencyKind         RecurrencyKindType         `json:"recurrencyKind,omitempty" bson:"recurrency_kind,omitempty"`
	ValidFrom              *DateTime                  `json:"validFrom,omitempty" bson:"valid_from,omitempty"`
	ValidTo                *DateTime                  `json:"validTo,omitempty" bson:"valid_to,omitempty"`
	TransactionId          string                     `json:"transactionId,omitempty" bson:"transaction_id,omitempty"`
	ChargingSchedule       []ChargingSchedule         `json:"chargingSchedule" bson:"charging_schedule"`
}

// Copy returns a deep copy, the store never shares schedules with callers
func (cp *ChargingProfile) Copy() *ChargingProfile {
	if cp == nil {
		return nil
	}
	profile := *cp
	profile.ValidFrom = copyDateTime(cp.ValidFrom)
	profile.ValidTo = copyDateTime(cp.ValidTo)
	profile.ChargingSchedule = make([]ChargingSchedule, len(cp.ChargingSchedule))
	for i, schedule := range cp.ChargingSchedule {
		s := schedule
		s.StartSchedule = copyDateTime(schedule.StartSchedule)
		s.Duration = copyInt(schedule.Duration)
		if schedule.MinChargingRate != nil {
			rate := *schedule.MinChargingRate
			s.MinChargingRate = &rate
		}
		s.ChargingSchedulePeriod = make([]ChargingSchedulePeriod, len(schedule.ChargingSchedulePeriod))
		for j, period := range schedule.ChargingSchedulePeriod {
			p := period
			p.NumberPhases = copyInt(period.NumberPhases)
			p.PhaseToUse = copyInt(period.PhaseToUse)
			s.ChargingSchedulePeriod[j] = p
		}
		profile.ChargingSchedule[i] = s
	}
	return &profile
}

type CompositeSchedule struct {
	EvseId                 int                      `json:"evseId"`
	Duration               int                      `json:"duration"`
	ScheduleStart          DateTime                 `json:"scheduleStart"`
	ChargingRateUnit       ChargingRateUnitType     `json:"chargingRateUnit"`
	ChargingSchedulePeriod []ChargingSchedulePeriod `json:"chargingSchedulePeriod"`
}

type StatusInfo struct {
	ReasonCode     string `json:"reasonCode"`
	AdditionalInfo string `json:"additionalInfo,omitempty"`
}

func NewStatusInfo(reasonCode, additionalInfo string) *StatusInfo {
	return &StatusInfo{ReasonCode: reasonCode, AdditionalInfo: additionalInfo}
}

type ChargingProfileStatus string
type ClearChargingProfileStatus string
type GetChargingProfileStatus string
type GenericStatus string
type RequestStartStopStatus string

const (
	ChargingProfileStatusAccepted      ChargingProfileStatus      = "Accepted"
	ChargingProfileStatusRejected      ChargingProfileStatus      = "Rejected"
	ClearChargingProfileStatusAccepted ClearChargingProfileStatus = "Accepted"
	ClearChargingProfileStatusUnknown  ClearChargingProfileStatus = "Unknown"
	GetChargingProfileStatusAccepted   GetChargingProfileStatus   = "Accepted"
	GetChargingProfileStatusNoProfiles GetChargingProfileStatus   = "NoProfiles"
	GenericStatusAccepted              GenericStatus              = "Accepted"
	GenericStatusRejected              GenericStatus              = "Rejected"
	RequestStartStopStatusAccepted     RequestStartStopStatus     = "Accepted"
	RequestStartStopStatusRejected     RequestStartStopStatus     = "Rejected"
)

func IntPtr(i int) *int {
	return &i
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func copyDateTime(dt *DateTime) *DateTime {
	if dt == nil {
		return nil
	}
	return NewDateTime(dt.Time)
}
