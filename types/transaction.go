package types

type RegistrationStatus string
type AuthorizationStatus string
type IdTokenType string
type TransactionEventType string
type TriggerReasonType string
type ChargingStateType string
type ReadingContext string
type Measurand string
type BootReasonType string

const (
	RegistrationStatusAccepted      RegistrationStatus   = "Accepted"
	RegistrationStatusPending       RegistrationStatus   = "Pending"
	RegistrationStatusRejected      RegistrationStatus   = "Rejected"
	AuthorizationStatusAccepted     AuthorizationStatus  = "Accepted"
	AuthorizationStatusBlocked      AuthorizationStatus  = "Blocked"
	AuthorizationStatusConcurrentTx AuthorizationStatus  = "ConcurrentTx"
	AuthorizationStatusExpired      AuthorizationStatus  = "Expired"
	AuthorizationStatusInvalid      AuthorizationStatus  = "Invalid"
	AuthorizationStatusUnknown      AuthorizationStatus  = "Unknown"
	IdTokenTypeCentral              IdTokenType          = "Central"
	IdTokenTypeISO14443             IdTokenType          = "ISO14443"
	IdTokenTypeKeyCode              IdTokenType          = "KeyCode"
	IdTokenTypeLocal                IdTokenType          = "Local"
	IdTokenTypeNoAuthorization      IdTokenType          = "NoAuthorization"
	TransactionEventStarted         TransactionEventType = "Started"
	TransactionEventUpdated         TransactionEventType = "Updated"
	TransactionEventEnded           TransactionEventType = "Ended"
	TriggerReasonAuthorized         TriggerReasonType    = "Authorized"
	TriggerReasonMeterValuePeriodic TriggerReasonType    = "MeterValuePeriodic"
	TriggerReasonRemoteStart        TriggerReasonType    = "RemoteStart"
	TriggerReasonRemoteStop         TriggerReasonType    = "RemoteStop"
	TriggerReasonChargingRateChange TriggerReasonType    = "ChargingRateChanged"
	ChargingStateCharging           ChargingStateType    = "Charging"
	ChargingStateIdle               ChargingStateType    = "Idle"
	ReadingContextSamplePeriodic    ReadingContext       = "Sample.Periodic"
	ReadingContextTransactionBegin  ReadingContext       = "Transaction.Begin"
	ReadingContextTransactionEnd    ReadingContext       = "Transaction.End"
	MeasurandEnergyActiveImport     Measurand            = "Energy.Active.Import.Register"
	MeasurandPowerActiveImport      Measurand            = "Power.Active.Import"
	MeasurandCurrentImport          Measurand            = "Current.Import"
	BootReasonPowerUp               BootReasonType       = "PowerUp"
)

func (s *RegistrationStatus) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, s, RegistrationStatusAccepted, RegistrationStatusPending, RegistrationStatusRejected)
}

func (e *TransactionEventType) UnmarshalJSON(data []byte) error {
	return decodeEnum(data, e, TransactionEventStarted, TransactionEventUpdated, TransactionEventEnded)
}

type IdToken struct {
	IdToken string      `json:"idToken"`
	Type    IdTokenType `json:"type"`
}

type IdTokenInfo struct {
	Status AuthorizationStatus `json:"status"`
}

type EVSE struct {
	Id          int  `json:"id"`
	ConnectorId *int `json:"connectorId,omitempty"`
}

type SampledValue struct {
	Value     float64        `json:"value"`
	Context   ReadingContext `json:"context,omitempty"`
	Measurand Measurand      `json:"measurand,omitempty"`
	Phase     string         `json:"phase,omitempty"`
}

type MeterValue struct {
	Timestamp    DateTime       `json:"timestamp"`
	SampledValue []SampledValue `json:"sampledValue"`
}

type TransactionInfo struct {
	TransactionId string            `json:"transactionId"`
	ChargingState ChargingStateType `json:"chargingState,omitempty"`
	RemoteStartId *int              `json:"remoteStartId,omitempty"`
}
