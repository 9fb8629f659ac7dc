package devicemodel

import (
	"fmt"
	"strconv"

	"evstation/internal/config"
)

const AttributeActual = "Actual"

// VariableRef addresses one attribute of a component variable.
type VariableRef struct {
	Component string `json:"component"`
	Variable  string `json:"variable"`
	Attribute string `json:"attribute"`
}

func NewRef(component, variable, attribute string) VariableRef {
	if attribute == "" {
		attribute = AttributeActual
	}
	return VariableRef{Component: component, Variable: variable, Attribute: attribute}
}

func (r VariableRef) String() string {
	return fmt.Sprintf("%s.%s.%s", r.Component, r.Variable, r.Attribute)
}

var (
	RateUnit                  = NewRef("SmartChargingCtrlr", "RateUnit", "")
	ACPhaseSwitchingSupported = NewRef("SmartChargingCtrlr", "ACPhaseSwitchingSupported", "")
	DefaultLimitAmps          = NewRef("SmartChargingCtrlr", "CompositeScheduleDefaultLimitAmps", "")
	DefaultLimitWatts         = NewRef("SmartChargingCtrlr", "CompositeScheduleDefaultLimitWatts", "")
	DefaultNumberPhases       = NewRef("SmartChargingCtrlr", "CompositeScheduleDefaultNumberPhases", "")
	SupplyVoltage             = NewRef("SmartChargingCtrlr", "SupplyVoltage", "")
	SupplyPhases              = NewRef("ChargingStation", "SupplyPhases", "")
	HeartbeatInterval         = NewRef("OCPPCommCtrlr", "HeartbeatInterval", "")
	MessageAttempts           = NewRef("OCPPCommCtrlr", "MessageAttempts", "TransactionEvent")
	QueueAllMessages          = NewRef("OCPPCommCtrlr", "QueueAllMessages", "")
)

// Defaults is the initial device model, taken from the configuration.
func Defaults(conf *config.Config) map[VariableRef]string {
	sc := conf.SmartCharging
	return map[VariableRef]string{
		RateUnit:                  sc.RateUnits,
		ACPhaseSwitchingSupported: strconv.FormatBool(sc.ACPhaseSwitchingSupported),
		DefaultLimitAmps:          strconv.FormatFloat(sc.DefaultLimitAmps, 'f', -1, 64),
		DefaultLimitWatts:         strconv.FormatFloat(sc.DefaultLimitWatts, 'f', -1, 64),
		DefaultNumberPhases:       strconv.Itoa(sc.DefaultNumberPhases),
		SupplyVoltage:             strconv.FormatFloat(sc.SupplyVoltage, 'f', -1, 64),
		SupplyPhases:              strconv.Itoa(sc.SupplyPhases),
		HeartbeatInterval:         strconv.Itoa(conf.Csms.HeartbeatInterval),
		MessageAttempts:           strconv.Itoa(conf.Dispatch.TransactionAttempts),
		QueueAllMessages:          strconv.FormatBool(conf.Dispatch.QueueAllMessages),
	}
}
