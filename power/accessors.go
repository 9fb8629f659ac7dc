package power

import (
	"time"

	"evstation/devicemodel"
	"evstation/types"
)

// DeviceModel is the read side of the device model used by validation and
// composite schedule calculation.
type DeviceModel interface {
	GetInt(ref devicemodel.VariableRef, fallback int) int
	GetFloat(ref devicemodel.VariableRef, fallback float64) float64
	GetBool(ref devicemodel.VariableRef, fallback bool) bool
	GetList(ref devicemodel.VariableRef) []string
}

// EvseState answers questions about EVSEs and the transactions on them.
type EvseState interface {
	EvseExists(evseId int) bool
	EvseIds() []int
	HasActiveTransaction(evseId int) bool
	TransactionId(evseId int) (string, bool)
	TransactionStartTime(evseId int) (time.Time, bool)
	CurrentPhaseType(evseId int) types.CurrentPhaseType
}

type settings struct {
	rateUnits           []string
	phaseSwitching      bool
	supplyPhases        int
	defaultAmps         float64
	defaultWatts        float64
	defaultNumberPhases int
	voltage             float64
}

func readSettings(dm DeviceModel) settings {
	s := settings{
		rateUnits:           dm.GetList(devicemodel.RateUnit),
		phaseSwitching:      dm.GetBool(devicemodel.ACPhaseSwitchingSupported, false),
		supplyPhases:        dm.GetInt(devicemodel.SupplyPhases, 3),
		defaultAmps:         dm.GetFloat(devicemodel.DefaultLimitAmps, 48),
		defaultWatts:        dm.GetFloat(devicemodel.DefaultLimitWatts, 33120),
		defaultNumberPhases: dm.GetInt(devicemodel.DefaultNumberPhases, 3),
		voltage:             dm.GetFloat(devicemodel.SupplyVoltage, 230),
	}
	if len(s.rateUnits) == 0 {
		s.rateUnits = []string{string(types.ChargingRateUnitAmperes), string(types.ChargingRateUnitWatts)}
	}
	if s.voltage <= 0 {
		s.voltage = 230
	}
	if s.defaultNumberPhases <= 0 {
		s.defaultNumberPhases = 3
	}
	return s
}
