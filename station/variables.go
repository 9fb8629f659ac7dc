package station

import (
	"evstation/devicemodel"
	"evstation/ocpp/core"
)

const (
	attributeAccepted         = "Accepted"
	attributeRejected         = "Rejected"
	attributeUnknownComponent = "UnknownComponent"
	attributeUnknownVariable  = "UnknownVariable"
)

func (cs *ChargingStation) OnGetVariables(request *core.GetVariablesRequest) *core.GetVariablesResponse {
	response := &core.GetVariablesResponse{GetVariableResult: []core.GetVariableResult{}}
	for _, data := range request.GetVariableData {
		ref := devicemodel.NewRef(data.Component.Name, data.Variable.Name, data.AttributeType)
		result := core.GetVariableResult{
			AttributeType: data.AttributeType,
			Component:     data.Component,
			Variable:      data.Variable,
		}
		if value, ok := cs.device.Get(ref); ok {
			result.AttributeStatus = attributeAccepted
			result.AttributeValue = value
		} else {
			result.AttributeStatus = cs.unknownStatus(ref)
		}
		response.GetVariableResult = append(response.GetVariableResult, result)
	}
	return response
}

// OnSetVariables writes through the device model; a new heartbeat interval
// takes effect right away.
func (cs *ChargingStation) OnSetVariables(request *core.SetVariablesRequest) *core.SetVariablesResponse {
	response := &core.SetVariablesResponse{SetVariableResult: []core.SetVariableResult{}}
	for _, data := range request.SetVariableData {
		ref := devicemodel.NewRef(data.Component.Name, data.Variable.Name, data.AttributeType)
		result := core.SetVariableResult{
			AttributeType: data.AttributeType,
			Component:     data.Component,
			Variable:      data.Variable,
		}
		switch _, known := cs.device.Get(ref); {
		case !known:
			result.AttributeStatus = cs.unknownStatus(ref)
		case cs.device.Set(ref, data.AttributeValue) != nil:
			result.AttributeStatus = attributeRejected
		default:
			result.AttributeStatus = attributeAccepted
			if ref == devicemodel.HeartbeatInterval {
				cs.wakeHeartbeat()
			}
		}
		response.SetVariableResult = append(response.SetVariableResult, result)
	}
	return response
}

func (cs *ChargingStation) unknownStatus(ref devicemodel.VariableRef) string {
	for _, known := range cs.device.Refs() {
		if known.Component == ref.Component {
			return attributeUnknownVariable
		}
	}
	return attributeUnknownComponent
}
