package core

const (
	GetVariablesFeatureName = "GetVariables"
	SetVariablesFeatureName = "SetVariables"
)

type Component struct {
	Name string `json:"name"`
}

type Variable struct {
	Name string `json:"name"`
}

type GetVariableData struct {
	AttributeType string    `json:"attributeType,omitempty"`
	Component     Component `json:"component"`
	Variable      Variable  `json:"variable"`
}

type GetVariableResult struct {
	AttributeStatus string    `json:"attributeStatus"`
	AttributeType   string    `json:"attributeType,omitempty"`
	AttributeValue  string    `json:"attributeValue,omitempty"`
	Component       Component `json:"component"`
	Variable        Variable  `json:"variable"`
}

type GetVariablesRequest struct {
	GetVariableData []GetVariableData `json:"getVariableData"`
}

type GetVariablesResponse struct {
	GetVariableResult []GetVariableResult `json:"getVariableResult"`
}

type SetVariableData struct {
	AttributeType  string    `json:"attributeType,omitempty"`
	AttributeValue string    `json:"attributeValue"`
	Component      Component `json:"component"`
	Variable       Variable  `json:"variable"`
}

type SetVariableResult struct {
	AttributeType   string    `json:"attributeType,omitempty"`
	AttributeStatus string    `json:"attributeStatus"`
	Component       Component `json:"component"`
	Variable        Variable  `json:"variable"`
}

type SetVariablesRequest struct {
	SetVariableData []SetVariableData `json:"setVariableData"`
}

type SetVariablesResponse struct {
	SetVariableResult []SetVariableResult `json:"setVariableResult"`
}

func (r GetVariablesRequest) GetFeatureName() string {
	return GetVariablesFeatureName
}

func (c GetVariablesResponse) GetFeatureName() string {
	return GetVariablesFeatureName
}

func (r SetVariablesRequest) GetFeatureName() string {
	return SetVariablesFeatureName
}

func (c SetVariablesResponse) GetFeatureName() string {
	return SetVariablesFeatureName
}
