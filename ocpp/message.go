package ocpp

import (
	"encoding/json"
	"fmt"
)

type MessageType int

const (
	CallTypeRequest MessageType = 2
	CallTypeResult  MessageType = 3
	CallTypeError   MessageType = 4
)

func (mt MessageType) String() string {
	switch mt {
	case CallTypeRequest:
		return "Call"
	case CallTypeResult:
		return "CallResult"
	case CallTypeError:
		return "CallError"
	default:
		return fmt.Sprintf("MessageType(%d)", int(mt))
	}
}

// Call An OCPP-J Call message, containing an OCPP Request.
type Call struct {
	UniqueId string
	Action   string
	Payload  Request
}

func NewCall(uniqueId string, request Request) *Call {
	return &Call{
		UniqueId: uniqueId,
		Action:   request.GetFeatureName(),
		Payload:  request,
	}
}

func (call *Call) MarshalJSON() ([]byte, error) {
	fields := make([]interface{}, 4)
	fields[0] = int(CallTypeRequest)
	fields[1] = call.UniqueId
	fields[2] = call.Action
	fields[3] = call.Payload
	return json.Marshal(fields)
}

// CallResult An OCPP-J CallResult message, containing an OCPP Response.
type CallResult struct {
	UniqueId string
	Payload  Response
}

func (callResult *CallResult) MarshalJSON() ([]byte, error) {
	fields := make([]interface{}, 3)
	fields[0] = int(CallTypeResult)
	fields[1] = callResult.UniqueId
	fields[2] = callResult.Payload
	return json.Marshal(fields)
}

// CallError An OCPP-J CallError message, the peer does not answer it.
type CallError struct {
	UniqueId         string
	ErrorCode        ErrorCode
	ErrorDescription string
	ErrorDetails     interface{}
}

func (callError *CallError) MarshalJSON() ([]byte, error) {
	details := callError.ErrorDetails
	if details == nil {
		details = struct{}{}
	}
	fields := make([]interface{}, 5)
	fields[0] = int(CallTypeError)
	fields[1] = callError.UniqueId
	fields[2] = callError.ErrorCode
	fields[3] = callError.ErrorDescription
	fields[4] = details
	return json.Marshal(fields)
}

// EnhancedMessage is a decoded wire message together with its correlation metadata.
type EnhancedMessage struct {
	MessageType      MessageType
	UniqueId         string
	Action           string
	Request          Request
	Response         Response
	ErrorCode        ErrorCode
	ErrorDescription string
	ErrorDetails     json.RawMessage
	RawPayload       json.RawMessage
	Raw              json.RawMessage
	// Offline is set when the call was queued while the transport was down
	Offline bool
}

func (m *EnhancedMessage) IsCallError() bool {
	return m != nil && m.MessageType == CallTypeError
}

// ParseMessage decodes an OCPP-J frame. Requests are decoded into the type registered
// for their action; responses into the type of the call that pendingAction reports for
// the unique id, when there is one.
func ParseMessage(data []byte, features FeatureSet, pendingAction func(uniqueId string) (string, bool)) (*EnhancedMessage, error) {
	if pendingAction == nil {
		pendingAction = func(string) (string, bool) { return "", false }
	}
	var fields []json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, &ParseError{Code: ErrorCodeFormationViolation, Err: fmt.Errorf("invalid message structure: %w", err)}
	}
	if len(fields) < 3 {
		return nil, &ParseError{Code: ErrorCodeFormationViolation, Err: fmt.Errorf("message has %d elements", len(fields))}
	}
	var typeId int
	if err := json.Unmarshal(fields[0], &typeId); err != nil {
		return nil, &ParseError{Code: ErrorCodeFormationViolation, Err: fmt.Errorf("invalid message type: %w", err)}
	}
	var uniqueId string
	if err := json.Unmarshal(fields[1], &uniqueId); err != nil {
		return nil, &ParseError{Code: ErrorCodeFormationViolation, Err: fmt.Errorf("invalid unique id: %w", err)}
	}
	message := &EnhancedMessage{
		MessageType: MessageType(typeId),
		UniqueId:    uniqueId,
		Raw:         data,
	}
	parseError := func(code ErrorCode, err error) *ParseError {
		return &ParseError{UniqueId: uniqueId, MessageType: message.MessageType, Code: code, Err: err}
	}

	switch message.MessageType {
	case CallTypeRequest:
		if len(fields) != 4 {
			return message, parseError(ErrorCodeFormationViolation, fmt.Errorf("call has %d elements, expected 4", len(fields)))
		}
		if err := json.Unmarshal(fields[2], &message.Action); err != nil {
			return message, parseError(ErrorCodeFormationViolation, fmt.Errorf("invalid action: %w", err))
		}
		message.RawPayload = fields[3]
		feature, ok := features.Get(message.Action)
		if !ok {
			return message, parseError(ErrorCodeNotImplemented, fmt.Errorf("unsupported action: %s", message.Action))
		}
		request, err := ParseRawJsonRequest(fields[3], feature.GetRequestType())
		if err != nil {
			return message, parseError(ErrorCodeFormationViolation, fmt.Errorf("decoding %s request: %w", message.Action, err))
		}
		message.Request = request
	case CallTypeResult:
		message.RawPayload = fields[2]
		action, ok := pendingAction(uniqueId)
		if !ok {
			return message, nil
		}
		message.Action = action
		feature, ok := features.Get(action)
		if !ok {
			return message, nil
		}
		response, err := ParseRawJsonResponse(fields[2], feature.GetResponseType())
		if err != nil {
			return message, parseError(ErrorCodeFormationViolation, fmt.Errorf("decoding %s response: %w", action, err))
		}
		message.Response = response
	case CallTypeError:
		if len(fields) < 4 {
			return message, parseError(ErrorCodeFormationViolation, fmt.Errorf("call error has %d elements", len(fields)))
		}
		if action, ok := pendingAction(uniqueId); ok {
			message.Action = action
		}
		var code string
		if err := json.Unmarshal(fields[2], &code); err != nil {
			return message, parseError(ErrorCodeFormationViolation, fmt.Errorf("invalid error code: %w", err))
		}
		message.ErrorCode = ErrorCode(code)
		if err := json.Unmarshal(fields[3], &message.ErrorDescription); err != nil {
			return message, parseError(ErrorCodeFormationViolation, fmt.Errorf("invalid error description: %w", err))
		}
		if len(fields) > 4 {
			message.ErrorDetails = fields[4]
		}
	default:
		return message, parseError(ErrorCodeMessageTypeNotSupported, fmt.Errorf("unsupported message type %d", typeId))
	}
	return message, nil
}
