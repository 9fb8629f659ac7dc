package ocpp

import "fmt"

type ErrorCode string

const (
	ErrorCodeFormationViolation            ErrorCode = "FormationViolation"
	ErrorCodeGenericError                  ErrorCode = "GenericError"
	ErrorCodeInternalError                 ErrorCode = "InternalError"
	ErrorCodeMessageTypeNotSupported       ErrorCode = "MessageTypeNotSupported"
	ErrorCodeNotImplemented                ErrorCode = "NotImplemented"
	ErrorCodeNotSupported                  ErrorCode = "NotSupported"
	ErrorCodeOccurrenceConstraintViolation ErrorCode = "OccurrenceConstraintViolation"
	ErrorCodePropertyConstraintViolation   ErrorCode = "PropertyConstraintViolation"
	ErrorCodeProtocolError                 ErrorCode = "ProtocolError"
	ErrorCodeRpcFrameworkError             ErrorCode = "RpcFrameworkError"
	ErrorCodeSecurityError                 ErrorCode = "SecurityError"
	ErrorCodeTypeConstraintViolation       ErrorCode = "TypeConstraintViolation"
)

// ParseError describes an inbound frame that could not be decoded. UniqueId is
// empty when the frame was too broken to carry one.
type ParseError struct {
	UniqueId    string
	MessageType MessageType
	Code        ErrorCode
	Err         error
}

func (e *ParseError) Error() string {
	if e.UniqueId == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Code, e.UniqueId, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Replyable reports whether the peer expects a CallError for this frame.
func (e *ParseError) Replyable() bool {
	return e.UniqueId != "" && e.MessageType == CallTypeRequest
}
