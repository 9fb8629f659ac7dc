package core

import "evstation/ocpp"

func Features() []ocpp.Feature {
	return []ocpp.Feature{
		ocpp.NewFeature(&AuthorizeRequest{}, &AuthorizeResponse{}),
		ocpp.NewFeature(&BootNotificationRequest{}, &BootNotificationResponse{}),
		ocpp.NewFeature(&HeartbeatRequest{}, &HeartbeatResponse{}),
		ocpp.NewFeature(&MeterValuesRequest{}, &MeterValuesResponse{}),
		ocpp.NewFeature(&StatusNotificationRequest{}, &StatusNotificationResponse{}),
		ocpp.NewFeature(&TransactionEventRequest{}, &TransactionEventResponse{}),
		ocpp.NewFeature(&SecurityEventNotificationRequest{}, &SecurityEventNotificationResponse{}),
		ocpp.NewFeature(&RequestStartTransactionRequest{}, &RequestStartTransactionResponse{}),
		ocpp.NewFeature(&RequestStopTransactionRequest{}, &RequestStopTransactionResponse{}),
		ocpp.NewFeature(&GetVariablesRequest{}, &GetVariablesResponse{}),
		ocpp.NewFeature(&SetVariablesRequest{}, &SetVariablesResponse{}),
	}
}

// IsTransactionMessage reports whether the action belongs to the transaction
// message class, which is delivered in order and retried across reconnects.
func IsTransactionMessage(action string) bool {
	switch action {
	case TransactionEventFeatureName, MeterValuesFeatureName, SecurityEventNotificationFeatureName:
		return true
	default:
		return false
	}
}
