package core

import "evstation/types"

const SecurityEventNotificationFeatureName = "SecurityEventNotification"

const SecurityEventStartupOfTheDevice = "StartupOfTheDevice"

type SecurityEventNotificationRequest struct {
	Type      string          `json:"type"`
	Timestamp *types.DateTime `json:"timestamp"`
	TechInfo  string          `json:"techInfo,omitempty"`
}

type SecurityEventNotificationResponse struct {
}

func (r SecurityEventNotificationRequest) GetFeatureName() string {
	return SecurityEventNotificationFeatureName
}

func (c SecurityEventNotificationResponse) GetFeatureName() string {
	return SecurityEventNotificationFeatureName
}

func NewSecurityEventNotificationRequest(eventType string, timestamp *types.DateTime) *SecurityEventNotificationRequest {
	return &SecurityEventNotificationRequest{Type: eventType, Timestamp: timestamp}
}
