package core

import "evstation/types"

const StatusNotificationFeatureName = "StatusNotification"

type ConnectorStatus string

const (
	ConnectorStatusAvailable   ConnectorStatus = "Available"
	ConnectorStatusOccupied    ConnectorStatus = "Occupied"
	ConnectorStatusReserved    ConnectorStatus = "Reserved"
	ConnectorStatusUnavailable ConnectorStatus = "Unavailable"
	ConnectorStatusFaulted     ConnectorStatus = "Faulted"
)

type StatusNotificationRequest struct {
	Timestamp       *types.DateTime `json:"timestamp"`
	ConnectorStatus ConnectorStatus `json:"connectorStatus"`
	EvseId          int             `json:"evseId"`
	ConnectorId     int             `json:"connectorId"`
}

type StatusNotificationResponse struct {
}

func (r StatusNotificationRequest) GetFeatureName() string {
	return StatusNotificationFeatureName
}

func (c StatusNotificationResponse) GetFeatureName() string {
	return StatusNotificationFeatureName
}

func NewStatusNotificationRequest(evseId int, status ConnectorStatus, timestamp *types.DateTime) *StatusNotificationRequest {
	return &StatusNotificationRequest{
		Timestamp:       timestamp,
		ConnectorStatus: status,
		EvseId:          evseId,
		ConnectorId:     1,
	}
}
