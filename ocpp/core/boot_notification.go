package core

import "evstation/types"

const BootNotificationFeatureName = "BootNotification"

type ChargingStation struct {
	SerialNumber    string `json:"serialNumber,omitempty"`
	Model           string `json:"model"`
	VendorName      string `json:"vendorName"`
	FirmwareVersion string `json:"firmwareVersion,omitempty"`
}

type BootNotificationRequest struct {
	ChargingStation ChargingStation      `json:"chargingStation"`
	Reason          types.BootReasonType `json:"reason"`
}

type BootNotificationResponse struct {
	CurrentTime *types.DateTime          `json:"currentTime"`
	Interval    int                      `json:"interval"`
	Status      types.RegistrationStatus `json:"status"`
	StatusInfo  *types.StatusInfo        `json:"statusInfo,omitempty"`
}

func (r BootNotificationRequest) GetFeatureName() string {
	return BootNotificationFeatureName
}

func (c BootNotificationResponse) GetFeatureName() string {
	return BootNotificationFeatureName
}

func NewBootNotificationRequest(station ChargingStation, reason types.BootReasonType) *BootNotificationRequest {
	return &BootNotificationRequest{ChargingStation: station, Reason: reason}
}
