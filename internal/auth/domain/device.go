package domain

import "time"

// DefaultDeviceName is used when a login supplies no device label.
const DefaultDeviceName = "unknown device"

// Device is the view of one live refresh token.
type Device struct {
	ID           string
	Name         string
	LoginDate    time.Time
	LastActivity time.Time
}

// DeviceFromToken derives the device view of a refresh token.
func DeviceFromToken(t AuthToken) Device {
	name := t.DeviceName
	if name == "" {
		name = DefaultDeviceName
	}
	return Device{
		ID:           t.DeviceID,
		Name:         name,
		LoginDate:    t.LoginAt,
		LastActivity: t.CreatedAt,
	}
}
