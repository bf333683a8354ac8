package models

import "time"

const (
	RolePatient   = "patient"
	RoleDoctor    = "doctor"
	RoleCaregiver = "caregiver"
)

// User account as seen by the alerting pipeline (read-only here)
type User struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Email             string             `json:"email"`
	Role              string             `json:"role"`
	DoctorID          string             `json:"doctorId,omitempty"`
	Phone             string             `json:"phone,omitempty"`
	EmergencyContacts []EmergencyContact `json:"emergencyContacts,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
}

// EmergencyContact ordered per user
type EmergencyContact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email,omitempty"`
	Relationship string `json:"relationship"`
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	switch role {
	case RolePatient, RoleDoctor, RoleCaregiver:
		return true
	}
	return false
}
