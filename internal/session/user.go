// Package session owns the process-wide hands-free session: at most one
// logged-in user with head tracking and voice control running together.
package session

// Role identifies an account type in the portal.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleNurse   Role = "nurse"
)

// User is the immutable snapshot of the logged-in account held for the
// lifetime of a hands-free session.
type User struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`

	// PatientID is set for patients only.
	PatientID string `json:"patient_id,omitempty"`
	// Specialization is set for doctors only.
	Specialization string `json:"specialization,omitempty"`
	// Department is set for nurses only.
	Department string `json:"department,omitempty"`

	// Language is the spoken-language code for voice input (e.g. "en",
	// "es").
	Language string `json:"language"`
}
