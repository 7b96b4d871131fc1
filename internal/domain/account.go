package domain

import "time"

// User is the locally registered account. The password never leaves the
// secure store.
type User struct {
	Username string `json:"username"`
}

// Profile holds optional bio data used to personalise safety notes.
type Profile struct {
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	DateOfBirth string   `json:"dateOfBirth,omitempty" yaml:"date_of_birth,omitempty"`
	Age         *int     `json:"age,omitempty" yaml:"age,omitempty"`
	BloodType   string   `json:"bloodType,omitempty" yaml:"blood_type,omitempty"`
	Allergies   []string `json:"allergies,omitempty" yaml:"allergies,omitempty"`
	Conditions  []string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// Session marks the signed-in user.
type Session struct {
	LoggedIn  bool      `json:"isLoggedIn"`
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
}

// Storage keys shared by the plain and secure key-value stores.
const (
	KeyUserName     = "user_name"
	KeyUserPassword = "user_password"
	KeyProfile      = "user_profile"
	KeySession      = "user_session"
	KeyHasLaunched  = "has_launched"
	KeyScanHistory  = "medetech_scan_history"
)
