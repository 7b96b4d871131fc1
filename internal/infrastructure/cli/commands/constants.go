package commands

import "github.com/doeshing/medetech-go/internal/domain"

// CLI-specific constants
const (
	// DefaultHistoryLimit is the default number of entries shown by 'history list'
	DefaultHistoryLimit = domain.DefaultHistoryLimit

	// DefaultTopMedicines is the number of medicines ranked by 'history stats'
	DefaultTopMedicines = 5

	// ExportFilePermissions is the mode of files written by 'history export'
	ExportFilePermissions = 0o600

	maskedSecret = "********"
)

// Error messages
const (
	ErrConfigLoaderUnavailable  = "config loader unavailable"
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrHistoryStoreUnavailable  = "history store unavailable"
	ErrAccountUnavailable       = "account service unavailable"
	ErrKeyRequired              = "--key is required"
)

// Success messages
const (
	MsgConfigurationValid       = "Configuration valid"
	MsgNoDifferencesFromDefault = "No differences from default configuration."
	MsgNoHistoryRecorded        = "No history recorded yet."
	MsgNoProfile                = "No profile saved. Use 'medetech profile set'."
	MsgNotSignedIn              = "Not signed in."
	MsgInitCancelled            = "Init cancelled."
	MsgClearCancelled           = "Nothing was deleted."
)
