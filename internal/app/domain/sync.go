package domain

// SyncState enumerates the interactive sync engine's state machine. Every
// terminal outcome is a named state so transitions stay testable.
type SyncState string

const (
	StateInit             SyncState = "INIT"
	StateNavigateLogin    SyncState = "NAVIGATE_LOGIN"
	StateFillCredentials  SyncState = "FILL_CREDENTIALS"
	StateCaptchaCheck     SyncState = "CAPTCHA_CHECK"
	StateSubmit           SyncState = "SUBMIT"
	StateAwaitResult      SyncState = "AWAIT_RESULT"
	StateNavigateInvoices SyncState = "NAVIGATE_INVOICES"
	StateSetDateRange     SyncState = "SET_DATE_RANGE"
	StateTriggerExport    SyncState = "TRIGGER_EXPORT"
	StateAwaitDownload    SyncState = "AWAIT_DOWNLOAD"
	StateSaveFile         SyncState = "SAVE_FILE"
	StateDone             SyncState = "DONE"
	StateFailed           SyncState = "FAILED"
)

// Terminal reports whether the machine halts in this state.
func (s SyncState) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// SyncResult is the structured outcome of one browser sync attempt.
// Failures cross the collaborator boundary as a flag plus message, not as
// a raw error.
type SyncResult struct {
	OK       bool
	Message  string
	FilePath string
}

// Strategy is one of the two interchangeable methods of obtaining vendor
// records. Exactly one variant is active per session.
type Strategy interface {
	strategy()
}

// APIStrategy fetches records through the structured REST API.
type APIStrategy struct {
	Key string
}

func (APIStrategy) strategy() {}

// BrowserStrategy obtains records by driving the vendor dashboard UI with
// login-only credentials.
type BrowserStrategy struct {
	Email      string
	Password   string
	CaptchaKey string
}

func (BrowserStrategy) strategy() {}
