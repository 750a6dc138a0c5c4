package constant

// User-visible status messages published by the reminder service.
const (
	MsgEmptyTitle          = "Title can't be empty"
	MsgMissingIdentifier   = "Reminder has no identifier"
	MsgSaveFailed          = "Unable to save the reminder"
	MsgUpdateFailed        = "Unable to update the reminder"
	MsgDeleteFailed        = "Unable to delete the reminder"
	MsgDeleteAllFailed     = "Failed to delete all reminders"
	MsgDeleteExpiredFailed = "Failed to delete expired reminders"
	MsgFetchFailed         = "Failed to load reminders"
)

// DisplayDateLayout is the short date + short time layout used in list items.
const DisplayDateLayout = "1/2/06, 3:04 PM"

// OpenedPostbackPrefix prefixes the postback data attached to pushed
// notifications; the reminder identifier follows it.
const OpenedPostbackPrefix = "opened:"
