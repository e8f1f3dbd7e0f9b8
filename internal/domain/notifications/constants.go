package notifications

const (
	TypeAbsenceSubmitted = "absence_submitted"
	TypeAbsenceApproved  = "absence_approved"
	TypeAbsenceRejected  = "absence_rejected"
	TypeAbsenceCancelled = "absence_cancelled"
	TypeReminderClockIn  = "reminder_clock_in"
	TypeReminderBreakEnd = "reminder_break_end"
	TypeReminderClockOut = "reminder_clock_out"
)
