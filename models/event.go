package models

const (
	EventEnrollmentCompleted = "enrollment_completed"
	EventUserBanned          = "user_banned"
	EventUserUnbanned        = "user_unbanned"
	EventUserTimedOut        = "user_timed_out"
	EventTimeoutCleared      = "timeout_cleared"
	EventReportWarning       = "report_warning"
	EventCourseMessage       = "course_message"
)

// Event is pushed to a single user's realtime connections.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}
