package services

import (
	"errors"

	"gorm.io/gorm"
)

// Error categories. Every error returned by the engines matches exactly one
// of these with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnauthorized = errors.New("unauthorized")
)

// CoreError is a specific failure that unwraps to its category.
type CoreError struct {
	kind error
	msg  string
}

func (e *CoreError) Error() string { return e.msg }

func (e *CoreError) Unwrap() error { return e.kind }

func newError(kind error, msg string) *CoreError {
	return &CoreError{kind: kind, msg: msg}
}

var (
	ErrCourseNotFound     = newError(ErrNotFound, "course not found")
	ErrLessonNotFound     = newError(ErrNotFound, "lesson not found")
	ErrQuestionNotFound   = newError(ErrNotFound, "question not found")
	ErrAnswerNotFound     = newError(ErrNotFound, "answer not found")
	ErrUserNotFound       = newError(ErrNotFound, "user not found")
	ErrReportNotFound     = newError(ErrNotFound, "report not found")
	ErrEnrollmentNotFound = newError(ErrNotFound, "enrollment not found")
	ErrNotEnrolled        = newError(ErrNotFound, "student is not enrolled in this course")

	ErrAlreadyEnrolled = newError(ErrConflict, "student is already enrolled in this course")
	ErrSelfReport      = newError(ErrConflict, "users cannot report themselves")
	ErrUsernameTaken   = newError(ErrConflict, "username or email already registered")

	ErrNotQuizLesson         = newError(ErrInvalidState, "lesson is not a quiz")
	ErrLessonGone            = newError(ErrInvalidState, "lesson of this question no longer exists")
	ErrReportAlreadyReviewed = newError(ErrInvalidState, "report has already been reviewed")
	ErrGeneratorUnavailable  = newError(ErrInvalidState, "question generator is not configured")
	ErrInvalidReviewAction   = newError(ErrInvalidState, "unknown review action")

	ErrInvalidRole     = newError(ErrUnauthorized, "user does not have the required role")
	ErrNotCourseOwner  = newError(ErrUnauthorized, "course belongs to another instructor")
	ErrInvalidPassword = newError(ErrUnauthorized, "invalid username or password")
	ErrAccountInactive = newError(ErrUnauthorized, "account is deactivated")
)

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
