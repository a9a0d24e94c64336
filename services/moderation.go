package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/vnkhanh/e-learning-backend/models"
	"github.com/vnkhanh/e-learning-backend/storage"
)

type ReviewKind int

const (
	ReviewReject ReviewKind = iota + 1
	ReviewWarning
	ReviewTimeout
	ReviewBan
)

func (k ReviewKind) String() string {
	switch k {
	case ReviewReject:
		return "reject"
	case ReviewWarning:
		return "warning"
	case ReviewTimeout:
		return "timeout"
	case ReviewBan:
		return "ban"
	}
	return "unknown"
}

// ReviewAction is the admin decision on a report. Until is only read for
// ReviewTimeout.
type ReviewAction struct {
	Kind  ReviewKind
	Until time.Time
}

// status maps the action to the terminal report status it produces.
func (a ReviewAction) status() (models.ReportStatus, bool) {
	switch a.Kind {
	case ReviewReject:
		return models.ReportRejected, true
	case ReviewWarning:
		return models.ReportApprovedWarning, true
	case ReviewTimeout:
		return models.ReportApprovedTimeout, true
	case ReviewBan:
		return models.ReportApprovedBan, true
	}
	return "", false
}

type ModerationService struct {
	store    *storage.Store
	notifier Notifier
	now      func() time.Time
}

func NewModerationService(store *storage.Store, notifier Notifier) *ModerationService {
	return &ModerationService{
		store:    store,
		notifier: orNop(notifier),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateReport files a Pending report of one user against another.
func (s *ModerationService) CreateReport(ctx context.Context, reportedUserID, reporterUserID uint, reason, details string) (*models.UserReport, error) {
	for _, id := range []uint{reportedUserID, reporterUserID} {
		ok, err := s.store.UserExists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrUserNotFound
		}
	}
	if reportedUserID == reporterUserID {
		return nil, ErrSelfReport
	}

	report := &models.UserReport{
		ReportedUserID: reportedUserID,
		ReporterUserID: reporterUserID,
		Reason:         strings.TrimSpace(reason),
		Details:        strings.TrimSpace(details),
		ReportedAt:     s.now(),
		Status:         models.ReportPending,
	}
	if err := s.store.CreateReport(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *ModerationService) GetReport(ctx context.Context, id uint) (*models.UserReport, error) {
	report, err := s.store.GetReport(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return report, nil
}

// Review moves a Pending report to the action's terminal status and applies
// the sanction to the reported user in the same transaction. A report that
// was already reviewed is left untouched.
func (s *ModerationService) Review(ctx context.Context, reportID uint, action ReviewAction, adminNotes string) (*models.UserReport, error) {
	status, ok := action.status()
	if !ok {
		return nil, ErrInvalidReviewAction
	}

	var reportedUserID uint
	err := s.store.Transaction(ctx, func(tx *storage.Store) error {
		report, err := tx.GetReport(ctx, reportID)
		if err != nil {
			if isNotFound(err) {
				return ErrReportNotFound
			}
			return err
		}
		if report.Status.Terminal() {
			return ErrReportAlreadyReviewed
		}
		reportedUserID = report.ReportedUserID

		n, err := tx.ReviewReport(ctx, reportID, status, adminNotes, s.now())
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrReportAlreadyReviewed
		}

		switch action.Kind {
		case ReviewTimeout:
			until := action.Until.UTC()
			n, err = tx.SetUserTimeout(ctx, reportedUserID, &until)
		case ReviewBan:
			n, err = tx.SetUserBanned(ctx, reportedUserID, true, false)
		case ReviewReject, ReviewWarning:
			return nil
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrUserNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("report %d reviewed: %s", reportID, action.Kind)
	s.notifyReview(reportedUserID, reportID, action)
	return s.GetReport(ctx, reportID)
}

func (s *ModerationService) notifyReview(userID, reportID uint, action ReviewAction) {
	switch action.Kind {
	case ReviewWarning:
		s.notifier.NotifyUser(userID, models.Event{Type: models.EventReportWarning, Data: map[string]uint{"report_id": reportID}})
	case ReviewTimeout:
		s.notifier.NotifyUser(userID, models.Event{Type: models.EventUserTimedOut, Data: map[string]time.Time{"timeout_until": action.Until.UTC()}})
	case ReviewBan:
		s.notifier.NotifyUser(userID, models.Event{Type: models.EventUserBanned})
	}
}

func (s *ModerationService) Reject(ctx context.Context, reportID uint, adminNotes string) (*models.UserReport, error) {
	return s.Review(ctx, reportID, ReviewAction{Kind: ReviewReject}, adminNotes)
}

func (s *ModerationService) ApproveWithWarning(ctx context.Context, reportID uint, adminNotes string) (*models.UserReport, error) {
	return s.Review(ctx, reportID, ReviewAction{Kind: ReviewWarning}, adminNotes)
}

func (s *ModerationService) ApproveWithTimeout(ctx context.Context, reportID uint, until time.Time, adminNotes string) (*models.UserReport, error) {
	return s.Review(ctx, reportID, ReviewAction{Kind: ReviewTimeout, Until: until}, adminNotes)
}

func (s *ModerationService) ApproveWithBan(ctx context.Context, reportID uint, adminNotes string) (*models.UserReport, error) {
	return s.Review(ctx, reportID, ReviewAction{Kind: ReviewBan}, adminNotes)
}

// SetTimeout overwrites the user's timeout. nil lifts it.
func (s *ModerationService) SetTimeout(ctx context.Context, userID uint, until *time.Time) error {
	if until != nil {
		u := until.UTC()
		until = &u
	}
	n, err := s.store.SetUserTimeout(ctx, userID, until)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	if until == nil {
		s.notifier.NotifyUser(userID, models.Event{Type: models.EventTimeoutCleared})
	} else {
		s.notifier.NotifyUser(userID, models.Event{Type: models.EventUserTimedOut, Data: map[string]time.Time{"timeout_until": *until}})
	}
	return nil
}

// Ban sets the ban flag. Unbanning also lifts any timeout.
func (s *ModerationService) Ban(ctx context.Context, userID uint, banned bool) error {
	n, err := s.store.SetUserBanned(ctx, userID, banned, !banned)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	event := models.EventUserUnbanned
	if banned {
		event = models.EventUserBanned
	}
	s.notifier.NotifyUser(userID, models.Event{Type: event})
	return nil
}

// IsTimedOut reports whether the user's timeout is still running. An expired
// timeout is cleared on the way out; concurrent clears are harmless.
func (s *ModerationService) IsTimedOut(ctx context.Context, userID uint) (bool, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return s.checkTimeout(ctx, user)
}

func (s *ModerationService) checkTimeout(ctx context.Context, user *models.User) (bool, error) {
	if user.TimeoutUntil == nil {
		return false, nil
	}
	now := s.now()
	if user.TimeoutUntil.After(now) {
		return true, nil
	}
	if _, err := s.store.ClearExpiredTimeout(ctx, user.ID, now); err != nil {
		return false, err
	}
	user.TimeoutUntil = nil
	return false, nil
}

func (s *ModerationService) IsBanned(ctx context.Context, userID uint) (bool, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsBanned, nil
}

// Status returns the current ban and timeout state of a user, clearing an
// expired timeout like IsTimedOut.
func (s *ModerationService) Status(ctx context.Context, userID uint) (*models.SanctionStatus, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	timedOut, err := s.checkTimeout(ctx, user)
	if err != nil {
		return nil, err
	}
	return &models.SanctionStatus{
		UserID:       user.ID,
		IsBanned:     user.IsBanned,
		IsTimedOut:   timedOut,
		TimeoutUntil: user.TimeoutUntil,
	}, nil
}

func (s *ModerationService) SetActive(ctx context.Context, userID uint, active bool) error {
	n, err := s.store.SetUserActive(ctx, userID, active)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ClearExpiredTimeouts lifts every timeout that has already ended. It runs
// once at startup.
func (s *ModerationService) ClearExpiredTimeouts(ctx context.Context) (int64, error) {
	return s.store.ClearAllExpiredTimeouts(ctx, s.now())
}

func (s *ModerationService) PendingReports(ctx context.Context) ([]models.UserReport, error) {
	return s.store.ListReportsByStatus(ctx, models.ReportPending)
}

func (s *ModerationService) ReportsAgainst(ctx context.Context, userID uint) ([]models.UserReport, error) {
	return s.store.ListReportsAgainst(ctx, userID)
}

func (s *ModerationService) ReportsBy(ctx context.Context, userID uint) ([]models.UserReport, error) {
	return s.store.ListReportsBy(ctx, userID)
}

func (s *ModerationService) getUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
