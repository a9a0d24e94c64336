package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/vnkhanh/e-learning-backend/models"
)

func (s *Store) CreateReport(ctx context.Context, r *models.UserReport) error {
	if err := s.conn(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (s *Store) GetReport(ctx context.Context, id uint) (*models.UserReport, error) {
	var r models.UserReport
	if err := s.conn(ctx).First(&r, id).Error; err != nil {
		return nil, fmt.Errorf("get report %d: %w", id, err)
	}
	return &r, nil
}

// ReviewReport moves a Pending report to status. It matches nothing once
// the report has been reviewed, so callers see zero rows affected.
func (s *Store) ReviewReport(ctx context.Context, id uint, status models.ReportStatus, notes string, at time.Time) (int64, error) {
	res := s.conn(ctx).Model(&models.UserReport{}).
		Where("id = ? AND status = ?", id, models.ReportPending).
		Updates(map[string]any{
			"is_reviewed": true,
			"reviewed_at": at,
			"status":      status,
			"admin_notes": notes,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("review report %d: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Store) ListReportsByStatus(ctx context.Context, status models.ReportStatus) ([]models.UserReport, error) {
	var list []models.UserReport
	err := s.conn(ctx).Where("status = ?", status).Order("reported_at ASC, id ASC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list %s reports: %w", status, err)
	}
	return list, nil
}

func (s *Store) ListReportsAgainst(ctx context.Context, userID uint) ([]models.UserReport, error) {
	var list []models.UserReport
	err := s.conn(ctx).Where("reported_user_id = ?", userID).Order("reported_at DESC, id DESC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list reports against user %d: %w", userID, err)
	}
	return list, nil
}

func (s *Store) ListReportsBy(ctx context.Context, userID uint) ([]models.UserReport, error) {
	var list []models.UserReport
	err := s.conn(ctx).Where("reporter_user_id = ?", userID).Order("reported_at DESC, id DESC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list reports by user %d: %w", userID, err)
	}
	return list, nil
}
