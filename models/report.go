package models

import (
	"time"
)

type ReportStatus string

const (
	ReportPending         ReportStatus = "Pending"
	ReportRejected        ReportStatus = "Rejected"
	ReportApprovedWarning ReportStatus = "ApprovedWarning"
	ReportApprovedTimeout ReportStatus = "ApprovedTimeout"
	ReportApprovedBan     ReportStatus = "ApprovedBan"
)

// Terminal reports whether no further review may happen from s.
func (s ReportStatus) Terminal() bool {
	switch s {
	case ReportRejected, ReportApprovedWarning, ReportApprovedTimeout, ReportApprovedBan:
		return true
	}
	return false
}

type UserReport struct {
	ID             uint         `gorm:"primaryKey" json:"id"`
	ReportedUserID uint         `gorm:"not null;index" json:"reported_user_id"`
	ReporterUserID uint         `gorm:"not null;index" json:"reporter_user_id"`
	Reason         string       `gorm:"size:255;not null" json:"reason"`
	Details        string       `gorm:"type:text" json:"details"`
	ReportedAt     time.Time    `gorm:"not null" json:"reported_at"`
	IsReviewed     bool         `gorm:"default:false" json:"is_reviewed"`
	ReviewedAt     *time.Time   `json:"reviewed_at,omitempty"`
	AdminNotes     string       `gorm:"type:text" json:"admin_notes"`
	Status         ReportStatus `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
}
