package services

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const rosterSheet = "Roster"

var rosterHeader = []any{
	"Student ID", "Username", "Full name", "Enrolled at", "Progress (%)", "Completed", "Final grade", "Certificate number",
}

// ExportRoster builds an xlsx workbook with one row per enrollment of the
// course. The caller owns the returned file and must Close it.
func (s *EnrollmentService) ExportRoster(ctx context.Context, courseID uint) (*excelize.File, error) {
	students, err := s.EnrolledStudents(ctx, courseID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(rosterSheet, "A1", &rosterHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, row := range students {
		grade := any("")
		if row.Enrollment.FinalGrade != nil {
			grade = *row.Enrollment.FinalGrade
		}
		certificate := ""
		if row.Enrollment.Certificate != nil {
			certificate = row.Enrollment.Certificate.CertificateNumber
		}
		values := []any{
			row.Student.ID,
			row.Student.Username,
			fullName(row.Student.FirstName, row.Student.LastName),
			row.Enrollment.EnrolledAt.Format("2006-01-02 15:04"),
			row.Progress,
			row.Enrollment.IsCompleted,
			grade,
			certificate,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(rosterSheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("write roster row %d: %w", i+1, err)
		}
	}
	return f, nil
}

func fullName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}
