package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vnkhanh/e-learning-backend/models"
)

// Sheet layout: question, A, B, C, D, correct letter, points. First row is a header.
const importColumns = 7

type SheetFormat string

const (
	SheetCSV  SheetFormat = "csv"
	SheetXLSX SheetFormat = "xlsx"
)

// SheetFormatOf maps a file name to a supported sheet format.
func SheetFormatOf(filename string) (SheetFormat, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return SheetCSV, nil
	case ".xlsx":
		return SheetXLSX, nil
	}
	return "", fmt.Errorf("unsupported question file %q: %w", filename, ErrInvalidState)
}

// ParseQuestionSheet reads questions from a csv or xlsx upload.
func ParseQuestionSheet(r io.Reader, format SheetFormat) ([]models.QuizQuestion, error) {
	var rows [][]string
	switch format {
	case SheetCSV:
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		records, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = records
	case SheetXLSX:
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("open xlsx: %w", err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("xlsx has no sheets")
		}
		if rows, err = f.GetRows(sheets[0]); err != nil {
			return nil, fmt.Errorf("read xlsx rows: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported sheet format %q: %w", format, ErrInvalidState)
	}
	return questionsFromRows(rows), nil
}

func questionsFromRows(rows [][]string) []models.QuizQuestion {
	var out []models.QuizQuestion
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) < importColumns-1 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		correct := strings.ToUpper(strings.TrimSpace(row[5]))
		points := 1
		if len(row) >= importColumns {
			if p, err := strconv.Atoi(strings.TrimSpace(row[6])); err == nil {
				points = p
			}
		}

		q := models.QuizQuestion{QuestionText: strings.TrimSpace(row[0]), Points: points}
		for j, letter := range []string{"A", "B", "C", "D"} {
			text := strings.TrimSpace(row[1+j])
			if text == "" {
				continue
			}
			q.Answers = append(q.Answers, models.QuizAnswer{AnswerText: text, IsCorrect: correct == letter})
		}
		if len(q.Answers) < 2 {
			continue
		}
		out = append(out, q)
	}
	return out
}
