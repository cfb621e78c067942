// Package export writes the attempt history as an Excel workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mindprep/mindprep/internal/quiz"
)

const (
	attemptsSheet = "Attempts"
	wrongSheet    = "Wrong Answers"
)

// WriteWorkbook renders attempts (newest first, as stored) into an .xlsx
// with a summary sheet and a wrong-answers sheet.
func WriteWorkbook(w io.Writer, attempts []quiz.Attempt) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", attemptsSheet)
	if _, err := f.NewSheet(wrongSheet); err != nil {
		return fmt.Errorf("export: create sheet: %w", err)
	}

	header := []any{"ID", "Date", "Topic", "Score", "Total Questions"}
	if err := f.SetSheetRow(attemptsSheet, "A1", &header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	wrongHeader := []any{"Attempt ID", "Topic", "Question", "Your Answer", "Correct Answer", "Explanation"}
	if err := f.SetSheetRow(wrongSheet, "A1", &wrongHeader); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	wrongRow := 2
	for i, a := range attempts {
		row := []any{a.ID, a.Date, a.Topic, a.Score, a.TotalQuestions}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: cell name: %w", err)
		}
		if err := f.SetSheetRow(attemptsSheet, cell, &row); err != nil {
			return fmt.Errorf("export: write attempt %s: %w", a.ID, err)
		}

		for _, wa := range a.WrongAnswers {
			cell, err := excelize.CoordinatesToCellName(1, wrongRow)
			if err != nil {
				return fmt.Errorf("export: cell name: %w", err)
			}
			detail := []any{a.ID, a.Topic, wa.Question, wa.UserAnswer, wa.CorrectAnswer, wa.Explanation}
			if err := f.SetSheetRow(wrongSheet, cell, &detail); err != nil {
				return fmt.Errorf("export: write wrong answer: %w", err)
			}
			wrongRow++
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}
