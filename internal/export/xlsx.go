// Package export renders command records as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/session-audit/backend/internal/formatter"
	"github.com/session-audit/backend/internal/models"
	"github.com/xuri/excelize/v2"
)

const CommandSheet = "Commands"

// WriteCommandsXLSX writes cmds as a workbook whose header row is
// formatter.CommandFields, one row per command in the same column order.
func WriteCommandsXLSX(w io.Writer, cmds []models.Command) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", CommandSheet); err != nil {
		return err
	}

	header := make([]any, len(formatter.CommandFields))
	for i, name := range formatter.CommandFields {
		header[i] = name
	}
	if err := f.SetSheetRow(CommandSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i := range cmds {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := formatter.Row(&cmds[i])
		if err := f.SetSheetRow(CommandSheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	_, err := f.WriteTo(w)
	return err
}
