package sheet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// DefaultWorksheet is the worksheet holding the three columns.
const DefaultWorksheet = "Cocktail_DB"

// XLSXStore keeps the columns in one worksheet of a local workbook: a header
// row with the column names and the values below it.
type XLSXStore struct {
	path      string
	worksheet string
}

var _ Store = (*XLSXStore)(nil)

func NewXLSXStore(path, worksheet string) *XLSXStore {
	if worksheet == "" {
		worksheet = DefaultWorksheet
	}
	return &XLSXStore{path: path, worksheet: worksheet}
}

func (s *XLSXStore) Path() string { return s.path }

func (s *XLSXStore) Read(ctx context.Context) (Columns, error) {
	if err := ctx.Err(); err != nil {
		return Columns{}, err
	}

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Columns{}, fmt.Errorf("workbook not found: %s", s.path)
		}
		return Columns{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(s.worksheet)
	if err != nil {
		return Columns{}, fmt.Errorf("failed to read worksheet %s: %w", s.worksheet, err)
	}
	return FromRows(rows)
}

// Write replaces the workbook with a fresh one holding only the padded
// columns. The file is written next to the target and renamed into place.
func (s *XLSXStore) Write(ctx context.Context, cols Columns) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create workbook directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if s.worksheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", s.worksheet); err != nil {
			return fmt.Errorf("failed to name worksheet: %w", err)
		}
	}

	sw, err := f.NewStreamWriter(s.worksheet)
	if err != nil {
		return fmt.Errorf("failed to open worksheet writer: %w", err)
	}
	for i, row := range cols.Rows() {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cellAddr, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := sw.SetRow(cellAddr, cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush worksheet: %w", err)
	}

	tmpFile := s.path + ".tmp" + filepath.Ext(s.path)
	if err := f.SaveAs(tmpFile); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to write temporary workbook: %w", err)
	}
	if err := os.Rename(tmpFile, s.path); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to rename workbook: %w", err)
	}
	return nil
}
