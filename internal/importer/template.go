package importer

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
)

var ErrUnknownEntity = errors.New("unknown_import_entity")

const templateColumnWidth = 20

// Template builds an XLSX file holding only the heading row for entity.
func Template(entity string) ([]byte, error) {
	d, ok := Lookup(entity)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := d.Entity
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("create heading style: %w", err)
	}

	for i, heading := range d.Headings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, heading); err != nil {
			return nil, fmt.Errorf("set heading %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return nil, err
		}
	}
	last, err := excelize.ColumnNumberToName(len(d.Headings))
	if err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "A", last, templateColumnWidth); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write template: %w", err)
	}
	return buf.Bytes(), nil
}
