package panel

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// SaveXLSX writes the panel to a single-sheet workbook.
func SaveXLSX(p *Panel, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Panel"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for c, name := range Columns {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for r, o := range p.Observations {
		values := []interface{}{
			o.Date.Format(DateLayout),
			o.Manufacturer,
			string(o.Category),
			string(o.Region),
			o.ProductionVolume,
			o.AveragePrice,
			o.GDPGrowth,
			o.SteelPrice,
			o.OilPrice,
			o.InterestRate,
			o.USTariffRate,
			o.USEVSubsidy,
			o.EVShare,
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	if err := f.SetColWidth(sheet, "A", "D", 18); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
