package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Skotchmaster/repair_shop/internal/catalog/models"
)

const (
	SheetName   = "Price list"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var header = []string{"Product", "Brand", "Category", "Model", "Service", "Price", "Form"}

func FileName(now time.Time) string {
	return fmt.Sprintf("price_list_%s.xlsx", now.Format("20060102_150405"))
}

// PriceList writes one row per model service. Models without services get a
// single row with empty service columns.
func PriceList(w io.Writer, items []models.ProductModel) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 1}},
	})
	if err != nil {
		return err
	}
	priceStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return err
	}

	if err := sw.SetColWidth(1, 5, 30); err != nil {
		return err
	}

	head := make([]any, len(header))
	for i, h := range header {
		head[i] = excelize.Cell{StyleID: headerStyle, Value: h}
	}
	if err := sw.SetRow("A1", head); err != nil {
		return err
	}

	rowNum := 2
	for _, m := range items {
		var product, brand, category string
		if m.Product != nil {
			product, brand, category = m.Product.Name, m.Product.Brand, m.Product.Category
		}

		if len(m.Prices) == 0 {
			if err := setRow(sw, rowNum, []any{product, brand, category, m.Name}); err != nil {
				return err
			}
			rowNum++
			continue
		}

		for _, p := range m.Prices {
			row := []any{product, brand, category, m.Name, p.Name,
				excelize.Cell{StyleID: priceStyle, Value: p.Price}, p.Form}
			if err := setRow(sw, rowNum, row); err != nil {
				return err
			}
			rowNum++
		}
	}

	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

func setRow(sw *excelize.StreamWriter, n int, row []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	return sw.SetRow(cell, row)
}
