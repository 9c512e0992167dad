package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/m3rciful/contentbot/bot/instagram"
)

var workbookHeader = []string{"#", "Title", "Views", "Likes", "Comments", "ER %", "Posted", "Link"}

// Workbook renders a summary into an xlsx file and returns its bytes.
func Workbook(s Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("report: header style: %w", err)
	}

	for col, name := range workbookHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, fmt.Errorf("report: header cell: %w", err)
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "H1", headerStyle); err != nil {
		return nil, fmt.Errorf("report: header style apply: %w", err)
	}

	for i, r := range s.Reels {
		row := i + 2
		values := []any{
			i + 1,
			title(r),
			r.Views,
			r.Likes,
			r.Comments,
			fmt.Sprintf("%.2f", r.ER*100),
			r.PostDate.Format("2006-01-02"),
			r.Link(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("report: row %d: %w", row, err)
			}
		}
	}

	_ = f.SetColWidth(sheet, "B", "B", 40)
	_ = f.SetColWidth(sheet, "C", "G", 12)
	_ = f.SetColWidth(sheet, "H", "H", 44)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("report: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Filename builds the attachment name for a summary workbook.
func Filename(s Summary) string {
	return fmt.Sprintf("report_%s.xlsx", s.Subject)
}

func title(r instagram.Reel) string {
	if r.Title != "" {
		return r.Title
	}
	const maxCaption = 80
	caption := []rune(r.Caption)
	if len(caption) > maxCaption {
		return string(caption[:maxCaption]) + "…"
	}
	return r.Caption
}
