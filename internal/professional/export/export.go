// Package export renders profile listings as XLSX workbooks.
package export

import (
	"fmt"

	"github.com/gartstein/professionals/internal/professional/views"
	"github.com/xuri/excelize/v2"
)

const (
	Sheet       = "Professionals"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	Filename    = "professionals.xlsx"
)

var baseHeaders = []string{"ID", "Full Name", "Email", "Phone", "Company", "Job Title", "Source", "Created At"}

// ProfilesXLSX returns a workbook with one row per profile, in the given
// order. Resume columns are added when includeResume is set.
func ProfilesXLSX(profiles []views.ProfileView, includeResume bool) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", Sheet); err != nil {
		return nil, err
	}

	headers := baseHeaders
	if includeResume {
		headers = append(append([]string{}, baseHeaders...), "Resume URL", "Resume Summary")
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(Sheet, cell, h)
	}

	for i, p := range profiles {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(Sheet, cell, v)
		}

		write(1, p.ID)
		write(2, p.FullName)
		write(3, deref(p.Email))
		write(4, deref(p.Phone))
		write(5, p.CompanyName)
		write(6, p.JobTitle)
		write(7, p.Source)
		write(8, p.CreatedAt.UTC().Format("2006-01-02 15:04:05"))
		if includeResume {
			write(9, deref(p.ResumeURL))
			write(10, deref(p.ResumeSummary))
		}
	}

	_ = f.SetColWidth(Sheet, "B", "C", 28)
	_ = f.SetColWidth(Sheet, "E", "F", 24)
	_ = f.SetColWidth(Sheet, "H", "H", 20)
	if includeResume {
		_ = f.SetColWidth(Sheet, "I", "J", 60)
	}
	_ = f.SetPanes(Sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
