package attestation

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the MIME type of exported workbooks.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeader = []string{
	"Attested At (UTC)", "Attestor Name", "Attestor Email", "Organization",
	"Patent Reference", "Statement", "Signature", "Acknowledged", "IP Address", "User Agent",
}

var exportColumnWidths = []float64{22, 24, 30, 28, 22, 60, 24, 14, 18, 40}

type sheet struct {
	group *Group
	rows  []*Attestation
}

func buildWorkbook(sheets []sheet) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	used := make(map[string]bool)
	for i, sh := range sheets {
		name := sheetName(sh.group.Name, used)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, sh.rows, headerStyle); err != nil {
			return nil, err
		}
	}
	if len(sheets) == 0 {
		if err := writeSheet(f, "Sheet1", nil, headerStyle); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, name string, rows []*Attestation, headerStyle int) error {
	for col, header := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(name, cell, header); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
	}
	last, _ := excelize.ColumnNumberToName(len(exportHeader))
	if err := f.SetCellStyle(name, "A1", last+"1", headerStyle); err != nil {
		return fmt.Errorf("set header style: %w", err)
	}
	for i, w := range exportColumnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(name, col, col, w); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	for i, a := range rows {
		ack := "No"
		if a.Acknowledged {
			ack = "Yes"
		}
		values := []interface{}{
			a.AttestedAt.UTC().Format("2006-01-02 15:04:05"),
			a.AttestorName, a.AttestorEmail, a.Organization, a.PatentReference,
			a.Statement, a.Signature, ack, a.IPAddress, a.UserAgent,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// sheetName makes a group name usable as a unique worksheet name: at most 31
// characters and none of []:*?/\.
func sheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	clean = strings.Trim(clean, "'")
	if clean == "" {
		clean = "Group"
	}
	clean = truncate(clean, 31)
	candidate := clean
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := " (" + strconv.Itoa(n) + ")"
		candidate = truncate(clean, 31-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}
