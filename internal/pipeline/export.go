package pipeline

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/landpermit-cli/internal/model"
)

// utf8BOM lets spreadsheet applications detect UTF-8 in the CSV exports.
const utf8BOM = "\uFEFF"

// exportColumns are the CSV and workbook headers.
var exportColumns = append(append([]string{}, DetailColumns...), "동", "구")

func exportRow(r model.PermitRecord) []string {
	return append(detailRow(r), r.NeighborhoodName, r.DistrictName)
}

// ExportCSV writes records to path as UTF-8 CSV with a byte-order mark.
func ExportCSV(records []model.PermitRecord, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create csv")
	}
	defer f.Close() //nolint:errcheck

	if _, err := f.WriteString(utf8BOM); err != nil {
		return eris.Wrap(err, "export: write bom")
	}

	w := csv.NewWriter(f)
	if err := w.Write(exportColumns); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, r := range records {
		if err := w.Write(exportRow(r)); err != nil {
			return eris.Wrap(err, "export: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return f.Close()
}

// ExportXLSX writes a workbook with a Permits sheet holding every record and
// a Summary sheet holding per-building counts.
func ExportXLSX(records []model.PermitRecord, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	file := xlsx.NewFile()

	permits, err := file.AddSheet("Permits")
	if err != nil {
		return eris.Wrap(err, "export: add permits sheet")
	}
	writeStringRow(permits, exportColumns)
	for _, r := range records {
		writeStringRow(permits, exportRow(r))
	}

	summary, err := file.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}
	writeStringRow(summary, []string{"구", "동", "아파트명", "건수"})
	for _, district := range districtOrder(records) {
		for _, c := range CountByBuilding(FilterByDistrict(records, district)) {
			row := summary.AddRow()
			row.AddCell().SetString(district)
			row.AddCell().SetString(c.Neighborhood)
			row.AddCell().SetString(c.Apartment)
			row.AddCell().SetInt(c.Count)
		}
	}

	if err := file.Save(path); err != nil {
		return eris.Wrap(err, "export: save xlsx")
	}
	return nil
}

func writeStringRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

// districtOrder lists district names in first-appearance order.
func districtOrder(records []model.PermitRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if !seen[r.DistrictName] {
			seen[r.DistrictName] = true
			out = append(out, r.DistrictName)
		}
	}
	return out
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "export: create output dir")
	}
	return nil
}
