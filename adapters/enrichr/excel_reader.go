package enrichr

import (
	"io"

	"github.com/xuri/excelize/v2"

	"biotriage/internal/errors"
	"biotriage/ports"
)

// ExcelReader parses XLSX enrichment exports. Only the first sheet is read;
// Enrichr and most pipeline exports put the table there.
type ExcelReader struct{}

// NewExcelReader creates an ExcelReader.
func NewExcelReader() *ExcelReader {
	return &ExcelReader{}
}

func (er *ExcelReader) ReadTable(r io.Reader) (*ports.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(errors.MalformedInputf("not a readable XLSX file: %v", err), "opening workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.EmptyDataset("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, "reading first sheet")
	}
	if len(rows) == 0 {
		return nil, errors.EmptyDataset("first sheet is empty")
	}

	return &ports.RawTable{
		Headers: rows[0],
		Rows:    rows[1:],
	}, nil
}
