package ports

import "io"

// RawTable is an enrichment export in raw tabular form, before any column
// mapping or type coercion.
type RawTable struct {
	Headers []string
	Rows    [][]string
}

// TableReaderPort parses an uploaded enrichment export into a RawTable.
// Implementations exist for CSV/TSV and XLSX.
type TableReaderPort interface {
	ReadTable(r io.Reader) (*RawTable, error)
}
