package enrichr

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"biotriage/internal/errors"
	"biotriage/ports"
)

// CSVReader parses CSV and TSV enrichment exports. The delimiter is sniffed
// from the header line so Enrichr's tab-separated downloads and plain CSV
// both work without a format flag.
type CSVReader struct{}

// NewCSVReader creates a CSVReader.
func NewCSVReader() *CSVReader {
	return &CSVReader{}
}

// ReadTable parses the export into a raw table. Rows with a different field
// count than the header are kept as-is; the normalizer decides usability.
func (cr *CSVReader) ReadTable(r io.Reader) (*ports.RawTable, error) {
	buf := bufio.NewReader(r)

	headerLine, err := peekLine(buf)
	if err != nil {
		return nil, errors.MalformedInput("could not read header line")
	}

	reader := csv.NewReader(buf)
	reader.Comma = sniffDelimiter(headerLine)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.MalformedInputf("parse failed: %v", err), "reading enrichment table")
	}
	if len(records) == 0 {
		return nil, errors.EmptyDataset("enrichment table has no rows")
	}

	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	return &ports.RawTable{
		Headers: headers,
		Rows:    records[1:],
	}, nil
}

// peekLine returns the first line without consuming it.
func peekLine(buf *bufio.Reader) ([]byte, error) {
	for n := 256; n <= 64*1024; n *= 2 {
		peeked, err := buf.Peek(n)
		if idx := bytes.IndexByte(peeked, '\n'); idx >= 0 {
			return peeked[:idx], nil
		}
		if err != nil {
			if err == io.EOF && len(peeked) > 0 {
				return peeked, nil
			}
			return nil, err
		}
	}
	return nil, errors.MalformedInput("header line exceeds 64KB")
}

// sniffDelimiter picks tab when the header contains tabs, otherwise comma.
func sniffDelimiter(headerLine []byte) rune {
	if bytes.ContainsRune(headerLine, '\t') {
		return '\t'
	}
	return ','
}
