package warehouse

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSV errors.
var (
	ErrEmptyFile     = errors.New("csv file is empty")
	ErrMissingHeader = errors.New("csv file has no header row")
)

// csvReader reads rows keyed by normalized header. Headers are matched
// case-insensitively after trimming.
type csvReader struct {
	reader  *csv.Reader
	headers map[string]int
	line    int
}

// Row is one CSV record.
type Row struct {
	LineNumber int
	fields     []string
	headers    map[string]int
}

// Get returns the raw value for header and whether the header exists.
func (r *Row) Get(header string) (string, bool) {
	idx, ok := r.headers[normalizeHeader(header)]
	if !ok {
		return "", false
	}
	if idx >= len(r.fields) {
		return "", true
	}
	return r.fields[idx], true
}

func newCSVReader(r io.Reader) (*csvReader, error) {
	br := bufio.NewReader(r)

	// UTF-8 BOM: 0xEF, 0xBB, 0xBF
	head, err := br.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) == 0 {
		return nil, ErrEmptyFile
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	record, err := cr.Read()
	if err == io.EOF {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	headers := make(map[string]int, len(record))
	for i, h := range record {
		key := normalizeHeader(h)
		if key == "" {
			continue
		}
		if _, dup := headers[key]; !dup {
			headers[key] = i
		}
	}
	if len(headers) == 0 {
		return nil, ErrMissingHeader
	}

	return &csvReader{reader: cr, headers: headers, line: 1}, nil
}

// Next returns the next non-blank row or io.EOF.
func (c *csvReader) Next() (*Row, error) {
	for {
		record, err := c.reader.Read()
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("error reading record after line %d: %w", c.line, err)
		}
		c.line, _ = c.reader.FieldPos(0)
		if isBlankRecord(record) {
			continue
		}
		return &Row{LineNumber: c.line, fields: record, headers: c.headers}, nil
	}
}

// HasHeader reports whether the file declares header.
func (c *csvReader) HasHeader(header string) bool {
	_, ok := c.headers[normalizeHeader(header)]
	return ok
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
