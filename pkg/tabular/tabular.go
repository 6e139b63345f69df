// Package tabular reads and writes in-flight tabular datasets. A Dataset is
// stringly typed: an ordered header row plus rows of cells. Column order is
// preserved through parse, transform and serialize.
package tabular

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// FormatForKey derives the dataset format from the object key's extension.
func FormatForKey(key string) (Format, error) {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported file type for key: %s", key)
	}
}

type Dataset struct {
	Headers []string
	Rows    [][]string
}

// AddColumn appends a column with the given header, values[i] going to row i.
func (d *Dataset) AddColumn(header string, values []string) {
	d.Headers = append(d.Headers, header)
	for i := range d.Rows {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		d.Rows[i] = append(d.Rows[i], v)
	}
}

// Parse decodes raw bytes in the given format.
func Parse(data []byte, format Format) (*Dataset, error) {
	switch format {
	case FormatCSV:
		return ParseCSV(bytes.NewReader(data))
	case FormatJSON:
		return ParseJSON(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Serialize encodes the dataset back to the given format.
func (d *Dataset) Serialize(format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return d.writeCSV()
	case FormatJSON:
		return d.writeJSON()
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// ParseCSV reads a header row followed by data rows. The csv reader already
// rejects rows whose field count differs from the header.
func ParseCSV(r io.Reader) (*Dataset, error) {
	csvReader := csv.NewReader(r)

	headers, err := csvReader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	ds := &Dataset{Headers: headers}
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		ds.Rows = append(ds.Rows, record)
	}

	return ds, nil
}

func (d *Dataset) writeCSV() ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(d.Headers); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range d.Rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseJSON reads an array of flat objects. Keys are collected in first-seen
// order via the token stream because map decoding would lose column order.
// Rows missing a column get an empty cell; non-scalar values keep their
// compact JSON text.
func ParseJSON(r io.Reader) (*Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	t, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	if t != json.Delim('[') {
		return nil, fmt.Errorf("json dataset must be an array of objects")
	}

	ds := &Dataset{}
	colIndex := map[string]int{}

	for dec.More() {
		cells := map[string]string{}

		t, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read json row: %w", err)
		}
		if t != json.Delim('{') {
			return nil, fmt.Errorf("json dataset rows must be objects")
		}

		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("read json key: %w", err)
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected json key token: %v", keyTok)
			}

			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return nil, fmt.Errorf("read json value for %q: %w", key, err)
			}

			if _, seen := colIndex[key]; !seen {
				colIndex[key] = len(ds.Headers)
				ds.Headers = append(ds.Headers, key)
			}
			cells[key] = rawToCell(raw)
		}

		// consume the closing '}'
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("read json row end: %w", err)
		}

		row := make([]string, len(ds.Headers))
		for k, v := range cells {
			row[colIndex[k]] = v
		}
		ds.Rows = append(ds.Rows, row)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read json array end: %w", err)
	}

	// earlier rows may be shorter than the final header set
	for i, row := range ds.Rows {
		for len(row) < len(ds.Headers) {
			row = append(row, "")
		}
		ds.Rows[i] = row
	}

	return ds, nil
}

func rawToCell(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return string(trimmed)
}

func (d *Dataset) writeJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')

	for i, row := range d.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, h := range d.Headers {
			if j > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(h)
			if err != nil {
				return nil, fmt.Errorf("encode json key: %w", err)
			}
			val, err := json.Marshal(cellAt(row, j))
			if err != nil {
				return nil, fmt.Errorf("encode json value: %w", err)
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
		buf.WriteByte('}')
	}

	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
