package knowledge

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Format is a supported tabular encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const emptyHeader = "__EMPTY"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectFormat picks a format from the file extension, falling back to the
// content type.
func DetectFormat(name, contentType string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "spreadsheetml"):
		return FormatXLSX, nil
	case strings.Contains(ct, "csv"):
		return FormatCSV, nil
	case strings.Contains(ct, "json"):
		return FormatJSON, nil
	case strings.Contains(ct, "yaml"):
		return FormatYAML, nil
	}

	return "", &LoadError{Source: name, Err: ErrUnsupportedFormat}
}

// Parse reads raw rows from r. Every failure is reported as a *LoadError.
func Parse(format Format, source string, r io.Reader) ([]Row, error) {
	var (
		rows []Row
		err  error
	)

	switch format {
	case FormatXLSX:
		rows, err = parseXLSX(r)
	case FormatCSV:
		rows, err = parseCSV(r)
	case FormatJSON:
		rows, err = parseJSON(r)
	case FormatYAML:
		rows, err = parseYAML(r)
	default:
		err = ErrUnsupportedFormat
	}

	if err != nil {
		return nil, &LoadError{Source: source, Format: format, Err: err}
	}
	return rows, nil
}

// ParseFile detects the format from name and parses data.
func ParseFile(name, contentType string, data []byte) ([]Row, error) {
	format, err := DetectFormat(name, contentType)
	if err != nil {
		return nil, err
	}
	return Parse(format, name, bytes.NewReader(data))
}

func parseXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return tabulate(records), nil
}

func parseCSV(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	return tabulate(records), nil
}

// tabulate turns a header row plus records into rows. Blank records are
// skipped and empty cells are left out of their row.
func tabulate(records [][]string) []Row {
	if len(records) == 0 {
		return []Row{}
	}

	headers := uniqueHeaders(records[0])
	rows := make([]Row, 0, len(records)-1)

	for _, record := range records[1:] {
		var row Row
		for i, value := range record {
			if value == "" {
				continue
			}
			header := columnHeader(headers, i)
			row = append(row, Cell{Header: header, Value: value})
		}
		if len(row) == 0 {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

func columnHeader(headers []string, i int) string {
	if i < len(headers) {
		return headers[i]
	}
	// Cells past the header row still need a stable name.
	return emptyHeader + "_" + strconv.Itoa(i)
}

// uniqueHeaders names blank headers __EMPTY, __EMPTY_1, ... and suffixes
// repeated ones with _1, _2, ...
func uniqueHeaders(raw []string) []string {
	out := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	suffix := make(map[string]int, len(raw))

	for i, h := range raw {
		name := h
		if strings.TrimSpace(name) == "" {
			name = emptyHeader
		}
		candidate := name
		for used[candidate] {
			suffix[name]++
			candidate = name + "_" + strconv.Itoa(suffix[name])
		}
		used[candidate] = true
		out[i] = candidate
	}
	return out
}

// parseJSON reads an array of objects token by token so that object keys
// keep their document order.
func parseJSON(r io.Reader) ([]Row, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return []Row{}, nil
	}
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return nil, fmt.Errorf("expected a list of rows, got %v", tok)
	}

	rows := []Row{}
	for i := 0; dec.More(); i++ {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); !ok || d != '{' {
			return nil, fmt.Errorf("row %d: expected an object, got %v", i, tok)
		}

		row := Row{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, _ := keyTok.(string)

			var value any
			if err := dec.Decode(&value); err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, key, err)
			}
			row = append(row, Cell{Header: key, Value: value})
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return rows, nil
}

// parseYAML reads a sequence of mappings. Decoding goes through yaml nodes
// so mapping keys keep their document order.
func parseYAML(r io.Reader) ([]Row, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return []Row{}, nil
		}
		return nil, err
	}

	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return []Row{}, nil
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a list of rows, got %s", nodeKind(root))
	}

	rows := make([]Row, 0, len(root.Content))
	for i, item := range root.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("row %d: expected a mapping, got %s", i, nodeKind(item))
		}

		row := make(Row, 0, len(item.Content)/2)
		for j := 0; j+1 < len(item.Content); j += 2 {
			key, val := item.Content[j], item.Content[j+1]

			var value any
			if err := val.Decode(&value); err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, key.Value, err)
			}
			row = append(row, Cell{Header: key.Value, Value: value})
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "document"
	}
}
