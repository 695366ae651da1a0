package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Codec reads and writes tabular files with a configurable delimiter and
// charset. The zero value is not usable; construct with NewCodec.
type Codec struct {
	delimiter rune
	encName   string
	enc       encoding.Encoding
}

// NewCodec resolves the named charset and returns a codec for it.
func NewCodec(delimiter rune, encodingName string) (*Codec, error) {
	enc, err := htmlindex.Get(encodingName)
	if err != nil {
		return nil, fmt.Errorf("resolve encoding %q: %w", encodingName, err)
	}
	return &Codec{delimiter: delimiter, encName: encodingName, enc: enc}, nil
}

// Decode validates and transcodes raw bytes into UTF-8. For UTF-8 input the
// check is strict: any invalid sequence is an error rather than a
// replacement character.
func (c *Codec) Decode(raw []byte) ([]byte, error) {
	if c.enc == unicode.UTF8 {
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("invalid %s byte sequence", c.encName)
		}
		return raw, nil
	}
	decoded, _, err := transform.Bytes(c.enc.NewDecoder(), raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.encName, err)
	}
	return decoded, nil
}

// ReadFile loads a tabular file from disk. The first record is the header;
// short rows read as null cells for the trailing columns.
func (c *Codec) ReadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	decoded, err := c.Decode(raw)
	if err != nil {
		return nil, err
	}
	return c.parse(bytes.NewReader(decoded), filepath.Base(path))
}

func (c *Codec) parse(r io.Reader, name string) (*File, error) {
	reader := csv.NewReader(r)
	reader.Comma = c.delimiter
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if len(records) == 0 {
		return &File{Name: name}, nil
	}

	columns := append([]string(nil), records[0]...)
	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(Row, len(columns))
		for i, col := range columns {
			if i < len(record) && record[i] != "" {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return &File{Name: name, Columns: columns, Rows: rows}, nil
}

// Write serializes the file in the codec's charset. Cells missing from a row
// serialize as empty fields.
func (c *Codec) Write(w io.Writer, f *File) error {
	var out io.Writer = w
	var encoded *transform.Writer
	if c.enc != unicode.UTF8 {
		encoded = transform.NewWriter(w, c.enc.NewEncoder())
		out = encoded
	}

	writer := csv.NewWriter(out)
	writer.Comma = c.delimiter

	if err := writer.Write(f.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(f.Columns))
	for _, row := range f.Rows {
		for i, col := range f.Columns {
			record[i] = row[col]
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	if encoded != nil {
		return encoded.Close()
	}
	return nil
}
