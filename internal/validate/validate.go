// Package validate gates incoming files before they reach the merge.
//
// Checks run in a fixed order and stop at the first failure: charset decode,
// non-empty table, key column present, required columns present, no null key
// values. Encoding problems surface first because a mis-decoded file produces
// meaningless structural diagnostics.
package validate

import (
	"fmt"
	"os"
	"strings"

	"csvwatch/internal/faults"
	"csvwatch/internal/tabular"
)

// Validator loads and checks incoming tabular files.
type Validator struct {
	codec     *tabular.Codec
	keyColumn string
	required  []string
}

// New returns a validator for the given codec and column contract. The key
// column is implicitly required and need not appear in required.
func New(codec *tabular.Codec, keyColumn string, required []string) *Validator {
	return &Validator{codec: codec, keyColumn: keyColumn, required: required}
}

// Load reads, decodes, and validates the file at path, returning the parsed
// table only when every check passes.
func (v *Validator) Load(path string) (*tabular.File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, faults.Wrap(faults.ErrFileProcessing, "validate", "read", path, err)
	}
	if _, err := v.codec.Decode(raw); err != nil {
		return nil, faults.Wrap(faults.ErrFileProcessing, "validate", "decode", path, err)
	}

	file, err := v.codec.ReadFile(path)
	if err != nil {
		return nil, faults.Wrap(faults.ErrFileProcessing, "validate", "parse", path, err)
	}
	if err := v.Check(file); err != nil {
		return nil, err
	}
	return file, nil
}

// Check applies the structural checks to an already-loaded table.
func (v *Validator) Check(file *tabular.File) error {
	if file.Empty() {
		return faults.Wrap(faults.ErrValidation, "validate", "", fmt.Sprintf("empty table: %s", file.Name), nil)
	}
	if !file.HasColumn(v.keyColumn) {
		return faults.Wrap(faults.ErrValidation, "validate", "", fmt.Sprintf("%s: missing key column %q", file.Name, v.keyColumn), nil)
	}

	var missing []string
	for _, col := range v.required {
		if !file.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return faults.Wrap(faults.ErrValidation, "validate", "",
			fmt.Sprintf("%s: missing required columns: %s", file.Name, strings.Join(missing, ", ")), nil)
	}

	for i, row := range file.Rows {
		if row.IsNull(v.keyColumn) {
			return faults.Wrap(faults.ErrValidation, "validate", "",
				fmt.Sprintf("%s: null key value in row %d", file.Name, i+1), nil)
		}
	}
	return nil
}
