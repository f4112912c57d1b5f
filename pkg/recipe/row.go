package recipe

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	apperrors "github.com/matzehuels/craftree/pkg/errors"
)

// NoParent is the Parent value of the root row.
const NoParent = -1

// Row is one line of a recipe listing: an item and the item it is an
// ingredient of.
type Row struct {
	ID     int    `json:"id"`
	Text   string `json:"text"`
	Parent int    `json:"parent"`
}

// IsRoot reports whether the row is the recipe's result.
func (r Row) IsRoot() bool { return r.Parent == NoParent }

// MarshalJSON encodes the row in the compact array form [id, text, parent]
// served by the item API.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.ID, r.Text, r.Parent})
}

// UnmarshalJSON accepts both [id, text, parent] and
// {"id": .., "text": .., "parent": ..}.
func (r *Row) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		type plain Row
		p := plain{Parent: NoParent}
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*r = Row(p)
		return nil
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 3 {
		return fmt.Errorf("row has %d fields, want 3", len(parts))
	}
	if err := json.Unmarshal(parts[0], &r.ID); err != nil {
		return fmt.Errorf("row id: %w", err)
	}
	if err := json.Unmarshal(parts[1], &r.Text); err != nil {
		return fmt.Errorf("row text: %w", err)
	}
	if err := json.Unmarshal(parts[2], &r.Parent); err != nil {
		return fmt.Errorf("row parent: %w", err)
	}
	return nil
}

// ReadRows decodes a JSON array of rows.
func ReadRows(r io.Reader) ([]Row, error) {
	var rows []Row
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "decode recipe rows")
	}
	return rows, nil
}

// ReadRowsFile decodes the rows stored at path.
func ReadRowsFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, err
	}
	defer f.Close()
	return ReadRows(f)
}

// WriteRows encodes rows as a JSON array in the compact form.
func WriteRows(w io.Writer, rows []Row) error {
	if rows == nil {
		rows = []Row{}
	}
	return json.NewEncoder(w).Encode(rows)
}
