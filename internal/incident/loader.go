package incident

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
)

// LoadFile reads a corpus file: a JSON array of record objects.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, amerrors.New(amerrors.ErrCodeFileNotFound,
				fmt.Sprintf("corpus file not found: %s", path), err).
				WithDetail("path", path).
				WithSuggestion("Set data.path in .asrsmcp.yaml or pass --data.")
		}
		return nil, amerrors.IOError(fmt.Sprintf("failed to read corpus file: %s", path), err).
			WithDetail("path", path)
	}

	records, err := Decode(bytes.NewReader(data))
	if err != nil {
		if ae, ok := amerrors.As(err); ok {
			return nil, ae.WithDetail("path", path)
		}
		return nil, err
	}
	return NewStore(records), nil
}

// Decode parses a JSON array of record objects. Numbers are kept as
// json.Number so identifiers survive without float rounding.
func Decode(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, amerrors.New(amerrors.ErrCodeCorpusInvalid, "corpus is not valid JSON", err)
	}

	items, ok := raw.([]any)
	if !ok {
		return nil, amerrors.New(amerrors.ErrCodeCorpusInvalid,
			fmt.Sprintf("corpus must be a JSON array of records, got %s", jsonKind(raw)), nil)
	}
	if len(items) == 0 {
		return nil, amerrors.New(amerrors.ErrCodeCorpusEmpty, "corpus contains no records", nil)
	}

	records := make([]Record, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, amerrors.New(amerrors.ErrCodeCorpusInvalid,
				fmt.Sprintf("corpus element %d is %s, want object", i, jsonKind(item)), nil).
				WithDetail("index", fmt.Sprint(i))
		}
		records = append(records, Record(obj))
	}
	return records, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "an object"
	case []any:
		return "an array"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case json.Number, float64:
		return "a number"
	}
	return fmt.Sprintf("%T", v)
}
