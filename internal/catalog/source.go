package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// ReadSource loads product records from a JSON file. The file may contain
// either a top-level list of records or an object with a "products" key.
func ReadSource(path string) ([]RawProduct, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}
	return parseSource(data)
}

func parseSource(data []byte) ([]RawProduct, error) {
	var records []RawProduct
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var wrapper struct {
		Products []RawProduct `json:"products"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to parse source file: %w", err)
	}
	return wrapper.Products, nil
}
