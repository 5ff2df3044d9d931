package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"bnshell/internal/domain"
)

// JSONCodec handles JSON import/export
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse reads a snapshot from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.NetworkSnapshot, error) {
	var snap domain.NetworkSnapshot
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if snap.Name == "" {
		return nil, fmt.Errorf("failed to parse JSON: snapshot has no network name")
	}

	return &snap, nil
}

// Export writes a snapshot as JSON
func (c *JSONCodec) Export(snap *domain.NetworkSnapshot, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}
