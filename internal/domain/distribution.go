package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Distribution is a distribution computed by the engine.
type Distribution struct {
	Class       string          `json:"class"`
	Description string          `json:"description,omitempty"`
	Params      json.RawMessage `json:"params,omitempty"`
}

// String returns the engine's rendering, or the class name if the engine sent none.
func (d *Distribution) String() string {
	if d == nil {
		return "<not computed>"
	}
	if d.Description != "" {
		return strings.TrimRight(d.Description, "\n")
	}
	if d.Class != "" {
		return d.Class
	}
	return "<empty distribution>"
}

// Messages is an ordered list of pi- or lambda-messages. Entries for messages the engine
// has not computed yet are nil.
type Messages []*Distribution

// Computed returns the number of non-nil messages.
func (m Messages) Computed() int {
	n := 0
	for _, d := range m {
		if d != nil {
			n++
		}
	}
	return n
}

// String renders one message per line, prefixed by its index.
func (m Messages) String() string {
	if len(m) == 0 {
		return "[]"
	}
	var sb strings.Builder
	for i, d := range m {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "[%d] %s", i, d.String())
	}
	return sb.String()
}
