package domain

import "time"

// EntryKind identifies what a journal entry records.
type EntryKind string

const (
	EntryImportFile        EntryKind = "import_file"
	EntryImportDescription EntryKind = "import_description"
	EntryImportRemote      EntryKind = "import_remote"
	EntryImportReference   EntryKind = "import_reference"
	EntryEvidence          EntryKind = "evidence"
	EntryClearEvidence     EntryKind = "clear_evidence"
	EntryClearAll          EntryKind = "clear_all"
)

// IsImport reports whether the entry binds a network.
func (k EntryKind) IsImport() bool {
	switch k {
	case EntryImportFile, EntryImportDescription, EntryImportRemote, EntryImportReference:
		return true
	}
	return false
}

// Replayable reports whether the entry can be re-applied in a new session. Imports by
// reference carry no source that a new session could resolve.
func (k EntryKind) Replayable() bool {
	return k != EntryImportReference
}

// JournalEntry is one recorded shell operation.
type JournalEntry struct {
	Seq       int64     `json:"seq"`
	SessionID string    `json:"session_id"`
	Kind      EntryKind `json:"kind"`
	Network   string    `json:"network"`
	Variable  string    `json:"variable,omitempty"`
	Source    string    `json:"source,omitempty"`
	Value     any       `json:"value,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionSummary describes a recorded session.
type SessionSummary struct {
	ID        string    `json:"id"`
	Context   string    `json:"context"`
	StartedAt time.Time `json:"started_at"`
	Entries   int       `json:"entries"`
}
