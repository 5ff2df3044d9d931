// Package shell binds remote belief networks into a session namespace and runs the
// statements of the interactive shell against them.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"bnshell/internal/binding"
	"bnshell/internal/codec"
	"bnshell/internal/domain"
	"bnshell/internal/engine"
	"bnshell/internal/repository"
)

// DescriptionSuffix is the file suffix of network descriptions.
const DescriptionSuffix = ".riso"

// Session is one shell session: the engine context, the networks bound so far and the
// journal that records what was done to them.
type Session struct {
	id         string
	engine     engine.Context
	ns         *Namespace
	policy     binding.Policy
	journal    repository.Journal
	searchPath []string
	log        *slog.Logger
	closed     bool
}

// Option configures a Session.
type Option func(*Session)

// WithPolicy sets the caching policy of networks bound in the session.
func WithPolicy(p binding.Policy) Option {
	return func(s *Session) {
		s.policy = p
	}
}

// WithJournal records the session's imports and evidence operations.
func WithJournal(j repository.Journal) Option {
	return func(s *Session) {
		s.journal = j
	}
}

// WithSearchPath sets the directories searched by ImportFile after the working
// directory.
func WithSearchPath(dirs ...string) Option {
	return func(s *Session) {
		s.searchPath = append(s.searchPath, dirs...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// NewSession starts a session on ec. The session owns ec and the journal and closes
// both in Close.
func NewSession(ctx context.Context, ec engine.Context, opts ...Option) (*Session, error) {
	s := &Session{
		id:     uuid.NewString(),
		engine: ec,
		ns:     NewNamespace(),
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.journal != nil {
		if err := s.journal.BeginSession(ctx, s.id, ec.Name()); err != nil {
			return nil, fmt.Errorf("begin journal session: %w", err)
		}
	}
	s.log.Debug("session started", "session", s.id, "context", ec.Name(), "policy", s.policy.String())
	return s, nil
}

// ID returns the session id used in the journal.
func (s *Session) ID() string {
	return s.id
}

// Context returns the engine context.
func (s *Session) Context() engine.Context {
	return s.engine
}

// Namespace returns the session's bound networks.
func (s *Session) Namespace() *Namespace {
	return s.ns
}

// Policy returns the caching policy applied to bound networks.
func (s *Session) Policy() binding.Policy {
	return s.policy
}

// SetPolicy changes the caching policy of the session and of every bound network.
func (s *Session) SetPolicy(p binding.Policy) {
	s.policy = p
	for _, name := range s.ns.Names() {
		n, _ := s.ns.Get(name)
		n.SetPolicy(p)
	}
}

// ImportFile reads a description file and hands its whole text to the engine parser.
// Relative paths are looked up in the working directory and then in the search path;
// the description suffix may be left out.
func (s *Session) ImportFile(ctx context.Context, path string) (*binding.Network, error) {
	resolved, err := s.locate(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", resolved, err)
	}

	remote, err := s.engine.Parse(ctx, string(data))
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", resolved, err)
	}
	n, err := s.bind(ctx, remote)
	if err != nil {
		return nil, err
	}

	if abs, err := filepath.Abs(resolved); err == nil {
		resolved = abs
	}
	s.record(ctx, domain.JournalEntry{Kind: domain.EntryImportFile, Network: n.Name(), Source: resolved})
	return n, nil
}

// ImportDescription hands a description text to the engine parser.
func (s *Session) ImportDescription(ctx context.Context, description string) (*binding.Network, error) {
	remote, err := s.engine.Parse(ctx, description)
	if err != nil {
		return nil, err
	}
	n, err := s.bind(ctx, remote)
	if err != nil {
		return nil, err
	}
	s.record(ctx, domain.JournalEntry{Kind: domain.EntryImportDescription, Network: n.Name(), Source: description})
	return n, nil
}

// ImportRemote looks a network up by name through the naming service.
func (s *Session) ImportRemote(ctx context.Context, name string) (*binding.Network, error) {
	remote, err := s.engine.Lookup(ctx, name)
	if err != nil {
		return nil, err
	}
	n, err := s.bind(ctx, remote)
	if err != nil {
		return nil, err
	}
	s.record(ctx, domain.JournalEntry{Kind: domain.EntryImportRemote, Network: n.Name(), Source: name})
	return n, nil
}

// ImportReference binds a network the caller already holds a reference to.
func (s *Session) ImportReference(ctx context.Context, remote engine.Network) (*binding.Network, error) {
	n, err := s.bind(ctx, remote)
	if err != nil {
		return nil, err
	}
	s.record(ctx, domain.JournalEntry{Kind: domain.EntryImportReference, Network: n.Name()})
	return n, nil
}

// Assign sets a field of n. For variables this assigns evidence, or clears it when
// value is nil, and the operation is journaled.
func (s *Session) Assign(ctx context.Context, n *binding.Network, field string, value any) error {
	if err := n.SetField(ctx, field, value); err != nil {
		return err
	}
	if _, ok := n.Variable(field); !ok {
		return nil
	}

	entry := domain.JournalEntry{Kind: domain.EntryEvidence, Network: n.Name(), Variable: field, Value: value}
	if value == nil {
		entry.Kind = domain.EntryClearEvidence
	}
	s.record(ctx, entry)
	return nil
}

// AssignIndex assigns evidence to the i-th variable of n.
func (s *Session) AssignIndex(ctx context.Context, n *binding.Network, i int, value any) error {
	v, err := n.Nodes().At(i)
	if err != nil {
		return err
	}
	return s.Assign(ctx, n, v.Name(), value)
}

// ClearAll removes the evidence of every variable of n.
func (s *Session) ClearAll(ctx context.Context, n *binding.Network) error {
	if err := n.ClearAllEvidence(ctx); err != nil {
		return err
	}
	s.record(ctx, domain.JournalEntry{Kind: domain.EntryClearAll, Network: n.Name()})
	return nil
}

// Export writes a snapshot of n in the named format.
func (s *Session) Export(ctx context.Context, n *binding.Network, format string, w io.Writer) error {
	exporter, err := codec.ExporterFor(format)
	if err != nil {
		return err
	}
	snap, err := n.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", n.Name(), err)
	}
	return exporter.Export(snap, w)
}

// Apply assigns the evidence recorded in snap to n and returns how many variables
// were assigned. Variables without evidence are left alone.
func (s *Session) Apply(ctx context.Context, n *binding.Network, snap *domain.NetworkSnapshot) (int, error) {
	if snap.Name != "" && snap.Name != n.Name() {
		s.log.Warn("applying evidence from another network", "snapshot", snap.Name, "network", n.Name())
	}

	applied := 0
	for _, vs := range snap.Variables {
		if vs.Evidence == nil {
			continue
		}
		if _, ok := n.Variable(vs.Name); !ok {
			return applied, fmt.Errorf("%s: %q: %w", n.Name(), vs.Name, domain.ErrNotFoundInOwner)
		}
		if err := s.Assign(ctx, n, vs.Name, vs.Evidence); err != nil {
			return applied, fmt.Errorf("assign %s.%s: %w", n.Name(), vs.Name, err)
		}
		applied++
	}
	return applied, nil
}

// ApplyFile reads a JSON or YAML snapshot and applies its evidence to n.
func (s *Session) ApplyFile(ctx context.Context, n *binding.Network, path string) (int, error) {
	importer, err := codec.ImporterFor(codec.FormatFromPath(path))
	if err != nil {
		return 0, err
	}
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	snap, err := importer.Parse(f)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	return s.Apply(ctx, n, snap)
}

// Replay re-applies journal entries in order and returns how many were applied.
// Imports by reference cannot be resolved again and are skipped.
func (s *Session) Replay(ctx context.Context, entries []domain.JournalEntry) (int, error) {
	applied := 0
	for _, e := range entries {
		if err := s.replayEntry(ctx, e); err != nil {
			return applied, fmt.Errorf("replay entry %d (%s %s): %w", e.Seq, e.Kind, e.Network, err)
		}
		if e.Kind.Replayable() {
			applied++
		}
	}
	return applied, nil
}

func (s *Session) replayEntry(ctx context.Context, e domain.JournalEntry) error {
	var err error
	switch e.Kind {
	case domain.EntryImportFile:
		_, err = s.ImportFile(ctx, e.Source)
	case domain.EntryImportDescription:
		_, err = s.ImportDescription(ctx, e.Source)
	case domain.EntryImportRemote:
		_, err = s.ImportRemote(ctx, e.Source)
	case domain.EntryImportReference:
		s.log.Warn("skipping import by reference", "network", e.Network, "seq", e.Seq)
	case domain.EntryEvidence, domain.EntryClearEvidence, domain.EntryClearAll:
		n, ok := s.ns.Get(e.Network)
		if !ok {
			return fmt.Errorf("network %s is not bound", e.Network)
		}
		switch e.Kind {
		case domain.EntryEvidence:
			err = s.Assign(ctx, n, e.Variable, e.Value)
		case domain.EntryClearEvidence:
			err = s.Assign(ctx, n, e.Variable, nil)
		default:
			err = s.ClearAll(ctx, n)
		}
	default:
		return fmt.Errorf("unknown entry kind %q", e.Kind)
	}
	return err
}

// Close releases the engine context and the journal. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if err := s.engine.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close engine context: %w", err))
	}
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close journal: %w", err))
		}
	}
	s.log.Debug("session closed", "session", s.id)
	return errors.Join(errs...)
}

func (s *Session) bind(ctx context.Context, remote engine.Network) (*binding.Network, error) {
	n, err := binding.NewNetwork(ctx, remote, binding.WithPolicy(s.policy), binding.WithLogger(s.log))
	if err != nil {
		return nil, err
	}
	if s.ns.Bind(n) {
		s.log.Info("network rebound", "network", n.Name())
	}
	return n, nil
}

// locate finds a description file, trying the suffix when path has none.
func (s *Session) locate(path string) (string, error) {
	names := []string{path}
	if !strings.HasSuffix(path, DescriptionSuffix) {
		names = append(names, path+DescriptionSuffix)
	}

	dirs := []string{""}
	if !filepath.IsAbs(path) {
		dirs = append(dirs, s.searchPath...)
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := name
			if dir != "" {
				candidate = filepath.Join(dir, name)
			}
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("%s: not found in working directory or search path: %w", path, os.ErrNotExist)
}

// record appends an entry to the journal. A failing journal does not fail the
// operation it records.
func (s *Session) record(ctx context.Context, entry domain.JournalEntry) {
	if s.journal == nil {
		return
	}
	entry.SessionID = s.id
	if err := s.journal.Record(ctx, &entry); err != nil {
		s.log.Warn("journal record failed", "kind", entry.Kind, "network", entry.Network, "error", err)
	}
}
