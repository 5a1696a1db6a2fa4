// Package core ties the record store, query engine, column projection and
// view shaping into a single session that front ends drive.
package core

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/jsonlv/internal/cel"
	"github.com/oakwood-commons/jsonlv/pkg/clipboard"
	"github.com/oakwood-commons/jsonlv/pkg/loader"
	"github.com/oakwood-commons/jsonlv/pkg/logger"
	"github.com/oakwood-commons/jsonlv/pkg/prefs"
	"github.com/oakwood-commons/jsonlv/pkg/projection"
	"github.com/oakwood-commons/jsonlv/pkg/query"
	"github.com/oakwood-commons/jsonlv/pkg/record"
	"github.com/oakwood-commons/jsonlv/pkg/store"
	"github.com/oakwood-commons/jsonlv/pkg/view"
)

// Stats describes the current dataset.
type Stats struct {
	Total    int
	Filtered int
	Skipped  int
	// SizeLabel is the human-readable source size; empty for pasted text.
	SizeLabel   string
	Source      string
	IngestionID string
}

// Session is the viewer state. It is not safe for concurrent use; front
// ends call it from a single event loop.
type Session struct {
	store   *store.Store
	query   *query.Engine
	columns *projection.Set
	active  *query.Result
	mode    view.Mode

	prefs         prefs.Store
	theme         prefs.Theme
	themeOverride prefs.Theme

	maxDepth int
	log      logr.Logger
	stats    Stats
	skipped  []*record.LineParseError
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(lgr logr.Logger) Option {
	return func(s *Session) {
		s.log = lgr
	}
}

// WithMaxDepth bounds record nesting during ingestion.
func WithMaxDepth(depth int) Option {
	return func(s *Session) {
		if depth > 0 {
			s.maxDepth = depth
		}
	}
}

// WithPrefs sets where the theme preference is loaded from and saved to.
func WithPrefs(p prefs.Store) Option {
	return func(s *Session) {
		s.prefs = p
	}
}

// WithTheme starts the session in t instead of the saved theme. Nothing is
// saved until the theme is changed.
func WithTheme(t prefs.Theme) Option {
	return func(s *Session) {
		s.themeOverride = t
	}
}

// WithMode sets the initial view mode.
func WithMode(m view.Mode) Option {
	return func(s *Session) {
		s.mode = m
	}
}

// New creates an empty session.
func New(opts ...Option) (*Session, error) {
	s := &Session{
		columns:  projection.New(),
		mode:     view.ModeTable,
		maxDepth: record.DefaultMaxDepth,
		log:      *logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	ev, err := cel.NewEvaluator()
	if err != nil {
		return nil, fmt.Errorf("creating expression evaluator: %w", err)
	}
	s.store = store.New(store.WithLogger(s.log), store.WithMaxDepth(s.maxDepth))
	s.query = query.NewEngine(query.WithLogger(s.log), query.WithEvaluator(ev))
	s.theme = prefs.LoadTheme(s.prefs)
	if s.themeOverride != "" {
		s.theme = s.themeOverride
	}
	s.refresh()
	return s, nil
}

// IngestText loads pasted text. Whitespace-only text is rejected and leaves
// the session untouched.
func (s *Session) IngestText(text string) (Stats, error) {
	return s.Ingest(loader.ReadText(text))
}

// IngestFile reads and loads the named file. Read failures leave the
// session untouched.
func (s *Session) IngestFile(path string) (Stats, error) {
	src, err := loader.ReadFile(path)
	if err != nil {
		return s.stats, &IngestionIOError{Source: path, Err: err}
	}
	return s.Ingest(src)
}

// IngestReader reads r to completion and loads it. name selects the
// decompression codec and is reported in Stats.
func (s *Session) IngestReader(name string, r io.Reader) (Stats, error) {
	src, err := loader.Read(name, r)
	if err != nil {
		source := name
		if source == "" || source == loader.StdinName {
			source = "stdin"
		}
		return s.stats, &IngestionIOError{Source: source, Err: err}
	}
	return s.Ingest(src)
}

// Ingest replaces the dataset with the records in src. Lines that are not
// valid JSON are skipped and reported in Stats and Skipped.
func (s *Session) Ingest(src loader.Source) (Stats, error) {
	if strings.TrimSpace(src.Text) == "" {
		return s.stats, ErrEmptyInput
	}
	log, id := logger.ForIngestion(s.log, src.Name)
	s.store = store.New(store.WithLogger(log), store.WithMaxDepth(s.maxDepth))
	res := s.store.Load(src.Text)

	s.columns.Reset(s.store.KeyPaths())
	if key := s.query.Criteria().Key; key != "" && !s.store.HasKeyPath(key) {
		s.query.SetKey("")
	}
	s.skipped = res.Skipped
	s.stats = Stats{
		Total:       res.Records,
		Skipped:     len(res.Skipped),
		SizeLabel:   src.SizeLabel(),
		Source:      src.Name,
		IngestionID: id,
	}
	s.refresh()
	log.V(1).Info("ingested records", "records", res.Records, "skipped", len(res.Skipped))
	return s.stats, nil
}

// Clear empties the dataset and resets every criterion and the view mode.
func (s *Session) Clear() {
	s.store.Clear()
	s.columns.Clear()
	s.query.Reset()
	s.mode = view.ModeTable
	s.skipped = nil
	s.stats = Stats{}
	s.refresh()
}

// refresh recomputes the active view set from scratch.
func (s *Session) refresh() {
	s.active = s.query.Evaluate(s.store.Records())
	s.stats.Total = s.store.Len()
	s.stats.Filtered = s.active.Len()
}

// Stats returns counts for the current dataset and view.
func (s *Session) Stats() Stats {
	return s.stats
}

// Skipped returns the lines skipped by the last ingestion.
func (s *Session) Skipped() []*record.LineParseError {
	return s.skipped
}

// SetSearch replaces the free-text query.
func (s *Session) SetSearch(q string) {
	s.query.SetSearch(q)
	s.refresh()
}

// SetKeyFilter keeps only records that have path. The empty path disables
// the filter.
func (s *Session) SetKeyFilter(path string) {
	s.query.SetKey(path)
	s.refresh()
}

// SetExpression installs a CEL predicate over each record, bound as "_".
// On error the previous expression stays active.
func (s *Session) SetExpression(expr string) error {
	if err := s.query.SetExpression(expr); err != nil {
		return err
	}
	s.refresh()
	return nil
}

// UnknownExpressionPaths returns the key paths the expression selects that
// no record has, neither as a key path nor as a prefix of one.
func (s *Session) UnknownExpressionPaths() []string {
	var out []string
	known := s.store.KeyPaths()
	for _, p := range s.query.ExpressionPaths() {
		if !hasPathOrPrefix(known, p) {
			out = append(out, p)
		}
	}
	return out
}

func hasPathOrPrefix(paths []string, p string) bool {
	for _, k := range paths {
		if k == p || strings.HasPrefix(k, p+".") {
			return true
		}
	}
	return false
}

// Criteria returns the active search, key filter and expression.
func (s *Session) Criteria() query.Criteria {
	return s.query.Criteria()
}

// FilterOptions lists the key paths the key filter can select, sorted.
func (s *Session) FilterOptions() []string {
	return s.store.KeyPaths()
}

// Mode returns the current view mode.
func (s *Session) Mode() view.Mode {
	return s.mode
}

// SetMode switches the view mode.
func (s *Session) SetMode(m view.Mode) error {
	parsed, err := view.ParseMode(string(m))
	if err != nil {
		return err
	}
	s.mode = parsed
	return nil
}

// Columns exposes the column projection.
func (s *Session) Columns() *projection.Set {
	return s.columns
}

// SetColumnVisible shows or hides a column.
func (s *Session) SetColumnVisible(path string, visible bool) error {
	return s.columns.SetVisible(path, visible)
}

// ToggleColumn flips a column's visibility and returns the new state.
func (s *Session) ToggleColumn(path string) (bool, error) {
	return s.columns.Toggle(path)
}

// SetAllColumnsVisible shows or hides every column.
func (s *Session) SetAllColumnsVisible(visible bool) {
	s.columns.SetAllVisible(visible)
}

// ShowOnlyColumns makes exactly paths visible. Unknown paths are rejected
// before anything changes.
func (s *Session) ShowOnlyColumns(paths []string) error {
	for _, p := range paths {
		if !s.store.HasKeyPath(p) {
			return fmt.Errorf("%w: %s", projection.ErrUnknownPath, p)
		}
	}
	s.columns.SetAllVisible(false)
	for _, p := range paths {
		_ = s.columns.SetVisible(p, true)
	}
	return nil
}

// ActiveRecords returns the active view set in ingestion order.
func (s *Session) ActiveRecords() []view.Entry {
	idx := s.active.Indices()
	out := make([]view.Entry, len(idx))
	for i, n := range idx {
		out[i] = view.Entry{Index: n, Record: s.store.At(n)}
	}
	return out
}

// Render shapes the active view set for the current mode.
func (s *Session) Render() view.Output {
	return view.Render(s.mode, s.ActiveRecords(), s.columns.VisiblePaths())
}

// ExportJSON serializes the active view set as indented JSON.
func (s *Session) ExportJSON() ([]byte, error) {
	entries := s.ActiveRecords()
	if len(entries) == 0 {
		return nil, ErrNoData
	}
	return []byte(view.BuildRaw(entries)), nil
}

// Export writes the active view set to w as indented JSON.
func (s *Session) Export(w io.Writer) error {
	data, err := s.ExportJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// RecordJSON returns the indented JSON of the record at position i of the
// active view set.
func (s *Session) RecordJSON(i int) (string, error) {
	entries := s.ActiveRecords()
	if i < 0 || i >= len(entries) {
		return "", &InvalidRowReferenceError{Index: i, Len: len(entries)}
	}
	return view.Marshal(entries[i].Record, view.Indent), nil
}

// CopyRecord places the record at position i of the active view set on the
// clipboard.
func (s *Session) CopyRecord(i int, fallback bool) (clipboard.Method, error) {
	text, err := s.RecordJSON(i)
	if err != nil {
		return "", err
	}
	return clipboard.Copy(text, fallback)
}

// Theme returns the current theme.
func (s *Session) Theme() prefs.Theme {
	return s.theme
}

// SetTheme changes and persists the theme.
func (s *Session) SetTheme(t prefs.Theme) error {
	s.theme = t
	if err := prefs.SaveTheme(s.prefs, t); err != nil {
		s.log.Error(err, "failed to save theme")
		return err
	}
	return nil
}

// ToggleTheme flips between light and dark and persists the result.
func (s *Session) ToggleTheme() (prefs.Theme, error) {
	next := s.theme.Toggle()
	return next, s.SetTheme(next)
}
