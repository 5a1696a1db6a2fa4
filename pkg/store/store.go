// Package store holds the ingested record set and the key universe
// discovered across it.
package store

import (
	"strings"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/jsonlv/pkg/keypath"
	"github.com/oakwood-commons/jsonlv/pkg/record"
)

// Store is an ordered sequence of records plus the union of their key paths.
// Records are immutable once stored; Load replaces the whole set.
type Store struct {
	records  []any
	keys     keypath.Set
	sorted   []string
	maxDepth int
	log      logr.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger that receives skipped-line warnings.
func WithLogger(lgr logr.Logger) Option {
	return func(s *Store) {
		s.log = lgr
	}
}

// WithMaxDepth sets the nesting limit applied when decoding lines.
func WithMaxDepth(depth int) Option {
	return func(s *Store) {
		s.maxDepth = depth
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		keys:     keypath.Set{},
		maxDepth: record.DefaultMaxDepth,
		log:      logr.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result summarizes a Load.
type Result struct {
	// Records is the number of lines decoded successfully.
	Records int
	// NonBlank is the number of lines that held anything besides whitespace.
	NonBlank int
	// Skipped lists the lines that failed to decode.
	Skipped []*record.LineParseError
}

// Load splits text into lines, drops blank ones, and decodes each of the
// rest independently. Lines that fail to decode are skipped and reported;
// they never abort the load. The previous contents are replaced in full,
// even when nothing decodes.
func (s *Store) Load(text string) Result {
	var (
		res     Result
		records []any
		keys    = keypath.Set{}
	)
	for i, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		res.NonBlank++
		v, err := record.Decode(line, s.maxDepth)
		if err != nil {
			perr := &record.LineParseError{Line: i + 1, Err: err}
			res.Skipped = append(res.Skipped, perr)
			s.log.Info("skipping line that is not valid JSON", "line", perr.Line, "error", err.Error())
			continue
		}
		records = append(records, v)
		keypath.ExtractInto(keys, v)
	}
	res.Records = len(records)

	s.records = records
	s.keys = keys
	s.sorted = keys.Sorted()
	return res
}

// Clear empties the store and its key universe.
func (s *Store) Clear() {
	s.records = nil
	s.keys = keypath.Set{}
	s.sorted = nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	return len(s.records)
}

// At returns the record at index i in ingestion order.
func (s *Store) At(i int) any {
	return s.records[i]
}

// Records returns the stored records in ingestion order. Callers must not
// modify the returned slice.
func (s *Store) Records() []any {
	return s.records
}

// KeyPaths returns the key universe in lexicographic order.
func (s *Store) KeyPaths() []string {
	out := make([]string, len(s.sorted))
	copy(out, s.sorted)
	return out
}

// HasKeyPath reports whether path belongs to the key universe.
func (s *Store) HasKeyPath(path string) bool {
	return s.keys.Has(path)
}
