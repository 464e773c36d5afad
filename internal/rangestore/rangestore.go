// Package rangestore keeps each agent's trajectory as an append-only
// sequence of contiguous half-open time intervals and answers point and
// range queries against it. Sequences are ordered by construction, so
// lookups are plain binary searches; no tree or merging is ever needed.
package rangestore

import (
	"fmt"
	"math"
	"sort"

	"github.com/satwerk/gravsim/internal/orbit"
)

// Record is one immutable slice of an agent's history: the state that held
// over [Start, End).
type Record struct {
	Start float64     `json:"start_time"`
	End   float64     `json:"end_time"`
	State orbit.State `json:"state"`
}

// Document is the serializable form of a store: agent name to its ordered
// record sequence. This is the exact payload persisted and returned by the
// HTTP layer.
type Document map[string][]Record

// Store holds the per-agent record sequences for one run. It is not safe
// for concurrent use; each run owns its own store.
type Store struct {
	seqs  map[string][]Record
	names []string
}

// New returns an empty store.
func New() *Store {
	return &Store{seqs: make(map[string][]Record)}
}

// Append adds rec to the end of the named agent's sequence. The interval
// must be non-empty and start exactly where the agent's previous record
// ended; the first record for an agent may start anywhere.
func (s *Store) Append(agent string, rec Record) error {
	if !(rec.End > rec.Start) {
		return &IndexingError{
			Agent:  agent,
			Reason: fmt.Sprintf("interval [%v, %v) is empty or inverted", rec.Start, rec.End),
		}
	}
	if math.IsInf(rec.Start, 0) || math.IsInf(rec.End, 0) {
		return &IndexingError{
			Agent:  agent,
			Reason: fmt.Sprintf("interval [%v, %v) has an infinite bound", rec.Start, rec.End),
		}
	}

	seq := s.seqs[agent]
	if n := len(seq); n > 0 && rec.Start != seq[n-1].End {
		return &IndexingError{
			Agent: agent,
			Reason: fmt.Sprintf("interval starts at %v, previous ended at %v",
				rec.Start, seq[n-1].End),
		}
	}

	if len(seq) == 0 {
		s.names = append(s.names, agent)
	}
	s.seqs[agent] = append(seq, rec)
	return nil
}

// Query returns the record whose interval contains t. As the one boundary
// exception, t equal to the final record's End returns that final record.
// The second result is false when t precedes the agent's first record,
// follows its last, or the agent is unknown.
func (s *Store) Query(agent string, t float64) (Record, bool) {
	seq := s.seqs[agent]
	if len(seq) == 0 {
		return Record{}, false
	}

	// First record starting strictly after t; the candidate is its
	// predecessor.
	i := sort.Search(len(seq), func(i int) bool { return seq[i].Start > t })
	if i == 0 {
		return Record{}, false
	}

	rec := seq[i-1]
	if t < rec.End || (i == len(seq) && t == rec.End) {
		return rec, true
	}
	return Record{}, false
}

// QueryRange returns the ordered records overlapping [from, to). The
// result is a copy; mutating it does not affect the store.
func (s *Store) QueryRange(agent string, from, to float64) []Record {
	seq := s.seqs[agent]
	if len(seq) == 0 || !(from < to) {
		return nil
	}

	lo := sort.Search(len(seq), func(i int) bool { return seq[i].End > from })
	hi := sort.Search(len(seq), func(i int) bool { return seq[i].Start >= to })
	if lo >= hi {
		return nil
	}

	out := make([]Record, hi-lo)
	copy(out, seq[lo:hi])
	return out
}

// Agents returns the agent names in first-append order.
func (s *Store) Agents() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of records held for the named agent.
func (s *Store) Len(agent string) int {
	return len(s.seqs[agent])
}

// Span returns the time extent covered by the named agent's records. ok is
// false when the agent has none.
func (s *Store) Span(agent string) (start, end float64, ok bool) {
	seq := s.seqs[agent]
	if len(seq) == 0 {
		return 0, 0, false
	}
	return seq[0].Start, seq[len(seq)-1].End, true
}

// Export returns the full store content as a document. Record slices are
// copied so later appends do not alias into the export.
func (s *Store) Export() Document {
	doc := make(Document, len(s.seqs))
	for name, seq := range s.seqs {
		out := make([]Record, len(seq))
		copy(out, seq)
		doc[name] = out
	}
	return doc
}

// FromDocument rebuilds a store from a previously exported document,
// re-checking every interval invariant. Agents are loaded in name order so
// a rebuilt store iterates deterministically.
func FromDocument(doc Document) (*Store, error) {
	names := make([]string, 0, len(doc))
	for name := range doc {
		names = append(names, name)
	}
	sort.Strings(names)

	s := New()
	for _, name := range names {
		for _, rec := range doc[name] {
			if err := s.Append(name, rec); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}
