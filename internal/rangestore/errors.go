package rangestore

import "fmt"

// IndexingError reports an append that would break an agent's interval
// ordering, or a persisted document that does not satisfy it. It indicates
// a bug in the producer or corrupt data, not a recoverable condition.
type IndexingError struct {
	Agent  string
	Reason string
}

func (e *IndexingError) Error() string {
	if e.Agent != "" {
		return fmt.Sprintf("rangestore: agent %q: %s", e.Agent, e.Reason)
	}
	return fmt.Sprintf("rangestore: %s", e.Reason)
}
