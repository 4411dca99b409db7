package vocab

import "errors"

// ErrAmbiguousEntry is returned when a table maps the same IRI, ignoring
// case, to two different labels.
var ErrAmbiguousEntry = errors.New("ambiguous table entry")
