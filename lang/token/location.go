package token

import "fmt"

// Location addresses a single byte of source text by filename, 1-based line
// and 1-based column. Unlike an offset-keyed FileSet, locations are
// self-contained: an #include splices an independently tokenized stream, so
// there is no single shared coordinate space to index into.
type Location struct {
	Filename string
	Line     int
	Column   int
}

// String renders the location as "filename:line:column".
func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Filename, l.Line, l.Column)
}

// IsZero reports whether l is the unset Location value.
func (l Location) IsZero() bool {
	return l.Filename == "" && l.Line == 0 && l.Column == 0
}
