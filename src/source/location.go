// Package source tracks source files and locations within them. Every token
// and AST node carries a Location so that diagnostics can always point back
// at the exact file, line and column that produced them.
package source

import "fmt"

// FileID identifies a loaded source file within a FileSet. Zero is never a
// valid FileID; it is reserved to mean "no file" for synthesized nodes.
type FileID int

// Location is an immutable source position. Lines and columns are 1-based;
// Offset is a 0-based byte offset. Locations are copied by value, never shared.
type Location struct {
	File   FileID
	Line   int
	Column int
	Offset int
}

// String renders a Location as "line:column", the form used by Diagnostic
// formatting.
func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Valid reports whether l carries a plausible 1-based line and column, per
// the invariant that every AST node from a successful parse has Line >= 1
// and Column >= 1.
func (l Location) Valid() bool {
	return l.Line >= 1 && l.Column >= 1
}

// File holds the name and contents of one loaded source file.
type File struct {
	ID      FileID
	Name    string // Path as given to the compiler, used in diagnostics.
	Path    string // Canonical import path this file was loaded under, if any.
	Content string
	Dialect Dialect
}

// Dialect distinguishes RazorForge source from Suflae source. The two share
// a lexer and AST but differ in keyword set, token legality (string prefixes,
// danger-block keywords) and memory-model enforcement.
type Dialect int

const (
	// Unknown is the zero value; no file should carry it past loading.
	Unknown Dialect = iota
	RazorForge
	Suflae
)

// DialectForExt returns the Dialect implied by a file extension, per the
// external interface contract: ".rf" is RazorForge, ".sf" is Suflae.
func DialectForExt(ext string) (Dialect, bool) {
	switch ext {
	case ".rf":
		return RazorForge, true
	case ".sf":
		return Suflae, true
	default:
		return Unknown, false
	}
}

func (d Dialect) String() string {
	switch d {
	case RazorForge:
		return "razorforge"
	case Suflae:
		return "suflae"
	default:
		return "unknown"
	}
}

// FileSet owns every file loaded during one compilation and hands out stable
// FileIDs. A single compilation owns exactly one FileSet; it is discarded
// with the rest of the compiler invocation's state on completion.
type FileSet struct {
	files []*File
}

// NewFileSet returns an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{files: make([]*File, 0, 8)}
}

// Add registers a new file and returns it with its FileID assigned.
func (fs *FileSet) Add(name, path, content string, dialect Dialect) *File {
	f := &File{
		ID:      FileID(len(fs.files) + 1),
		Name:    name,
		Path:    path,
		Content: content,
		Dialect: dialect,
	}
	fs.files = append(fs.files, f)
	return f
}

// Get returns the file registered under id, or nil if id is unknown.
func (fs *FileSet) Get(id FileID) *File {
	if id < 1 || int(id) > len(fs.files) {
		return nil
	}
	return fs.files[id-1]
}

// Name returns the display name of the file at id, or "<unknown>".
func (fs *FileSet) Name(id FileID) string {
	if f := fs.Get(id); f != nil {
		return f.Name
	}
	return "<unknown>"
}
