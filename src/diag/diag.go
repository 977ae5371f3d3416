// Package diag implements the compiler's single diagnostic taxonomy (see
// spec §7). Every stage of the pipeline reports failures as Diagnostic
// values collected in a Bag rather than as bare Go errors, so that a stage
// can keep analyzing after the first problem and the caller sees every
// diagnostic in one pass.
package diag

import (
	"fmt"
	"sort"
	"strings"

	"razorforge/src/source"
)

// Severity distinguishes diagnostics that block code generation (Error)
// from those that do not (Warning).
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Kind is the closed taxonomy of diagnostic categories named in spec §7.
type Kind int

const (
	// Lexical
	KindUnterminatedLiteral Kind = iota
	KindInvalidEscape
	KindBadNumericSuffix
	KindMalformedIdentifier

	// Parse
	KindUnexpectedToken
	KindMissingCloser
	KindAmbiguousGeneric
	KindReservedNameViolation

	// Resolution
	KindUnknownSymbol
	KindUnknownType
	KindDuplicateDeclaration
	KindCircularImport
	KindModuleNotFound

	// Type
	KindIncompatibleAssignment
	KindNonComparableOperands
	KindMixedSignedness
	KindIntegerDivide
	KindInvalidCast
	KindLiteralOutOfRange
	KindImmutableEntityBinding

	// Generic
	KindArityMismatch
	KindInconsistentBinding
	KindUnsatisfiedConstraint
	KindMissingTemplate

	// Memory
	KindUseAfterInvalidation
	KindReturnScopedToken
	KindStoreScopedToken
	KindTokenOutsideUsurping
	KindForbiddenNesting
	KindStoreResultOrLookup

	// Naming
	KindThrowWithoutBang
	KindReservedPrefix
	KindReservedDunder
	KindCrashableWithoutFallibility

	// Intrinsic
	KindIntrinsicOutsideDanger
	KindIntrinsicArity
	KindIntrinsicTypeArity

	// Codegen
	KindUnresolvedTypeAtEmission
)

var kindNames = map[Kind]string{
	KindUnterminatedLiteral:     "unterminated literal",
	KindInvalidEscape:           "invalid escape",
	KindBadNumericSuffix:        "bad numeric suffix",
	KindMalformedIdentifier:     "malformed identifier",
	KindUnexpectedToken:         "unexpected token",
	KindMissingCloser:           "missing closer",
	KindAmbiguousGeneric:        "ambiguous generic context",
	KindReservedNameViolation:   "reserved-name violation",
	KindUnknownSymbol:           "unknown symbol",
	KindUnknownType:             "unknown type",
	KindDuplicateDeclaration:    "duplicate declaration in same scope",
	KindCircularImport:          "circular import",
	KindModuleNotFound:          "module not found",
	KindIncompatibleAssignment:  "incompatible assignment",
	KindNonComparableOperands:   "non-comparable operands",
	KindMixedSignedness:         "arithmetic of mixed signedness",
	KindIntegerDivide:           "integer /",
	KindInvalidCast:             "invalid cast",
	KindLiteralOutOfRange:       "literal out of range for explicit type",
	KindImmutableEntityBinding:  "var on entity type",
	KindArityMismatch:           "arity mismatch",
	KindInconsistentBinding:     "inconsistent parameter binding",
	KindUnsatisfiedConstraint:   "unsatisfied constraint",
	KindMissingTemplate:         "missing template for concrete instance",
	KindUseAfterInvalidation:    "use after invalidation",
	KindReturnScopedToken:       "returning a scoped token",
	KindStoreScopedToken:        "storing a scoped token in a field or collection",
	KindTokenOutsideUsurping:    "token created outside a usurping function",
	KindForbiddenNesting:        "forbidden nesting of error-handling generics",
	KindStoreResultOrLookup:     "storing Result/Lookup",
	KindThrowWithoutBang:        "throw without !",
	KindReservedPrefix:          "reserved prefix",
	KindReservedDunder:          "reserved dunder",
	KindCrashableWithoutFallibility: "`!` routine neither throws nor goes absent",
	KindIntrinsicOutsideDanger:  "@intrinsic outside danger!",
	KindIntrinsicArity:          "wrong arity",
	KindIntrinsicTypeArity:      "wrong type arity",
	KindUnresolvedTypeAtEmission: "unresolved type at emission",
}

// Category names the coarse grouping a Kind belongs to, used only for
// readability in formatted output ("Memory: returning a scoped token").
func (k Kind) Category() string {
	switch {
	case k <= KindMalformedIdentifier:
		return "Lexical"
	case k <= KindReservedNameViolation:
		return "Parse"
	case k <= KindModuleNotFound:
		return "Resolution"
	case k <= KindImmutableEntityBinding:
		return "Type"
	case k <= KindMissingTemplate:
		return "Generic"
	case k <= KindStoreResultOrLookup:
		return "Memory"
	case k <= KindCrashableWithoutFallibility:
		return "Naming"
	case k <= KindIntrinsicTypeArity:
		return "Intrinsic"
	default:
		return "Codegen"
	}
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown diagnostic"
}

// Diagnostic is one compiler-reported problem, located in source.
type Diagnostic struct {
	Severity Severity
	Kind     Kind
	Message  string
	Loc      source.Location
	EndLoc   *source.Location // optional end of a ranged diagnostic
}

// String formats a Diagnostic as "severity[file:line:col]: Category: message",
// matching the §7 user-visible format (file name substituted by the caller,
// which owns the FileSet).
func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.Severity.String())
	b.WriteByte('[')
	b.WriteString(d.Loc.String())
	b.WriteString("]: ")
	b.WriteString(d.Kind.Category())
	b.WriteString(": ")
	b.WriteString(d.Message)
	return b.String()
}

// Errorf builds an Error-severity Diagnostic.
func Errorf(kind Kind, loc source.Location, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Severity: Error, Kind: kind, Message: fmt.Sprintf(format, args...), Loc: loc}
}

// Warnf builds a Warning-severity Diagnostic.
func Warnf(kind Kind, loc source.Location, format string, args ...interface{}) Diagnostic {
	return Diagnostic{Severity: Warning, Kind: kind, Message: fmt.Sprintf(format, args...), Loc: loc}
}

// Bag collects diagnostics from one or more pipeline stages, optionally
// concurrently. It generalizes the teacher's util.perror channel-backed
// collector from bare errors to typed, located Diagnostics.
type Bag struct {
	items chan Diagnostic
	stop  chan struct{}
	done  chan struct{}
	buf   []Diagnostic
}

// NewBag returns a Bag ready to receive diagnostics from concurrent workers.
func NewBag() *Bag {
	b := &Bag{
		items: make(chan Diagnostic, 16),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
		buf:   make([]Diagnostic, 0, 16),
	}
	go b.run()
	return b
}

func (b *Bag) run() {
	defer close(b.done)
	for {
		select {
		case d := <-b.items:
			b.buf = append(b.buf, d)
		case <-b.stop:
			// Drain anything already queued before exiting.
			for {
				select {
				case d := <-b.items:
					b.buf = append(b.buf, d)
				default:
					return
				}
			}
		}
	}
}

// Add reports a diagnostic. Safe to call from multiple goroutines.
func (b *Bag) Add(d Diagnostic) {
	b.items <- d
}

// Close stops the collector and waits for pending diagnostics to drain. The
// Bag must not be used after Close.
func (b *Bag) Close() []Diagnostic {
	close(b.stop)
	<-b.done
	sort.SliceStable(b.buf, func(i, j int) bool {
		if b.buf[i].Loc.Line != b.buf[j].Loc.Line {
			return b.buf[i].Loc.Line < b.buf[j].Loc.Line
		}
		return b.buf[i].Loc.Column < b.buf[j].Loc.Column
	})
	return b.buf
}

// HasErrors reports whether the Bag has accumulated any Error-severity
// diagnostic. Used by the pipeline to decide whether to skip code
// generation (§7 propagation policy): analysis proceeds for diagnostic
// coverage even with errors present, but codegen never runs with errors
// outstanding.
func HasErrors(ds []Diagnostic) bool {
	for _, d := range ds {
		if d.Severity == Error {
			return true
		}
	}
	return false
}
