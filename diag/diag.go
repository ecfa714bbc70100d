// Package diag defines the structured diagnostics the processor emits:
// stable codes, severities, and source ranges, shaped to serialize
// directly as Language Server Protocol diagnostics.
package diag

// TextPosition is a zero-based line/character position, matching LSP.
type TextPosition struct {
	Line int `json:"line"`
	Char int `json:"character"`
}

// TextRange is a half-open [Start, End) source range.
type TextRange struct {
	Start TextPosition `json:"start"`
	End   TextPosition `json:"end"`
}

// Severity mirrors LSP's DiagnosticSeverity enum.
type Severity int

const (
	Error       Severity = 1
	Warning     Severity = 2
	Information Severity = 3
	Hint        Severity = 4
)

// CodeDescription links a diagnostic to external documentation, mirroring
// LSP's CodeDescription.
type CodeDescription struct {
	URL string `json:"href"`
}

// RelatedInfo is a secondary location attached to a diagnostic (e.g. the
// other member of a duplicate-definition pair).
type RelatedInfo struct {
	Range   TextRange `json:"range"`
	Message string    `json:"message"`
}

// Kind classifies a diagnostic by the taxonomy in the error-handling
// design: Syntactic, Semantic, Dependency, Diagnostic-directive,
// External, Fade. It is never serialized and is exposed only through
// Diagnostic.Kind; no code in this module reads it.
type Kind byte

const (
	KindSyntactic Kind = iota
	KindSemantic
	KindDependency
	KindDirective
	KindExternal
	KindFade
)

// Diagnostic is one structured diagnostic, emitted in source order of its
// originating statement.
type Diagnostic struct {
	Code            string           `json:"code"`
	Severity        Severity         `json:"severity,omitempty"`
	Message         string           `json:"message"`
	Range           TextRange        `json:"range"`
	Source          string           `json:"source,omitempty"`
	CodeDescription *CodeDescription `json:"codeDescription,omitempty"`
	Tags            []string         `json:"tags,omitempty"`
	Related         []RelatedInfo    `json:"relatedInformation,omitempty"`

	kind Kind
}

// Kind reports the internal taxonomy classification of d.
func (d Diagnostic) Kind() Kind { return d.kind }

// Sink accumulates diagnostics in the order they are produced. No
// diagnostic is ever dropped or deduplicated here; callers that need
// deduplication (e.g. one E033 per cycle, not per member) must enforce it
// themselves before calling Add.
type Sink struct {
	items []Diagnostic
}

// NewSink returns an empty Sink.
func NewSink() *Sink { return &Sink{} }

// Add appends d to the sink.
func (s *Sink) Add(d Diagnostic) { s.items = append(s.items, d) }

// All returns every diagnostic added so far, in insertion order.
func (s *Sink) All() []Diagnostic { return s.items }

// Len reports how many diagnostics have been recorded.
func (s *Sink) Len() int { return len(s.items) }
