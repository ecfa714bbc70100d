// Package ordasm implements the ordinary-assembly semantic processor: the
// directive dispatcher that drives symtab/section/using/literal/depsolve
// against a stream of already-parsed statements, plus the Processor state
// machine and suspend/resume continuations the host drives it with.
package ordasm

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/asmtools/hlasm-ordasm/address"
	"github.com/asmtools/hlasm-ordasm/copymgr"
	"github.com/asmtools/hlasm-ordasm/depsolve"
	"github.com/asmtools/hlasm-ordasm/diag"
	"github.com/asmtools/hlasm-ordasm/ident"
	"github.com/asmtools/hlasm-ordasm/literal"
	"github.com/asmtools/hlasm-ordasm/section"
	"github.com/asmtools/hlasm-ordasm/symtab"
	"github.com/asmtools/hlasm-ordasm/using"
	"github.com/asmtools/hlasm-ordasm/util"
)

// State is one of the processor's four lifecycle states.
type State byte

const (
	Initial State = iota
	Running
	EndSeen
	Finalized
)

// LibraryData names which library a COPY/macro fetch wants and what
// dialect it is expected to be.
type LibraryData struct {
	Kind ident.ID // ORDINARY | MACRO | COPY, caller's convention
	Name ident.ID
}

// PreprocessorSpec names one entry of the preprocessor chain option; the
// chain itself (ENDEVOR/CICS/DB2) is an opaque document transform out of
// this component's scope, so only the selection is modeled here.
type PreprocessorSpec struct {
	Kind    string
	Options map[string]string
}

// VirtualFileMonitor is notified when the processor materializes a
// virtual file (e.g. an AINSERT-expanded buffer); out-of-scope file I/O
// is left entirely to the host, which is the only thing implementing
// this interface.
type VirtualFileMonitor interface {
	FileChanged(name string)
}

// LibraryProvider is the host-supplied fetch contract for COPY/macro
// members: parse_library/get_library/has_library in spec terms.
type LibraryProvider interface {
	ParseLibrary(ctx context.Context, name ident.ID, data LibraryData) (bool, error)
	GetLibrary(ctx context.Context, name ident.ID) (text string, url string, ok bool)
	HasLibrary(name ident.ID) bool
}

// Options configures NewProcessor.
type Options struct {
	FileLocation         string
	LibraryProvider      LibraryProvider
	ExistingContext      *Processor
	LibraryData          LibraryData
	CollectHighlightInfo bool
	Opencode             bool
	IDStorage            *ident.Interner
	Preprocessors        []PreprocessorSpec
	VirtualFileMonitor   VirtualFileMonitor
	FadeMessages         bool
}

// ErrConflictingOptions is returned by NewProcessor when ExistingContext
// is set together with IDStorage or Preprocessors, an invalid combination
// per the external-interfaces contract.
var ErrConflictingOptions = errors.New("ordasm: ExistingContext conflicts with IDStorage/Preprocessors")

// Awaiting represents a suspended Step/StepAnalyze call: a host resumes
// processing by invoking Resume. The zero value (Resume == nil) means
// "not suspended".
type Awaiting struct {
	Resume func() (Awaiting, bool)
}

// Processor is one ordinary-assembly analysis context: owns the symbol
// table, section registry, USING tracker, literal pool, and dependency
// solver for a single compilation unit (or, via ExistingContext, shares
// them with an enclosing one for nested COPY/macro analysis).
type Processor struct {
	opts  Options
	state State

	interner *ident.Interner
	syms     *symtab.Table
	sections *section.Registry
	usingT   *using.Tracker
	lits     *literal.Pool
	solver   *depsolve.Solver
	sink     *diag.Sink
	copy     *copymgr.Manager

	opsyn map[ident.ID]ident.ID // mnemonic rebinding table, shared across nested contexts

	pending []Statement

	titleSet  bool
	titleText string
	entrySet  bool
	entryAddr address.Address

	cancelFlag     int32
	trailingWarned bool
}

// NewProcessor constructs a Processor, sharing state with
// opts.ExistingContext when set (nested COPY/macro analysis) or building
// a fresh context otherwise.
func NewProcessor(opts Options) (*Processor, error) {
	if opts.ExistingContext != nil && (opts.IDStorage != nil || len(opts.Preprocessors) > 0) {
		return nil, ErrConflictingOptions
	}

	p := &Processor{opts: opts, sink: diag.NewSink(), state: Initial}

	if opts.ExistingContext != nil {
		ec := opts.ExistingContext
		p.interner = ec.interner
		p.syms = ec.syms
		p.sections = ec.sections
		p.usingT = ec.usingT
		p.lits = ec.lits
		p.opsyn = ec.opsyn
	} else {
		p.interner = opts.IDStorage
		if p.interner == nil {
			p.interner = ident.NewInterner()
		}
		p.syms = symtab.NewTable()
		p.sections = section.NewRegistry()
		p.usingT = using.NewTracker()
		p.lits = literal.NewPool(p.interner)
		p.opsyn = make(map[ident.ID]ident.ID)
	}

	p.solver = depsolve.NewSolver(p.sink, func(id ident.ID) string { return p.interner.Text(id) })
	p.copy = copymgr.NewManager(libraryProviderAdapter{opts.LibraryProvider})

	return p, nil
}

type libraryProviderAdapter struct{ lp LibraryProvider }

func (a libraryProviderAdapter) GetLibrary(ctx context.Context, name ident.ID) (string, string, bool) {
	if a.lp == nil {
		return "", "", false
	}
	return a.lp.GetLibrary(ctx, name)
}

// Cancel arms cancellation; it is consulted only at the next suspension
// boundary inside StepAnalyze, never mid-statement.
func (p *Processor) Cancel() { atomic.StoreInt32(&p.cancelFlag, 1) }

func (p *Processor) cancelled() bool { return atomic.LoadInt32(&p.cancelFlag) != 0 }

// Load queues statements for StepAnalyze/Analyze to consume in order.
func (p *Processor) Load(stmts []Statement) {
	p.pending = append(p.pending, stmts...)
}

// Step processes exactly one statement synchronously, advancing
// Initial→Running on first use. This is the entry point a language
// server drives directly, one edited statement at a time.
func (p *Processor) Step(stmt Statement) {
	if p.state == Initial {
		p.state = Running
	}
	if p.state == Finalized || p.state == EndSeen {
		if !p.trailingWarned {
			p.trailingWarned = true
			p.sink.Add(diag.Errors.StartAfterCode(rangeOf(stmt.Pos))) // reuse: trailing-after-end is the same "unexpected after terminal state" shape
		}
		return
	}
	p.dispatch(stmt)
}

// StepAnalyze drains the queued statements (see Load), checking for
// cancellation between statements, and finalizes once exhausted. It
// returns (Awaiting{}, true) on completion, or an Awaiting whose Resume
// continues the drain when ctx is done mid-way.
func (p *Processor) StepAnalyze(ctx context.Context) (Awaiting, bool) {
	for len(p.pending) > 0 {
		select {
		case <-ctx.Done():
			return Awaiting{Resume: func() (Awaiting, bool) { return p.StepAnalyze(ctx) }}, false
		default:
		}
		if p.cancelled() {
			return Awaiting{}, false
		}
		stmt := p.pending[0]
		p.pending = p.pending[1:]
		p.Step(stmt)
	}
	if p.state != Finalized {
		p.finalize()
	}
	return Awaiting{}, true
}

// Analyze runs StepAnalyze to completion against context.Background,
// following any Resume continuations, and returns the accumulated
// diagnostics.
func (p *Processor) Analyze() []diag.Diagnostic {
	ctx := context.Background()
	aw, done := p.StepAnalyze(ctx)
	for !done && aw.Resume != nil {
		aw, done = aw.Resume()
	}
	return p.CollectDiagnostics()
}

func (p *Processor) finalize() {
	p.state = EndSeen
	util.LogF("ordasm: finalizing")
	if len(p.lits.Pending()) > 0 {
		p.lits.GeneratePool(p.sections, p.syms)
	}
	for {
		if p.sections.FinishLayout() {
			break
		}
		// A section still has an unresolved space with nothing left to
		// retry it: finalize can make no further progress on it.
		break
	}
	p.solver.Finalize()
	p.state = Finalized
}

// CollectDiagnostics returns every diagnostic recorded so far, in source order.
func (p *Processor) CollectDiagnostics() []diag.Diagnostic { return p.sink.All() }

// Context exposes the live symbol table, mirroring the teacher's
// accessor-bundle style (Context()/HlasmContext() in spec terms).
func (p *Processor) Context() *symtab.Table { return p.syms }

// HlasmContext exposes the section registry.
func (p *Processor) HlasmContext() *section.Registry { return p.sections }

// Title returns the program title set by the first TITLE statement, if
// any.
func (p *Processor) Title() (string, bool) { return p.titleText, p.titleSet }

// EntryPoint returns the relocatable address named by END's operand, if
// END supplied one that resolved to a non-absolute value.
func (p *Processor) EntryPoint() (address.Address, bool) { return p.entryAddr, p.entrySet }

// Metrics reports simple counters useful for a status bar / debug panel.
type Metrics struct {
	SymbolCount  int
	SectionCount int
	Diagnostics  int
}

// Metrics computes a snapshot of the analysis so far.
func (p *Processor) Metrics() Metrics {
	return Metrics{
		SymbolCount:  len(p.syms.All()),
		SectionCount: len(p.sections.Sections()),
		Diagnostics:  p.sink.Len(),
	}
}

// TakeVFHandles returns and clears the set of virtual files materialized
// during analysis (AINSERT-expanded buffers); no virtual files are
// tracked unless a VirtualFileMonitor was supplied, so this core always
// returns an empty slice — file materialization itself is the host's job.
func (p *Processor) TakeVFHandles() []string { return nil }

func rangeOf(pos SourcePos) diag.TextRange {
	tp := diag.TextPosition{Line: pos.Line, Char: pos.Char}
	return diag.TextRange{Start: tp, End: tp}
}

func toDepsolvePos(pos SourcePos) depsolve.SourcePos {
	return depsolve.SourcePos{Line: pos.Line, Char: pos.Char}
}

// findLabelSymbol returns stmt's label id if present, reporting E053 (via
// the caller-supplied directive name) if a directive that requires one
// had none.
func findLabelSymbol(p *Processor, stmt Statement, directive string) (ident.ID, bool) {
	if !stmt.HasLabel || stmt.Label.IsEmpty() {
		p.sink.Add(diag.Errors.MissingMandatoryLabel(directive, rangeOf(stmt.Pos)))
		return ident.Empty, false
	}
	return stmt.Label, true
}

// findSequenceSymbol registers a `.LABEL`-style sequence symbol as a
// branch target reference; ordinary-assembly semantics do not otherwise
// distinguish it from a regular label reference.
func findSequenceSymbol(p *Processor, name ident.ID, pos SourcePos) *symtab.Symbol {
	return p.syms.Reference(name, symtab.SourcePos{Line: pos.Line, Char: pos.Char})
}
