package languageServer

import "github.com/asmtools/hlasm-ordasm/diag"

// DocumentUri mirrors LSP's URI string type.
type DocumentUri string

// TextDocumentItem is the client's view of an open document. lastProcessor
// is filled in as the server analyzes it; it is not part of the wire
// format.
type TextDocumentItem struct {
	URI        DocumentUri `json:"uri"`
	LanguageID string      `json:"languageId"`
	Version    int         `json:"version"`
	Text       string      `json:"text"`

	lastProcessor *analyzedDoc
}

type TextDocumentIdentifier struct {
	URI DocumentUri `json:"uri"`
}

type VersionedTextDocumentIdentifier struct {
	URI     DocumentUri `json:"uri"`
	Version int         `json:"version"`
}

type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

type TextDocumentContentChangeEvent struct {
	Text string `json:"text"`
}

type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

type InitializeParams struct {
	ProcessID int `json:"processId"`
}

type DocumentDiagnosticsParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

type DocumentDiagnosticsReport struct {
	Kind  string            `json:"kind"`
	Items []diag.Diagnostic `json:"items"`
}

type PublishDiagnosticsParams struct {
	URI         DocumentUri        `json:"uri"`
	Version     int                `json:"version,omitempty"`
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
}

type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     diag.TextPosition      `json:"position"`
}

type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type Hover struct {
	Contents MarkupContent `json:"contents"`
}

// AnalyzeStatementsParams is the custom `ordasm/analyzeStatements`
// notification payload: the client owns the lexer/statement-field parser
// (out of this core's scope) and pushes the already-rebuilt statement
// stream for one document version.
type AnalyzeStatementsParams struct {
	TextDocument VersionedTextDocumentIdentifier `json:"textDocument"`
	Statements   []WireStatement                 `json:"statements"`
}

// DefinitionParams/Location support `textDocument/definition`: jump to a
// symbol's DefSite.
type DefinitionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     diag.TextPosition      `json:"position"`
}

type Location struct {
	URI   DocumentUri    `json:"uri"`
	Range diag.TextRange `json:"range"`
}

// CompletionParams/CompletionItem support `textDocument/completion`: the
// symbol-name completion list, the one piece of editor-assist that needs
// no parsing context beyond "what symbols exist so far".
type CompletionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     diag.TextPosition      `json:"position"`
}

type CompletionItem struct {
	Label string `json:"label"`
	Kind  int    `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

// ServerCapabilities/InitializeResult advertise what this server supports.
type ServerCapabilities struct {
	TextDocumentSync   int  `json:"textDocumentSync"`
	HoverProvider      bool `json:"hoverProvider"`
	DefinitionProvider bool `json:"definitionProvider"`
	CompletionProvider struct {
		ResolveProvider bool `json:"resolveProvider"`
	} `json:"completionProvider"`
}

type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
}
