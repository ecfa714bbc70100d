package languageServer

import (
	"context"
	"encoding/json"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/asmtools/hlasm-ordasm/diag"
	"github.com/asmtools/hlasm-ordasm/ident"
	"github.com/asmtools/hlasm-ordasm/ordasm"
	"github.com/asmtools/hlasm-ordasm/util"
)

// analyzedDoc is the result of the most recent ordasm/analyzeStatements
// call for a document: the Processor it drove, kept around so hover and
// definition requests can query the live symbol table without rerunning
// analysis.
type analyzedDoc struct {
	version     int
	processor   *ordasm.Processor
	diagnostics []diag.Diagnostic
	text        string
}

var documentMap = make(map[string]TextDocumentItem)

func replyInvalidParams(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	rpcErr := jsonrpc2.Error{}
	rpcErr.SetError("invalid parameters")
	conn.ReplyWithError(context.Background(), req.ID, &rpcErr)
}

func documentOpenNotification(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := DidOpenTextDocumentParams{}
	if err := json.Unmarshal(*req.Params, &decodedParams); err != nil {
		replyInvalidParams(conn, req)
		return
	}
	documentMap[string(decodedParams.TextDocument.URI)] = decodedParams.TextDocument
}

func documentCloseNotification(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := DidCloseTextDocumentParams{}
	if err := json.Unmarshal(*req.Params, &decodedParams); err != nil {
		replyInvalidParams(conn, req)
		return
	}
	delete(documentMap, string(decodedParams.TextDocument.URI))
}

func documentChangeNotification(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := DidChangeTextDocumentParams{}
	if err := json.Unmarshal(*req.Params, &decodedParams); err != nil {
		replyInvalidParams(conn, req)
		return
	}
	uri := string(decodedParams.TextDocument.URI)
	doc := documentMap[uri]
	if len(decodedParams.ContentChanges) > 0 {
		doc.Text = decodedParams.ContentChanges[0].Text
	}
	doc.Version = decodedParams.TextDocument.Version
	documentMap[uri] = doc
}

// analyzeStatementsNotification runs the ordinary-assembly analysis for
// one document version against a client-supplied statement stream (the
// statement-field parser lives client-side, out of this core's scope)
// and publishes the resulting diagnostics.
func analyzeStatementsNotification(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := AnalyzeStatementsParams{}
	if err := json.Unmarshal(*req.Params, &decodedParams); err != nil {
		replyInvalidParams(conn, req)
		return
	}
	uri := string(decodedParams.TextDocument.URI)
	doc := documentMap[uri]

	interner := ident.NewInterner()
	stmts := make([]ordasm.Statement, 0, len(decodedParams.Statements))
	for _, ws := range decodedParams.Statements {
		stmt, err := ws.toStatement(interner)
		if err != nil {
			util.LogF("analyzeStatements %s: skipping malformed statement: %v", uri, err)
			continue
		}
		stmts = append(stmts, stmt)
	}

	proc, err := ordasm.NewProcessor(ordasm.Options{IDStorage: interner})
	if err != nil {
		replyInvalidParams(conn, req)
		return
	}
	proc.Load(stmts)
	diagnostics := proc.Analyze()

	doc.lastProcessor = &analyzedDoc{
		version:     decodedParams.TextDocument.Version,
		processor:   proc,
		diagnostics: diagnostics,
		text:        doc.Text,
	}
	documentMap[uri] = doc

	conn.Notify(context.Background(), "textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         decodedParams.TextDocument.URI,
		Version:     decodedParams.TextDocument.Version,
		Diagnostics: diagnostics,
	})
}

func documentDiagnostics(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := DocumentDiagnosticsParams{}
	if err := json.Unmarshal(*req.Params, &decodedParams); err != nil {
		replyInvalidParams(conn, req)
		return
	}
	doc := documentMap[string(decodedParams.TextDocument.URI)]
	items := []diag.Diagnostic{}
	if doc.lastProcessor != nil {
		items = doc.lastProcessor.diagnostics
	}
	conn.Reply(context.Background(), req.ID, DocumentDiagnosticsReport{Kind: "full", Items: items})
}
