package languageServer

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/sourcegraph/jsonrpc2"
)

// wordAt extracts the identifier-like token touching position pos in
// text: whitespace/punctuation delimited, not an HLASM statement-field
// parse. This is purely an editor convenience for hover/definition and
// carries no assembly semantics of its own.
func wordAt(text string, line, char int) string {
	lines := strings.Split(text, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	l := lines[line]
	if char < 0 || char > len(l) {
		return ""
	}
	isWord := func(c byte) bool {
		return c == '_' || c == '$' || c == '#' || c == '@' ||
			(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
	}
	start, end := char, char
	for start > 0 && isWord(l[start-1]) {
		start--
	}
	for end < len(l) && isWord(l[end]) {
		end++
	}
	return l[start:end]
}

func hoverRequest(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := TextDocumentPositionParams{}
	if err := json.Unmarshal(*req.Params, &decodedParams); err != nil {
		replyInvalidParams(conn, req)
		return
	}
	doc := documentMap[string(decodedParams.TextDocument.URI)]
	if doc.lastProcessor == nil {
		conn.Reply(context.Background(), req.ID, nil)
		return
	}
	word := wordAt(doc.lastProcessor.text, decodedParams.Position.Line, decodedParams.Position.Char)
	if word == "" {
		conn.Reply(context.Background(), req.ID, nil)
		return
	}
	info, ok := doc.lastProcessor.processor.Hover(word)
	if !ok {
		conn.Reply(context.Background(), req.ID, nil)
		return
	}
	conn.Reply(context.Background(), req.ID, Hover{
		Contents: MarkupContent{Kind: "markdown", Value: info.Text()},
	})
}

func definitionRequest(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := DefinitionParams{}
	if err := json.Unmarshal(*req.Params, &decodedParams); err != nil {
		replyInvalidParams(conn, req)
		return
	}
	uri := decodedParams.TextDocument.URI
	doc := documentMap[string(uri)]
	if doc.lastProcessor == nil {
		conn.Reply(context.Background(), req.ID, nil)
		return
	}
	word := wordAt(doc.lastProcessor.text, decodedParams.Position.Line, decodedParams.Position.Char)
	if word == "" {
		conn.Reply(context.Background(), req.ID, nil)
		return
	}
	defRange, ok := doc.lastProcessor.processor.ResolveSymbolPos(word)
	if !ok {
		conn.Reply(context.Background(), req.ID, nil)
		return
	}
	conn.Reply(context.Background(), req.ID, Location{URI: uri, Range: defRange})
}

func completionRequest(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := CompletionParams{}
	if err := json.Unmarshal(*req.Params, &decodedParams); err != nil {
		replyInvalidParams(conn, req)
		return
	}
	doc := documentMap[string(decodedParams.TextDocument.URI)]
	items := []CompletionItem{}
	if doc.lastProcessor != nil {
		for _, name := range doc.lastProcessor.processor.SymbolNames() {
			items = append(items, CompletionItem{Label: name, Kind: 6})
		}
	}
	conn.Reply(context.Background(), req.ID, items)
}
