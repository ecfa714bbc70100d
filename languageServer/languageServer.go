// Package languageServer exposes ordasm.Processor over JSON-RPC 2.0 as an
// LSP-shaped server: documents arrive via textDocument/didOpen|didChange,
// their already-rebuilt statement stream arrives via the custom
// ordasm/analyzeStatements notification, and diagnostics/hover/definition/
// completion are served off the resulting Processor.
package languageServer

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"os"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/asmtools/hlasm-ordasm/util"
)

type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdrwc) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}

// ListenAndServe drives one connection over stdin/stdout, blocking until
// the client disconnects.
func ListenAndServe() {
	h := handler{}
	<-jsonrpc2.NewConn(context.Background(), jsonrpc2.NewBufferedStream(stdrwc{}, jsonrpc2.VSCodeObjectCodec{}), h).DisconnectNotify()
}

// ListenAndServeTCP accepts connections on addr, one independent
// jsonrpc2.Conn per client, and never returns.
func ListenAndServeTCP(addr string) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("ordasm-ls: could not bind to %s: %v", addr, err)
	}
	defer listener.Close()

	log.Printf("ordasm-ls: listening for TCP connections on %s", addr)

	connectionCount := 0
	for {
		conn, err := listener.Accept()
		if err != nil {
			log.Fatalf("ordasm-ls: failed to accept incoming connection: %v", err)
		}
		connectionCount++
		connectionID := connectionCount
		log.Printf("ordasm-ls: received incoming connection #%d", connectionID)

		h := handler{}
		rpcConn := jsonrpc2.NewConn(context.Background(), jsonrpc2.NewBufferedStream(conn, jsonrpc2.VSCodeObjectCodec{}), h)
		go func() {
			<-rpcConn.DisconnectNotify()
			log.Printf("ordasm-ls: connection #%d closed", connectionID)
		}()
	}
}

type handler struct{}

func (h handler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	util.LogF("ordasm-ls: received request: %s", req.Method)
	switch req.Method {
	case "initialize":
		handleInitialize(conn, req)
	case "textDocument/didOpen":
		documentOpenNotification(conn, req)
	case "textDocument/didClose":
		documentCloseNotification(conn, req)
	case "textDocument/didChange":
		documentChangeNotification(conn, req)
	case "ordasm/analyzeStatements":
		analyzeStatementsNotification(conn, req)
	case "textDocument/diagnostic":
		documentDiagnostics(conn, req)
	case "textDocument/hover":
		hoverRequest(conn, req)
	case "textDocument/definition":
		definitionRequest(conn, req)
	case "textDocument/completion":
		completionRequest(conn, req)
	case "shutdown":
		conn.Reply(context.Background(), req.ID, nil)
	case "exit":
		conn.Reply(context.Background(), req.ID, nil)
		conn.Close()
	}
}

func handleInitialize(conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	decodedParams := InitializeParams{}
	if err := json.Unmarshal(*req.Params, &decodedParams); err != nil {
		replyInvalidParams(conn, req)
		return
	}

	result := InitializeResult{}
	result.Capabilities.TextDocumentSync = 1
	result.Capabilities.HoverProvider = true
	result.Capabilities.DefinitionProvider = true
	result.Capabilities.CompletionProvider.ResolveProvider = false
	conn.Reply(context.Background(), req.ID, result)
}
