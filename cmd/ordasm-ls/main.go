// Command ordasm-ls runs the ordinary-assembly language server, in
// stdio or TCP transport mode, or a one-shot debug analysis of a
// pre-parsed statement file.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/asmtools/hlasm-ordasm/diagstream"
	"github.com/asmtools/hlasm-ordasm/ident"
	"github.com/asmtools/hlasm-ordasm/languageServer"
	"github.com/asmtools/hlasm-ordasm/ordasm"
	"github.com/asmtools/hlasm-ordasm/util"
)

func main() {
	switch {
	case len(os.Args) >= 2 && os.Args[1] == "languageServer":
		if len(os.Args) >= 3 && os.Args[2] == "debug" {
			enableDebugLogging()
		}
		languageServer.ListenAndServe()

	case len(os.Args) >= 2 && os.Args[1] == "tcp":
		if len(os.Args) >= 3 && os.Args[2] == "debug" {
			enableDebugLogging()
		}
		languageServer.ListenAndServeTCP(":2036")

	case len(os.Args) == 3 && os.Args[1] == "analyze":
		runAnalyzeDebug(os.Args[2])

	case len(os.Args) == 1:
		languageServer.ListenAndServeTCP(":2036")

	default:
		log.Fatalln("Invalid arguments:", os.Args)
	}
}

func enableDebugLogging() {
	util.LoggingEnabled = true
	srv := diagstream.NewServer(":8006")
	util.SetLogEndpoint("http://localhost:8006/log")
	go func() {
		if err := srv.Serve(); err != nil {
			log.Printf("ordasm-ls: diagstream server stopped: %v", err)
		}
	}()
}

// runAnalyzeDebug reads path as a JSON array of languageServer.WireStatement
// objects, the same statement stream a real client pushes via
// ordasm/analyzeStatements, and prints the resulting diagnostics.
func runAnalyzeDebug(path string) {
	b, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("ordasm-ls: could not read %s: %v", path, err)
	}

	interner := ident.NewInterner()
	stmts, err := languageServer.DecodeStatements(b, interner)
	if err != nil {
		log.Fatalf("ordasm-ls: could not decode statements: %v", err)
	}

	proc, err := ordasm.NewProcessor(ordasm.Options{IDStorage: interner})
	if err != nil {
		log.Fatalf("ordasm-ls: could not create processor: %v", err)
	}
	proc.Load(stmts)
	diagnostics := proc.Analyze()

	for _, d := range diagnostics {
		fmt.Printf("%d:%d: [%s] %s\n", d.Range.Start.Line+1, d.Range.Start.Char, d.Code, d.Message)
	}
	fmt.Printf("%d diagnostics\n", len(diagnostics))
}
