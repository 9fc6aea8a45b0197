// Command swaycore is a thin local-development entry point over
// internal/compiler.Compile. The lexer/grammar driver that turns `.sw`
// source text into a parsetree.Program is deliberately out of scope
// (spec.md §1), so this binary's "source" input is the same gob-encoded
// parsetree.Program internal/compiler/wire.go already defines for the
// gRPC wire contract — whatever produced that AST (an external parser,
// or internal/service.Server fed by one) is this binary's only supported
// upstream. The CLI surface itself is out of scope per spec.md §6; this
// exists to drive the pipeline end-to-end during local development, the
// same role the teacher's cmd/funxy/main.go plays for its own pipeline.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/swaylang/swaycore/internal/compiler"
	"github.com/swaylang/swaycore/internal/config"
	"github.com/swaylang/swaycore/internal/service"
)

func main() {
	var (
		astPath     = flag.String("ast", "", "path to a gob-encoded parsetree.Program")
		pkgName     = flag.String("pkg", "", "package name")
		kind        = flag.String("kind", "script", "program kind: script, predicate, contract, library")
		serveAddr   = flag.String("serve", "", "instead of compiling once, serve the Compile RPC on this address")
		testMode    = flag.Bool("test", false, "set config.IsTestMode for a test-harness run")
		incremental = flag.Bool("incremental", false, "set config.IsIncrementalMode for a long-lived incremental session")
		storageOut  = flag.String("storage-out", "", "write the YAML storage manifest to this path instead of discarding it")
	)
	flag.Parse()

	config.IsTestMode = *testMode
	config.IsIncrementalMode = *incremental

	logger := newLogger()

	if *serveAddr != "" {
		srv, err := service.NewServer(compiler.Backend{})
		if err != nil {
			logger.Fatalf("building compile service: %v", err)
		}
		logger.Printf("serving Compile RPC on %s", *serveAddr)
		if err := srv.Serve(*serveAddr); err != nil {
			logger.Fatalf("serving: %v", err)
		}
		return
	}

	if *astPath == "" {
		fmt.Fprintln(os.Stderr, "usage: swaycore -ast <program.gob> -pkg <name> [-kind script|predicate|contract|library]")
		os.Exit(2)
	}

	data, err := os.ReadFile(*astPath)
	if err != nil {
		logger.Fatalf("reading %s: %v", *astPath, err)
	}
	prog, err := compiler.DecodeProgram(data)
	if err != nil {
		logger.Fatalf("decoding %s: %v", *astPath, err)
	}
	progKind, err := compiler.ProgramKindOf(*kind)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	result, err := compiler.Compile(prog, compiler.Options{PackageName: *pkgName, Kind: progKind})
	if err != nil {
		logger.Fatalf("compile: %v", err)
	}

	for _, d := range result.Diagnostics {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", d.Severity, d.Code, d.Message)
	}
	if result.HadErrors {
		os.Exit(1)
	}

	for _, op := range result.Ops {
		fmt.Println(op.String())
	}
	if len(result.StorageManifest) > 0 {
		if *storageOut == "" {
			logger.Printf("storage manifest (%d bytes) discarded; pass -storage-out to write it", len(result.StorageManifest))
		} else if err := os.WriteFile(*storageOut, result.StorageManifest, 0o644); err != nil {
			logger.Fatalf("writing storage manifest: %v", err)
		}
	}
}

// newLogger gates ANSI styling on whether stderr is an interactive
// terminal (go-isatty), never on what gets logged — diagnostics
// themselves are always plain text, matching SPEC_FULL.md's explicit
// scoping note that terminal detection is cosmetic only.
func newLogger() *log.Logger {
	prefix := "swaycore: "
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		prefix = "\033[2mswaycore:\033[0m "
	}
	return log.New(os.Stderr, prefix, 0)
}
