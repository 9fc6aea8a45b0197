package compiler

import (
	"context"
	"encoding/hex"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/swaylang/swaycore/internal/cfg"
	"github.com/swaylang/swaycore/internal/check"
	"github.com/swaylang/swaycore/internal/codegen"
	"github.com/swaylang/swaycore/internal/decl"
	"github.com/swaylang/swaycore/internal/diagnostics"
	"github.com/swaylang/swaycore/internal/ids"
	"github.com/swaylang/swaycore/internal/parsetree"
	"github.com/swaylang/swaycore/internal/service"
	"github.com/swaylang/swaycore/internal/storage"
	"github.com/swaylang/swaycore/internal/typed"
)

// Options configures one Compile call. Each call gets its own Checker,
// type engine and declaration store (spec.md §5: "each checker sees an
// isolated engine instance... no global mutable state is shared across
// concurrent compiles").
type Options struct {
	PackageName string
	Kind        parsetree.ProgramKind
	IsCore      bool
	HasStd      bool

	// Cancel, polled between top-level declarations and again between
	// lowered functions, implements spec.md §5's cooperative cancellation:
	// "checked between basic blocks; on cancel the assembler returns
	// whatever partial op sequence it has accumulated, tagged as invalid."
	Cancel func() bool
}

// Result is everything one Compile call produces.
type Result struct {
	Ops             []codegen.Op
	Data            *codegen.DataSection
	Meta            *codegen.MetadataTable
	StorageManifest []byte // YAML-rendered storage.Layout per field, for human inspection
	Diagnostics     []diagnostics.Diagnostic
	HadErrors       bool
	// Invalid is set when Cancel fired before lowering finished; Ops holds
	// only the partial sequence accumulated up to that point.
	Invalid bool
}

// Compile checks prog end-to-end and lowers each entry-point function
// (every function for contracts and libraries, only `main` for scripts
// and predicates) to codegen ops, deriving a storage manifest from any KindStorage
// declaration found along the way. Program kind is taken as a direct
// parameter rather than read from a package-manifest file (SPEC_FULL.md's
// restated Non-goal: "forc.toml-class program-kind declaration is
// explicitly out of scope").
func Compile(prog *parsetree.Program, opts Options) (*Result, error) {
	c := check.New(opts.PackageName, opts.Kind, opts.IsCore, opts.HasStd)
	c.Cancel = opts.Cancel

	declIDs := c.CheckProgram(prog)

	funcs := map[ids.DeclId]*decl.FunctionData{}
	var entries []ids.DeclId
	var storageDecl *decl.StorageData
	entryPolicy := c.EntryPointPolicy()
	for _, id := range declIDs {
		term := c.Store.Get(id)
		switch term.Kind {
		case decl.KindFunction:
			funcs[id] = term.Function
			if entryPolicy == "all-public" || term.Name == "main" {
				entries = append(entries, id)
			}
		case decl.KindStorage:
			storageDecl = term.Storage
		}
	}

	cfg.ReportDeadCode(c.Sink, funcs, entries)

	res := &Result{}
	gen := codegen.NewGenerator(c.Store, c.Engine)
	// Polled once before lowering as well, so a cancellation that cut
	// checking short (possibly leaving no entries) still marks the result.
	res.Invalid = opts.Cancel != nil && opts.Cancel()
	for _, id := range entries {
		if res.Invalid || (opts.Cancel != nil && opts.Cancel()) {
			res.Invalid = true
			break
		}
		term := c.Store.Get(id)
		gen.LowerFunction(term.Name, term.Function, term.Span)
	}
	res.Ops = gen.Ops
	res.Data = gen.Data
	res.Meta = gen.Meta

	if storageDecl != nil && !res.Invalid {
		manifest, err := buildStorageManifest(c, storageDecl)
		if err != nil {
			return nil, err
		}
		res.StorageManifest = manifest
	}

	res.Diagnostics = append(res.Diagnostics, c.Sink.Errors()...)
	res.Diagnostics = append(res.Diagnostics, c.Sink.Warnings()...)
	res.HadErrors = c.Sink.HasErrors()
	return res, nil
}

// manifestField is one storage.yaml entry: the field's dotted path, its
// derived slot key, and the word-sliced byte layout serialized into it.
// This is an output artifact for operators/tooling to inspect a deployed
// contract's slot layout, never a program-kind or build input (contrast
// with the out-of-scope forc.toml).
type manifestField struct {
	Path string            `yaml:"path"`
	Key  string            `yaml:"key"`
	Slots map[string]string `yaml:"slots"`
}

func buildStorageManifest(c *check.Checker, sd *decl.StorageData) ([]byte, error) {
	fields := make([]manifestField, 0, len(sd.Fields))
	for _, f := range sd.Fields {
		key := storage.DeriveFieldKey(f.Namespace, f.Name, f.OverrideKey)
		// checkStorageDecl stores the checked typed.Node directly in
		// Initializer (declared interface{} in decl.StorageFieldDecl only
		// so that package never has to import internal/typed).
		layout, err := storage.Serialize(c.Engine, c.Store, f.Initializer.(typed.Node))
		if err != nil {
			return nil, fmt.Errorf("serializing storage field %q: %w", f.Name, err)
		}
		slots := layout.Slots(key)
		encoded := make(map[string]string, len(slots))
		for slotKey, word := range slots {
			encoded[hex.EncodeToString(slotKey[:])] = hex.EncodeToString(word)
		}
		path := f.Name
		for i := len(f.Namespace) - 1; i >= 0; i-- {
			path = f.Namespace[i] + "." + path
		}
		fields = append(fields, manifestField{Path: path, Key: hex.EncodeToString(key[:]), Slots: encoded})
	}
	out, err := yaml.Marshal(struct {
		Fields []manifestField `yaml:"fields"`
	}{Fields: fields})
	if err != nil {
		return nil, fmt.Errorf("rendering storage manifest: %w", err)
	}
	return out, nil
}

// Backend adapts Compile to internal/service.Backend, decoding the wire
// request's ParsedAST with this package's own gob codec (see wire.go).
type Backend struct {
	IsCore bool
	HasStd bool
}

func (b Backend) Compile(ctx context.Context, req service.CompileRequest) (service.CompileResult, error) {
	prog, err := DecodeProgram(req.ParsedAST)
	if err != nil {
		return service.CompileResult{}, err
	}
	kind, err := ProgramKindOf(req.ProgramKind)
	if err != nil {
		return service.CompileResult{}, err
	}

	res, err := Compile(prog, Options{
		PackageName: req.PackageName,
		Kind:        kind,
		IsCore:      b.IsCore,
		HasStd:      b.HasStd,
		Cancel: func() bool {
			return ctx.Err() != nil
		},
	})
	if err != nil {
		return service.CompileResult{}, err
	}

	return service.CompileResult{
		Ops:             encodeOps(res.Ops),
		StorageManifest: res.StorageManifest,
		Diagnostics:     res.Diagnostics,
		HadErrors:       res.HadErrors,
	}, nil
}

// ProgramKindOf maps the wire/CLI program-kind name to its parsetree
// representation.
func ProgramKindOf(name string) (parsetree.ProgramKind, error) {
	switch name {
	case "script":
		return parsetree.Script, nil
	case "predicate":
		return parsetree.Predicate, nil
	case "contract":
		return parsetree.Contract, nil
	case "library":
		return parsetree.Library, nil
	default:
		return 0, fmt.Errorf("unknown program kind %q", name)
	}
}

