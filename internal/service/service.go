// Package service implements component 4.J: a gRPC front end exposing the
// top-level Compile entry point to out-of-process collaborators (a build
// planner, an IDE integration) without building those collaborators here.
//
// Grounded on the teacher's internal/evaluator/builtins_grpc.go, which
// wires google.golang.org/grpc + github.com/jhump/protoreflect's
// protoparse/dynamic packages for a `grpc` standard-library builtin
// exposing arbitrary `.proto`-described services at runtime. This package
// repurposes the exact same dynamic-message-over-a-hand-built-ServiceDesc
// technique for the compiler's own, single, fixed RPC instead of an
// arbitrary loaded one: an in-memory schema string stands in for a real
// `.proto` file (there is no protoc invocation available in this build),
// parsed once via protoparse.Parser's Accessor hook, and every
// CompileRequest/CompileResponse crosses the wire as a
// *dynamic.Message built against that schema.
package service

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"google.golang.org/grpc"

	"github.com/swaylang/swaycore/internal/diagnostics"
)

// schemaSource is the hand-written schema standing in for a real
// compiler.proto this environment cannot run protoc against. It names
// exactly the CompileRequest/CompileResponse/Diagnostic shapes SPEC_FULL.md
// §4.J specifies.
const schemaSource = `
syntax = "proto3";
package swaycore;

message Diagnostic {
  string code = 1;
  string message = 2;
  uint32 source_id = 3;
  uint32 span_start = 4;
  uint32 span_end = 5;
  string severity = 6;
}

message CompileRequest {
  string request_id = 1;
  string package_name = 2;
  bytes parsed_ast = 3;
  string program_kind = 4;
}

message CompileResponse {
  string request_id = 1;
  bytes ops = 2;
  bytes storage_manifest = 3;
  repeated Diagnostic diagnostics = 4;
  bool had_errors = 5;
}

service Compiler {
  rpc Compile(CompileRequest) returns (CompileResponse);
}
`

var (
	initOnce     sync.Once
	fileDesc     *desc.FileDescriptor
	initErr      error
	requestType  *desc.MessageDescriptor
	responseType *desc.MessageDescriptor
	diagType     *desc.MessageDescriptor
)

func initSchema() {
	parser := protoparse.Parser{
		Accessor: func(filename string) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(schemaSource)), nil
		},
	}
	fds, err := parser.ParseFiles("compiler.proto")
	if err != nil {
		initErr = fmt.Errorf("parsing embedded compiler schema: %w", err)
		return
	}
	fileDesc = fds[0]
	requestType = fileDesc.FindMessage("swaycore.CompileRequest")
	responseType = fileDesc.FindMessage("swaycore.CompileResponse")
	diagType = fileDesc.FindMessage("swaycore.Diagnostic")
}

// CompileRequest is the Go-native shape handed to a Backend, decoded from
// the wire dynamic.Message.
type CompileRequest struct {
	RequestID   string
	PackageName string
	ParsedAST   []byte
	ProgramKind string
}

// CompileResult is the Go-native shape a Backend returns, re-encoded onto
// the wire as a dynamic.Message.
type CompileResult struct {
	Ops             []byte
	StorageManifest []byte
	Diagnostics     []diagnostics.Diagnostic
	HadErrors       bool
}

// Backend is the orchestration entry point this service delegates to —
// internal/compiler.Compile, abstracted behind an interface so the service
// package never imports internal/compiler directly (avoiding a dependency
// cycle risk if the orchestrator ever needs to report service-level
// diagnostics back through this package).
type Backend interface {
	Compile(ctx context.Context, req CompileRequest) (CompileResult, error)
}

// Server is the gRPC front end. NewServer registers one Compiler service
// backed by `backend` onto a fresh *grpc.Server, mirroring the teacher's
// grpcServer()+grpcRegister() pair collapsed into one constructor since
// this service only ever exposes the one fixed RPC.
type Server struct {
	backend Backend
	grpc    *grpc.Server
}

func NewServer(backend Backend) (*Server, error) {
	initOnce.Do(initSchema)
	if initErr != nil {
		return nil, initErr
	}

	s := &Server{backend: backend, grpc: grpc.NewServer()}
	sd := fileDesc.FindService("swaycore.Compiler")
	if sd == nil {
		return nil, fmt.Errorf("service swaycore.Compiler not found in embedded schema")
	}

	svcDesc := &grpc.ServiceDesc{
		ServiceName: sd.GetFullyQualifiedName(),
		HandlerType: (*Backend)(nil),
		Metadata:    sd.GetFile().GetName(),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "Compile",
				Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
					return s.handleCompile(ctx, dec)
				},
			},
		},
	}
	s.grpc.RegisterService(svcDesc, s.backend)
	return s, nil
}

// handleCompile decodes the wire dynamic.Message into a CompileRequest,
// delegates to the backend, and re-encodes the result — the per-request
// isolation SPEC_FULL.md §5 requires ("each checker sees an isolated
// engine instance") lives entirely in the backend; this handler only
// marshals.
func (s *Server) handleCompile(ctx context.Context, dec func(interface{}) error) (interface{}, error) {
	in := dynamic.NewMessage(requestType)
	if err := dec(in); err != nil {
		return nil, err
	}

	req := CompileRequest{
		RequestID:   stringField(in, "request_id"),
		PackageName: stringField(in, "package_name"),
		ParsedAST:   bytesField(in, "parsed_ast"),
		ProgramKind: stringField(in, "program_kind"),
	}
	if req.RequestID == "" {
		req.RequestID = uuid.New().String()
	}

	result, err := s.backend.Compile(ctx, req)
	if err != nil {
		return nil, err
	}

	out := dynamic.NewMessage(responseType)
	out.SetFieldByName("request_id", req.RequestID)
	out.SetFieldByName("ops", result.Ops)
	out.SetFieldByName("storage_manifest", result.StorageManifest)
	out.SetFieldByName("had_errors", result.HadErrors)

	diags := make([]interface{}, 0, len(result.Diagnostics))
	for _, d := range result.Diagnostics {
		dm := dynamic.NewMessage(diagType)
		dm.SetFieldByName("code", d.Code)
		dm.SetFieldByName("message", d.Message)
		dm.SetFieldByName("source_id", uint32(d.Span.Source))
		dm.SetFieldByName("span_start", d.Span.Start)
		dm.SetFieldByName("span_end", d.Span.End)
		dm.SetFieldByName("severity", d.Severity.String())
		diags = append(diags, dm)
	}
	out.SetFieldByName("diagnostics", diags)

	return out, nil
}

func stringField(m *dynamic.Message, name string) string {
	v, err := m.TryGetFieldByName(name)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func bytesField(m *dynamic.Message, name string) []byte {
	v, err := m.TryGetFieldByName(name)
	if err != nil {
		return nil
	}
	b, _ := v.([]byte)
	return b
}

// Serve blocks accepting connections on addr, matching the teacher's
// grpcServe(server, addr) blocking-accept shape.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.grpc.Serve(lis)
}

// Stop gracefully drains in-flight RPCs before returning, matching the
// teacher's grpcStop builtin.
func (s *Server) Stop() {
	s.grpc.GracefulStop()
}
