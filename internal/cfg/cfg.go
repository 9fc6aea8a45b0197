// Package cfg implements the post-check control-flow graph and dead-code
// pass (spec.md §4.E): "construct a per-program graph whose nodes are
// either program nodes (typed AST statements) or organizational dominators
// ..., and whose edges carry descriptive strings. Identify nodes
// unreachable from any declared entry point and report them as DeadCode
// warnings."
//
// Grounded on the teacher's internal/analyzer package's top-down,
// per-declaration driver shape (processor.go), generalized from a
// single-pass type-check driver into a two-pass build-then-query graph
// walk, since reachability needs the whole graph built before it can
// answer "is node N reachable from any entry".
package cfg

import (
	"fmt"

	"github.com/swaylang/swaycore/internal/decl"
	"github.com/swaylang/swaycore/internal/diagnostics"
	"github.com/swaylang/swaycore/internal/ids"
	"github.com/swaylang/swaycore/internal/source"
	"github.com/swaylang/swaycore/internal/typed"
)

// NodeKind distinguishes a real program node from an organizational
// dominator the builder inserts to give branches/calls/returns somewhere
// to join or jump to.
type NodeKind int

const (
	KindStatement NodeKind = iota
	KindDominator
)

// Node is one vertex of the whole-program graph. Statement nodes carry the
// source span spec.md §4.E's convexity filter compares against; dominator
// nodes carry a descriptive Label instead (e.g. "fn3-exit", "if-join")
// and are never themselves reported as dead code.
type Node struct {
	ID    int
	Kind  NodeKind
	Span  source.Span
	Label string
}

// Edge is one directed connection, annotated with why it exists (spec.md
// §4.E: "edges carry descriptive strings"), e.g. "sequential",
// "then-fallthrough", "else-fallthrough", "call", "return".
type Edge struct {
	To   int
	Desc string
}

// Graph is the full per-program control-flow graph: every checked
// function's body, connected to every other function it calls, rooted at
// the program's declared entry points.
type Graph struct {
	Nodes   []Node
	succ    map[int][]Edge
	Entries []int
}

func (g *Graph) Successors(id int) []Edge { return g.succ[id] }

type builder struct {
	g       *Graph
	funcs   map[ids.DeclId]*decl.FunctionData
	entryOf map[ids.DeclId]int // function entry dominator node id
	built   map[ids.DeclId]bool
}

// BuildProgram constructs the whole-program graph over every checked
// function, per spec.md §4.E. entries names the DeclIds that are the
// program's entry points under the active EntryPointPolicy (spec.md §4.E:
// "main" for scripts/predicates, every declared function for
// contracts/libraries).
func BuildProgram(funcs map[ids.DeclId]*decl.FunctionData, entries []ids.DeclId) *Graph {
	g := &Graph{succ: map[int][]Edge{}}
	b := &builder{g: g, funcs: funcs, entryOf: map[ids.DeclId]int{}, built: map[ids.DeclId]bool{}}
	for id := range funcs {
		b.entryOf[id] = b.addDominator(fmt.Sprintf("fn%d-entry", id))
	}
	for _, id := range entries {
		if entry, ok := b.entryOf[id]; ok {
			g.Entries = append(g.Entries, entry)
		}
	}
	for id := range funcs {
		b.buildFunction(id)
	}
	return g
}

func (b *builder) addNode(n Node) int {
	n.ID = len(b.g.Nodes)
	b.g.Nodes = append(b.g.Nodes, n)
	return n.ID
}

func (b *builder) addDominator(label string) int {
	return b.addNode(Node{Kind: KindDominator, Label: label})
}

func (b *builder) addStatement(span source.Span) int {
	return b.addNode(Node{Kind: KindStatement, Span: span})
}

func (b *builder) addEdge(from, to int, desc string) {
	b.g.succ[from] = append(b.g.succ[from], Edge{To: to, Desc: desc})
}

func (b *builder) buildFunction(id ids.DeclId) {
	if b.built[id] {
		return
	}
	b.built[id] = true
	fn := b.funcs[id]
	body, ok := fn.Body.(*typed.CodeBlock)
	if !ok || body == nil {
		return
	}
	entry := b.entryOf[id]
	exit := b.addDominator(fmt.Sprintf("fn%d-exit", id))

	last := b.buildBlock(body, entry, exit)
	if last >= 0 {
		b.addEdge(last, exit, "implicit-return")
	}
}

// buildBlock lays out one code block's statements plus tail expression in
// sequence, wiring each to `entry` (or the previous statement) and
// returning the id of the last node reached by fall-through control flow,
// or -1 if the block unconditionally diverges (e.g. every path returns).
//
// A diverging statement does not stop the loop: later statements still get
// built as graph nodes (with no inbound edge from the diverged point) so
// they show up as unreachable rather than silently missing from the graph
// entirely — they are exactly the dead code this pass exists to report.
func (b *builder) buildBlock(block *typed.CodeBlock, entry int, fnExit int) int {
	cur := entry
	for _, stmt := range block.Statements {
		cur = b.buildStatement(stmt, cur, fnExit)
	}
	if block.Contents != nil {
		return b.buildExprTail(*block.Contents, cur, fnExit)
	}
	return cur
}

// buildStatement wires one statement after `pred` (pred may be -1, meaning
// "no live predecessor" for a statement following a diverging one; the
// node is still created, just left unreached), descending into nested
// expressions (if/else and blocks; match is not descended into) that
// themselves fork/join, and returns the
// fall-through successor id, or -1 if the statement unconditionally
// diverges to fnExit (a `return`).
func (b *builder) buildStatement(stmt typed.Statement, pred int, fnExit int) int {
	switch s := stmt.(type) {
	case typed.ReturnStatement:
		n := b.addStatement(s.Value.Span)
		if pred >= 0 {
			b.addEdge(pred, n, "sequential")
		}
		b.wireExpr(s.Value.Expr, n, fnExit)
		b.addEdge(n, fnExit, "return")
		return -1
	case typed.LetStatement:
		n := b.addStatement(s.Value.Span)
		if pred >= 0 {
			b.addEdge(pred, n, "sequential")
		}
		b.wireExpr(s.Value.Expr, n, fnExit)
		return n
	case typed.ExprStatement:
		n := b.addStatement(s.Expr.Span)
		if pred >= 0 {
			b.addEdge(pred, n, "sequential")
		}
		return b.wireExpr(s.Expr.Expr, n, fnExit)
	default:
		return pred
	}
}

// buildExprTail wires a block's implicit-return tail expression; unlike a
// mid-block statement it has no further fall-through successor of its own,
// so callers chain off whatever wireExpr returns.
func (b *builder) buildExprTail(n typed.Node, pred int, fnExit int) int {
	id := b.addStatement(n.Span)
	if pred >= 0 {
		b.addEdge(pred, id, "sequential")
	}
	return b.wireExpr(n.Expr, id, fnExit)
}

// wireExpr descends into the control-flow-relevant expression shapes
// (if/else forking, nested blocks, function calls) and returns the node
// fall-through continues from afterward. For expressions with no internal
// control flow, `pred` itself is both the statement node and the
// continuation point.
func (b *builder) wireExpr(e typed.Expr, pred int, fnExit int) int {
	switch v := e.(type) {
	case typed.If:
		// buildBlock(v.Then, pred, ...) wires pred -> first-then-statement
		// itself (as a "sequential" edge); the branch's own Cond already
		// lives in `pred`'s statement node, so no separate "then-branch"
		// edge is needed here.
		join := b.addDominator("if-join")
		thenLast := b.buildBlock(v.Then, pred, fnExit)
		if thenLast >= 0 {
			b.addEdge(thenLast, join, "then-fallthrough")
		}
		if v.Else != nil {
			elseLast := b.wireExpr(v.Else, pred, fnExit)
			if elseLast >= 0 {
				b.addEdge(elseLast, join, "else-fallthrough")
			}
		} else {
			b.addEdge(pred, join, "no-else-fallthrough")
		}
		return join
	case typed.CodeBlock:
		return b.buildBlock(&v, pred, fnExit)
	case *typed.CodeBlock:
		return b.buildBlock(v, pred, fnExit)
	case typed.FunctionApplication:
		if callee, ok := b.entryOf[v.FunctionDecl]; ok {
			b.addEdge(pred, callee, "call")
		}
		return pred
	default:
		return pred
	}
}

// Unreachable walks the graph from every declared entry and returns every
// statement node no path reaches, filtered per spec.md §4.E's convexity
// rule ("filter out any node whose span is fully contained in another
// unreachable node's span, to avoid redundant warnings"), in Node.ID
// order. Node ids follow build order, and BuildProgram builds functions in
// map iteration order, so the order across functions is not source order.
func (g *Graph) Unreachable() []Node {
	visited := make([]bool, len(g.Nodes))
	queue := append([]int{}, g.Entries...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		for _, e := range g.succ[id] {
			if !visited[e.To] {
				queue = append(queue, e.To)
			}
		}
	}

	var dead []Node
	for id, n := range g.Nodes {
		if n.Kind != KindStatement || visited[id] {
			continue
		}
		dead = append(dead, n)
	}

	var convex []Node
	for _, n := range dead {
		contained := false
		for _, other := range dead {
			if other.ID == n.ID {
				continue
			}
			if other.Span == n.Span {
				continue // identical span: neither strictly contains the other
			}
			if other.Span.Contains(n.Span) {
				contained = true
				break
			}
		}
		if !contained {
			convex = append(convex, n)
		}
	}
	return convex
}

// ReportDeadCode builds the whole-program graph and emits one DeadCode
// warning per surviving unreachable node (spec.md §4.E).
func ReportDeadCode(sink *diagnostics.Sink, funcs map[ids.DeclId]*decl.FunctionData, entries []ids.DeclId) {
	g := BuildProgram(funcs, entries)
	for _, n := range g.Unreachable() {
		sink.Warning(diagnostics.NewWarning(diagnostics.WarnDeadCode, n.Span, "unreachable code"))
	}
}
