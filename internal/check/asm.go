package check

import (
	"fmt"

	"github.com/swaylang/swaycore/internal/decl"
	"github.com/swaylang/swaycore/internal/diagnostics"
	"github.com/swaylang/swaycore/internal/opcode"
	"github.com/swaylang/swaycore/internal/parsetree"
	"github.com/swaylang/swaycore/internal/typed"
	"github.com/swaylang/swaycore/internal/types"
)

// reservedRegisters are the VM's always-available special-purpose
// registers, addressable from inline ASM without a `let`-style
// declaration (spec.md §6 register file).
var reservedRegisters = map[string]bool{
	"zero": true, "one": true, "of": true, "pc": true,
	"ssp": true, "sp": true, "fp": true, "hp": true, "err": true, "ggas": true, "cgas": true, "ret": true, "retl": true, "bal": true, "is": true, "flag": true,
}

// checkAsmBlock checks one inline ASM block (spec.md §4.D "inline ASM
// checking"): every register operand must be either a reserved register,
// one of the block's own declared registers, or emits UnknownRegister.
func (c *Checker) checkAsmBlock(v *parsetree.AsmBlockExpr, purity decl.Purity) typed.Node {
	declared := map[string]bool{}
	for k := range reservedRegisters {
		declared[k] = true
	}

	regs := make([]typed.AsmRegister, 0, len(v.Registers))
	for _, r := range v.Registers {
		var init *typed.Node
		if r.Initializer != nil {
			n := c.CheckExpr(r.Initializer, purity)
			init = &n
		}
		declared[r.Name] = true
		regs = append(regs, typed.AsmRegister{Name: r.Name, Initializer: init})
	}

	instrs := make([]typed.AsmInstruction, 0, len(v.Body))
	for _, ins := range v.Body {
		if _, ok := opcode.Lookup(ins.Opcode); !ok {
			c.Sink.Error(diagnostics.Internal(fmt.Sprintf("unrecognized opcode mnemonic %q", ins.Opcode), ins.At))
		}
		for _, operand := range ins.Operands {
			if isImmediateOperand(operand) {
				continue
			}
			if !declared[operand] {
				c.Sink.Error(diagnostics.NewError(diagnostics.ErrUnknownRegister, ins.At,
					fmt.Sprintf("unknown register %q", operand)))
			}
		}
		instrs = append(instrs, typed.AsmInstruction{At: ins.At, Opcode: ins.Opcode, Operands: ins.Operands})
	}

	retType := c.ResolveType(v.ReturnType)
	if v.ReturnReg != "" && !declared[v.ReturnReg] {
		c.Sink.Error(diagnostics.NewError(diagnostics.ErrUnknownRegister, v.NodeSpan,
			fmt.Sprintf("unknown return register %q", v.ReturnReg)))
	}
	if v.ReturnType == nil {
		retType = c.Engine.Insert(types.TupleTerm{}, v.NodeSpan.Source)
	}

	return typed.Node{
		Type: retType,
		Span: v.NodeSpan,
		Expr: typed.AsmBlock{Registers: regs, Body: instrs, ReturnReg: v.ReturnReg},
	}
}

func isImmediateOperand(s string) bool {
	if s == "" {
		return true
	}
	c := s[0]
	return c >= '0' && c <= '9'
}
