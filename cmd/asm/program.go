// Package asm implements `fwcas asm`: it loads a structured program
// description, drives the control-flow compiler over it, and writes the
// resulting ForwardCom object file. The textual lexer is an external
// collaborator; this front end consumes the already-tokenized program
// shape serialized as YAML.
package asm

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwcasm"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcasm/scode"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwccontrol"
	"github.com/forwardcom-toolchain/fwcas/pkg/fwcdiag"
	"gopkg.in/yaml.v3"
)

// Program is the on-disk program description.
type Program struct {
	Statements []Statement `yaml:"program"`
}

// Statement is one line of the program; exactly one field is set.
type Statement struct {
	Label    string     `yaml:"label,omitempty"`
	Instr    *InstrSpec `yaml:"instr,omitempty"`
	If       *CondSpec  `yaml:"if,omitempty"`
	IfJump   *IfJump    `yaml:"if_jump,omitempty"`
	Else     bool       `yaml:"else,omitempty"`
	While    *CondSpec  `yaml:"while,omitempty"`
	Do       bool       `yaml:"do,omitempty"`
	DoWhile  *CondSpec  `yaml:"do_while,omitempty"`
	For      *ForSpec   `yaml:"for,omitempty"`
	ForIn    *ForInSpec `yaml:"for_in,omitempty"`
	Break    bool       `yaml:"break,omitempty"`
	Continue bool       `yaml:"continue,omitempty"`
	Push     *PushSpec  `yaml:"push,omitempty"`
	Pop      *PushSpec  `yaml:"pop,omitempty"`
	Switch   bool       `yaml:"switch,omitempty"`
	End      bool       `yaml:"end,omitempty"`
}

// IfJump is the empty-body shortcut: an if whose body is one jump.
type IfJump struct {
	Cond   CondSpec `yaml:",inline"`
	Target string   `yaml:"target"`
}

// CondSpec describes a comparison header.
type CondSpec struct {
	Type  string `yaml:"type,omitempty"`
	Reg   string `yaml:"reg"`
	Cmp   string `yaml:"cmp"`
	Value *int64 `yaml:"value,omitempty"`
	Reg2  string `yaml:"reg2,omitempty"`
}

// InstrSpec describes a plain instruction line.
type InstrSpec struct {
	Op     string `yaml:"op"`
	Type   string `yaml:"type,omitempty"`
	Dest   string `yaml:"dest,omitempty"`
	Reg1   string `yaml:"reg1,omitempty"`
	Reg2   string `yaml:"reg2,omitempty"`
	Imm    *int64 `yaml:"imm,omitempty"`
	Target string `yaml:"target,omitempty"`
}

// ForSpec carries the three clauses of a for header.
type ForSpec struct {
	Init InstrSpec `yaml:"init"`
	Cond CondSpec  `yaml:"cond"`
	Incr InstrSpec `yaml:"incr"`
}

// ForInSpec carries the vector strip-mining header.
type ForInSpec struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
	Base  string `yaml:"base"`
	Index string `yaml:"index"`
}

// PushSpec carries push/pop operands; Stack defaults to the stack
// pointer and Last to the first register's own index.
type PushSpec struct {
	Type  string `yaml:"type,omitempty"`
	Stack string `yaml:"stack,omitempty"`
	First string `yaml:"first"`
	Last  *uint8 `yaml:"last,omitempty"`
}

// Load parses a YAML program description.
func Load(data []byte) (*Program, error) {
	var p Program
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

var opNames = map[string]scode.Op{
	"nop":     scode.OpNop,
	"move":    scode.OpMove,
	"add":     scode.OpAdd,
	"sub":     scode.OpSub,
	"and":     scode.OpAnd,
	"or":      scode.OpOr,
	"xor":     scode.OpXor,
	"compare": scode.OpCompare,
	"jump":    scode.OpJump,
}

func parseRegister(name string) (scode.Register, error) {
	if len(name) < 2 {
		return scode.Register{}, fmt.Errorf("bad register %q", name)
	}
	index, err := strconv.Atoi(name[1:])
	if err != nil || index < 0 || index > 31 {
		return scode.Register{}, fmt.Errorf("bad register %q", name)
	}
	switch name[0] {
	case 'r':
		return scode.Gen(uint8(index)), nil
	case 'v':
		return scode.Vec(uint8(index)), nil
	case 's':
		return scode.Spc(uint8(index)), nil
	}
	return scode.Register{}, fmt.Errorf("bad register %q", name)
}

func parseType(name string) (scode.DataType, error) {
	if name == "" {
		return scode.Int32, nil
	}
	var mods scode.DataType
	if strings.HasSuffix(name, "+") {
		mods |= scode.Plus
		name = strings.TrimSuffix(name, "+")
	}
	if strings.HasPrefix(name, "u") && name != "uint" {
		mods |= scode.Unsigned
		name = strings.TrimPrefix(name, "u")
	}
	base, ok := map[string]scode.DataType{
		"int8":    scode.Int8,
		"int16":   scode.Int16,
		"int32":   scode.Int32,
		"int64":   scode.Int64,
		"float16": scode.Float16,
		"float32": scode.Float32,
		"float64": scode.Float64,
		"float":   scode.Float32,
	}[name]
	if !ok {
		return 0, fmt.Errorf("bad operand type %q", name)
	}
	return base | mods, nil
}

// predicate/invert encoding of the raw COMPARE optionbits field.
var cmpBits = map[string]uint8{
	"==": 0x0,
	"!=": 0x1,
	"<":  0x2,
	">=": 0x3,
	">":  0x4,
	"<=": 0x5,
}

func (c CondSpec) scode() (scode.SCode, error) {
	bits, ok := cmpBits[c.Cmp]
	if !ok {
		return scode.SCode{}, fmt.Errorf("bad comparison %q", c.Cmp)
	}
	dtype, err := parseType(c.Type)
	if err != nil {
		return scode.SCode{}, err
	}
	reg, err := parseRegister(c.Reg)
	if err != nil {
		return scode.SCode{}, err
	}

	out := scode.SCode{
		Instruction: scode.MakeInstruction(scode.OpCompare),
		DType:       dtype,
		EType:       scode.EHasReg1,
		Reg1:        reg,
		OptionBits:  bits,
	}
	switch {
	case c.Reg2 != "":
		reg2, err := parseRegister(c.Reg2)
		if err != nil {
			return scode.SCode{}, err
		}
		out.Reg2 = reg2
		out.EType = out.EType.With(scode.EHasReg2)
	case c.Value != nil:
		out.Value = scode.ImmSigned(*c.Value)
		out.EType = out.EType.With(scode.EHasImmInt)
	default:
		return scode.SCode{}, fmt.Errorf("comparison needs a value or a second register")
	}
	return out, nil
}

func (s InstrSpec) scode(asm *fwcasm.Assembler) (scode.SCode, error) {
	op, ok := opNames[s.Op]
	if !ok {
		return scode.SCode{}, fmt.Errorf("unknown instruction %q", s.Op)
	}
	dtype, err := parseType(s.Type)
	if err != nil {
		return scode.SCode{}, err
	}

	out := scode.SCode{Instruction: scode.MakeInstruction(op), DType: dtype}
	if s.Dest != "" {
		if out.Dest, err = parseRegister(s.Dest); err != nil {
			return scode.SCode{}, err
		}
	}
	if s.Reg1 != "" {
		if out.Reg1, err = parseRegister(s.Reg1); err != nil {
			return scode.SCode{}, err
		}
		out.EType = out.EType.With(scode.EHasReg1)
	}
	if s.Reg2 != "" {
		if out.Reg2, err = parseRegister(s.Reg2); err != nil {
			return scode.SCode{}, err
		}
		out.EType = out.EType.With(scode.EHasReg2)
	}
	if s.Imm != nil {
		out.Value = scode.ImmSigned(*s.Imm)
		out.EType = out.EType.With(scode.EHasImmInt)
	}
	if s.Target != "" {
		out.Sym5 = asm.DefineLabel(s.Target)
		out.EType = out.EType.With(scode.EHasJumpOffset)
	}
	return out, nil
}

// Apply replays the program into the assembler through the control-flow
// compiler, once per pass.
func (p *Program) Apply(a *fwcasm.Assembler) error {
	c := fwccontrol.New(a)

	for line, stmt := range p.Statements {
		pos := fwcdiag.Position{File: "program", Line: line + 1, Column: 1}
		c.SetPosition(pos)
		a.Reporter.BeginLine()

		if err := applyStatement(c, a, stmt, line); err != nil {
			a.Reporter.Report(fwcdiag.ErrUnfinishedInstruction, pos, err.Error())
		}
	}
	return nil
}

func applyStatement(c *fwccontrol.Compiler, a *fwcasm.Assembler, stmt Statement, line int) error {
	switch {
	case stmt.Label != "":
		a.EmitLabel(a.DefineLabel(stmt.Label))

	case stmt.Instr != nil:
		code, err := stmt.Instr.scode(a)
		if err != nil {
			return err
		}
		a.Emit(code)

	case stmt.IfJump != nil:
		cond, err := stmt.IfJump.Cond.scode()
		if err != nil {
			return err
		}
		c.BodyJump(cond, a.DefineLabel(stmt.IfJump.Target))

	case stmt.If != nil:
		cond, err := stmt.If.scode()
		if err != nil {
			return err
		}
		c.If(cond, line)

	case stmt.Else:
		c.Else()

	case stmt.While != nil:
		cond, err := stmt.While.scode()
		if err != nil {
			return err
		}
		c.While(cond, line)

	case stmt.Do:
		c.Do(line)

	case stmt.DoWhile != nil:
		cond, err := stmt.DoWhile.scode()
		if err != nil {
			return err
		}
		c.EndDoWhile(cond)

	case stmt.For != nil:
		init, err := stmt.For.Init.scode(a)
		if err != nil {
			return err
		}
		cond, err := stmt.For.Cond.scode()
		if err != nil {
			return err
		}
		incr, err := stmt.For.Incr.scode(a)
		if err != nil {
			return err
		}
		c.For([]scode.SCode{init}, cond, []scode.SCode{incr}, line)

	case stmt.ForIn != nil:
		elemType, err := parseType(stmt.ForIn.Type)
		if err != nil {
			return err
		}
		v, err := parseRegister(stmt.ForIn.Value)
		if err != nil {
			return err
		}
		base, err := parseRegister(stmt.ForIn.Base)
		if err != nil {
			return err
		}
		index, err := parseRegister(stmt.ForIn.Index)
		if err != nil {
			return err
		}
		c.ForIn(v, elemType, base, index, line)

	case stmt.Break:
		c.Break()

	case stmt.Continue:
		c.Continue()

	case stmt.Push != nil:
		dtype, stack, first, last, err := stmt.Push.operands()
		if err != nil {
			return err
		}
		c.Push(dtype, stack, first, last)

	case stmt.Pop != nil:
		dtype, stack, first, last, err := stmt.Pop.operands()
		if err != nil {
			return err
		}
		c.Pop(dtype, stack, first, last)

	case stmt.Switch:
		c.Switch(line)

	case stmt.End:
		c.EndBlock()

	default:
		return fmt.Errorf("empty statement")
	}
	return nil
}

func (s PushSpec) operands() (scode.DataType, scode.Register, scode.Register, uint8, error) {
	dtype, err := parseType(s.Type)
	if err != nil {
		return 0, scode.Register{}, scode.Register{}, 0, err
	}
	first, err := parseRegister(s.First)
	if err != nil {
		return 0, scode.Register{}, scode.Register{}, 0, err
	}

	stack := fwccontrol.DefaultStackPointer
	if s.Stack != "" {
		if stack, err = parseRegister(s.Stack); err != nil {
			return 0, scode.Register{}, scode.Register{}, 0, err
		}
	}
	last := first.Index
	if s.Last != nil {
		last = *s.Last
	}
	return dtype, stack, first, last, nil
}
