// Package fwctoken defines the lexed atom consumed by the control-flow
// compiler. The lexer itself is an external collaborator; this package
// only supplies the token shape and its value union.
package fwctoken

import "fmt"

// Kind discriminates what a Token represents.
type Kind uint

const (
	KindName Kind = iota
	KindLabel
	KindSection
	KindInstruction
	KindOperator
	KindNumber
	KindFloat
	KindChar
	KindString
	KindDirective
	KindAttribute
	KindType
	KindOption
	KindRegister
	KindSymbol
	KindExpression
	KindKeyword
)

func (k Kind) String() string {
	switch k {
	case KindName:
		return "Name"
	case KindLabel:
		return "Label"
	case KindSection:
		return "Section"
	case KindInstruction:
		return "Instruction"
	case KindOperator:
		return "Operator"
	case KindNumber:
		return "Number"
	case KindFloat:
		return "Float"
	case KindChar:
		return "Char"
	case KindString:
		return "String"
	case KindDirective:
		return "Directive"
	case KindAttribute:
		return "Attribute"
	case KindType:
		return "Type"
	case KindOption:
		return "Option"
	case KindRegister:
		return "Register"
	case KindSymbol:
		return "Symbol"
	case KindExpression:
		return "Expression"
	case KindKeyword:
		return "Keyword"
	}

	panic("unreachable")
}

// ValueKind discriminates Token.Value's union member.
type ValueKind uint

const (
	ValueNone ValueKind = iota
	ValueInt
	ValueFloat
	ValueStringIndex
)

// Value is the token payload union: exactly one member is meaningful,
// selected by Kind.
type Value struct {
	Kind        ValueKind
	Int         int64
	Float       float64
	StringIndex int
}

func IntValue(v int64) Value { return Value{Kind: ValueInt, Int: v} }
func FloatValue(v float64) Value {
	return Value{Kind: ValueFloat, Float: v}
}
func StringIndexValue(index int) Value {
	return Value{Kind: ValueStringIndex, StringIndex: index}
}

func (v Value) String() string {
	switch v.Kind {
	case ValueInt:
		return fmt.Sprint(v.Int)
	case ValueFloat:
		return fmt.Sprint(v.Float)
	case ValueStringIndex:
		return fmt.Sprintf("@str[%d]", v.StringIndex)
	default:
		return "<none>"
	}
}

// Token is a lexed atom: a kind, a numeric payload id (the keyword,
// operator, register, or type code the lexer resolved), a position/length
// into the source buffer, and a value union.
type Token struct {
	Kind     Kind
	ID       int
	Position int
	Length   int
	Value    Value
}

func New(kind Kind, id int, position, length int, value Value) Token {
	return Token{
		Kind:     kind,
		ID:       id,
		Position: position,
		Length:   length,
		Value:    value,
	}
}

func (t Token) String() string {
	return fmt.Sprintf("%v(id=%d) @%d+%d = %v", t.Kind, t.ID, t.Position, t.Length, t.Value)
}
