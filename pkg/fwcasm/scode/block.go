package scode

import (
	"errors"
	"fmt"

	"github.com/forwardcom-toolchain/fwcas/pkg/fwcbuffer"
)

// BlockType tags what kind of brace a Block was pushed for.
type BlockType uint8

const (
	Section BlockType = iota
	Func
	If
	Else
	Switch
	For
	ForIn
	While
	DoWhile
)

func (t BlockType) String() string {
	switch t {
	case Section:
		return "section"
	case Func:
		return "func"
	case If:
		return "if"
	case Else:
		return "else"
	case Switch:
		return "switch"
	case For:
		return "for"
	case ForIn:
		return "for_in"
	case While:
		return "while"
	case DoWhile:
		return "do_while"
	}
	return "block(?)"
}

// IsLoop reports whether break/continue are both legal inside this block
// type.
func (t BlockType) IsLoop() bool {
	switch t {
	case For, ForIn, While, DoWhile:
		return true
	}
	return false
}

// Block is the single tagged structure covering every control-flow
// construct's bookkeeping, per the design note "avoid inheritance; a
// single structure with all fields covers every variant".
type Block struct {
	Type          BlockType
	Number        int
	StartBracket  int
	JumpLabel     SymbolID
	BreakLabel    SymbolID
	ContinueLabel SymbolID

	// DeferredIndex/DeferredNum locate the range of instructions staged in
	// the deferred buffer (codeBuffer2) to be emitted at the matching `}`.
	// Stored as an index range, never a pointer, because the deferred
	// buffer may reallocate.
	DeferredIndex int
	DeferredNum   int

	// IndexRegister/ElementType are meaningful only for ForIn blocks.
	IndexRegister Register
	ElementType   DataType
}

// NewBlock constructs a block with break/continue left unresolved.
func NewBlock(t BlockType, number, startBracket int) Block {
	return Block{
		Type:          t,
		Number:        number,
		StartBracket:  startBracket,
		BreakLabel:    SymbolUnresolved,
		ContinueLabel: SymbolUnresolved,
	}
}

var (
	// ErrMisplacedBreak is returned when break/continue is used outside any
	// loop or (for break) switch block.
	ErrMisplacedBreak    = errors.New("scode: misplaced break")
	ErrMisplacedContinue = errors.New("scode: misplaced continue")
	ErrUnmatchedBlock    = errors.New("scode: unmatched block close")
)

// BlockStack is the dynamic stack of open blocks, built on the same typed
// array the way the control-flow compiler is built on the buffer
// primitive.
type BlockStack struct {
	blocks fwcbuffer.Array[Block]
}

func (s *BlockStack) Len() int { return s.blocks.Len() }

func (s *BlockStack) Push(b Block) { s.blocks.Push(b) }

// Top returns a mutable reference to the innermost open block.
func (s *BlockStack) Top() (*Block, error) {
	if s.blocks.Len() == 0 {
		return nil, ErrUnmatchedBlock
	}
	return s.blocks.Index(s.blocks.Len() - 1)
}

// Pop removes and returns the innermost open block.
func (s *BlockStack) Pop() (Block, error) {
	if s.blocks.Len() == 0 {
		return Block{}, ErrUnmatchedBlock
	}
	return s.blocks.Pop()
}

// Replace overwrites the innermost block, used by `if`'s `}`-then-`else`
// transition (the IF block becomes an ELSE block in place).
func (s *BlockStack) Replace(b Block) error {
	top, err := s.Top()
	if err != nil {
		return err
	}
	*top = b
	return nil
}

// ResolveBreak walks the stack top-down looking for the nearest block that
// accepts `break`, materializing its BreakLabel on first use. The callback
// receives the accepting block so the caller can synthesize the label name
// from its kind and number.
func (s *BlockStack) ResolveBreak(nextLabel func(b *Block) SymbolID) (SymbolID, error) {
	for i := s.blocks.Len() - 1; i >= 0; i-- {
		b, _ := s.blocks.Index(i)
		switch {
		case b.Type.IsLoop() || b.Type == Switch:
			if b.BreakLabel == SymbolUnresolved {
				b.BreakLabel = nextLabel(b)
			}
			return b.BreakLabel, nil
		case b.Type == Func || b.Type == Section:
			return SymbolNone, ErrMisplacedBreak
		}
	}
	return SymbolNone, ErrMisplacedBreak
}

// ResolveContinue walks the stack top-down looking for the nearest loop
// block, materializing its ContinueLabel on first use. Unlike break,
// switch blocks do not accept continue: a SWITCH frame in between is
// skipped over, while a FUNC/SECTION boundary aborts the walk exactly as
// break does.
func (s *BlockStack) ResolveContinue(nextLabel func(b *Block) SymbolID) (SymbolID, error) {
	for i := s.blocks.Len() - 1; i >= 0; i-- {
		b, _ := s.blocks.Index(i)
		switch {
		case b.Type.IsLoop():
			if b.ContinueLabel == SymbolUnresolved {
				b.ContinueLabel = nextLabel(b)
			}
			return b.ContinueLabel, nil
		case b.Type == Func || b.Type == Section:
			return SymbolNone, ErrMisplacedContinue
		}
	}
	return SymbolNone, ErrMisplacedContinue
}

func (b Block) String() string {
	return fmt.Sprintf("%v#%d", b.Type, b.Number)
}
