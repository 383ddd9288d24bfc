package interp

import "github.com/basalt-tpl/smarty/internal/value"

// Instruction is one bytecode word: an opcode plus up to three
// integer operands, whose meaning is opcode-specific (see opcode.go).
type Instruction struct {
	Op      Op
	A, B, C int
}

// Chunk is a compiled program: a flat instruction stream plus the
// constant and name pools its instructions index into. A Chunk is
// immutable once Compile returns and safe to Execute concurrently
// from multiple Handlers.
type Chunk struct {
	Code   []Instruction
	Consts []value.Value
	Names  []string
}

// builder accumulates a Chunk during compilation, resolving forward
// jump targets by patching the emitting instruction once the target
// address is known (every control-flow shape in the generator is
// structured, so no general label table is needed).
type builder struct {
	chunk Chunk
}

func newBuilder() *builder {
	return &builder{}
}

func (b *builder) emit(op Op, a, b2, c int) int {
	b.chunk.Code = append(b.chunk.Code, Instruction{Op: op, A: a, B: b2, C: c})
	return len(b.chunk.Code) - 1
}

func (b *builder) here() int { return len(b.chunk.Code) }

func (b *builder) patchTarget(instrIdx, target int) {
	b.chunk.Code[instrIdx].A = target
}

func (b *builder) addConst(v value.Value) int {
	b.chunk.Consts = append(b.chunk.Consts, v)
	return len(b.chunk.Consts) - 1
}

func (b *builder) addName(s string) int {
	for i, n := range b.chunk.Names {
		if n == s {
			return i
		}
	}
	b.chunk.Names = append(b.chunk.Names, s)
	return len(b.chunk.Names) - 1
}

func (b *builder) build() *Chunk { return &b.chunk }
