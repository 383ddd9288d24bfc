// Package interp implements the "abstract code builder" back end of
// spec.md §4.4: an in-memory bytecode compiler and stack-machine
// executor standing in for the native JIT the spec describes as out
// of scope. AST nodes are lowered once (Compile) into a Chunk, which
// can then be run against any number of independent Handlers
// (Execute), matching spec.md §5's one-Handler-per-render rule.
package interp

// Op identifies a single bytecode instruction. Every instruction
// carries three integer operands (A, B, C); most opcodes use only A,
// a few (OpMemberIter) need all three. The comment beside each opcode
// below says what its operands mean.
type Op uint8

const (
	OpRaw          Op = iota // A: Names index of a raw text span
	OpVarPointer             // A: Names index of a variable name
	OpMemberByName           // A: Names index of a member name; pops parent, pushes member
	OpMemberByExpr           // pops index, pops parent, pushes resolved member
	OpBoolLit                // A: 0 or 1
	OpNumericLit             // A: Consts index of an int64 constant
	OpDoubleLit              // A: Consts index of a float64 constant
	OpStringLit              // A: Consts index of a string constant
	OpStringOf               // pops, pushes ToString()
	OpNumericOf              // pops, pushes ToNumeric()
	OpBooleanOf              // pops, pushes ToBoolean()
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpNot          // pops bool, pushes !bool
	OpNeg          // pops numeric, pushes -numeric
	OpDup          // duplicates the top of stack
	OpPop          // discards the top of stack
	OpJump         // A: absolute instruction index to jump to
	OpJumpIfFalse  // pops bool; A: target taken when false
	OpJumpIfTrue   // pops bool; A: target taken when true
	OpJumpIfZero   // pops int; A: target taken when zero
	OpOutput       // A: 1 to escape, 0 to write raw; pops value
	OpAssign       // A: Names index of a variable name; pops value
	OpAssignNumeric  // A: Names index; pops a numeric value
	OpAssignBoolean  // A: Names index; pops a boolean value
	OpAssignString   // A: Names index; pops a string value
	OpMemberIter     // A: scope id, B: Names index of value var, C: Names index of key var (-1 if none); pops source's synthetic slot value, pushes bool
	OpModifier       // A: Names index of modifier name, B: param count; pops B params then the base value, pushes result
	OpMemberCount    // pops a value, pushes its member count as an int
	OpSetEscape      // A: Names index of an escaper name
)
