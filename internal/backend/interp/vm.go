package interp

import (
	"github.com/basalt-tpl/smarty/internal/runtime"
	"github.com/basalt-tpl/smarty/internal/value"
)

// vm is a straightforward stack machine: no register allocation, no
// peephole optimization. It exists to give the abstract code builder
// back end something to execute, not to be fast.
type vm struct {
	stack []value.Value
	abi   *runtime.ABI
}

// Execute runs chunk against abi's bound Handler. It returns the
// Handler's recorded failure, if any, as a *runtime.RuntimeError; a
// nil return means the chunk ran to completion with an empty stack.
func Execute(chunk *Chunk, abi *runtime.ABI) error {
	m := &vm{abi: abi}
	m.run(chunk)
	if abi.Failed() {
		return runtime.NewRuntimeError("%s", abi.Error())
	}
	return nil
}

func (m *vm) push(v value.Value) { m.stack = append(m.stack, v) }

func (m *vm) pop() value.Value {
	n := len(m.stack) - 1
	v := m.stack[n]
	m.stack = m.stack[:n]
	return v
}

func (m *vm) top() value.Value { return m.stack[len(m.stack)-1] }

// run executes chunk's instruction stream. It returns early (leaving
// the stack in whatever state it was in) the moment the Handler
// records a failure, since every subsequent instruction would operate
// on data the failure has already invalidated.
func (m *vm) run(chunk *Chunk) {
	pc := 0
	for pc < len(chunk.Code) {
		if m.abi.Failed() {
			return
		}
		in := chunk.Code[pc]
		switch in.Op {
		case OpRaw:
			m.abi.Write(chunk.Names[in.A])
		case OpVarPointer:
			m.push(m.abi.Variable(chunk.Names[in.A]))
		case OpMemberByName:
			parent := m.pop()
			m.push(m.abi.Member(parent, chunk.Names[in.A]))
		case OpMemberByExpr:
			idx := m.pop()
			parent := m.pop()
			m.push(runtime.MemberDynamic(m.abi, parent, idx))
		case OpBoolLit:
			m.push(value.NewBool(in.A != 0))
		case OpNumericLit, OpDoubleLit, OpStringLit:
			m.push(chunk.Consts[in.A])
		case OpStringOf:
			m.push(value.NewString(m.abi.ToString(m.pop())))
		case OpNumericOf:
			m.push(value.NewInt(m.abi.ToNumeric(m.pop())))
		case OpBooleanOf:
			m.push(value.NewBool(m.abi.ToBoolean(m.pop())))
		case OpAdd, OpSub, OpMul, OpDiv, OpMod:
			m.arith(in.Op)
		case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
			m.compare(in.Op)
		case OpNot:
			m.push(value.NewBool(!m.pop().ToBool()))
		case OpNeg:
			m.negate()
		case OpDup:
			m.push(m.top())
		case OpPop:
			m.pop()
		case OpJump:
			pc = in.A
			continue
		case OpJumpIfFalse:
			if !m.pop().ToBool() {
				pc = in.A
				continue
			}
		case OpJumpIfTrue:
			if m.pop().ToBool() {
				pc = in.A
				continue
			}
		case OpJumpIfZero:
			if m.pop().ToInt() == 0 {
				pc = in.A
				continue
			}
		case OpOutput:
			m.abi.Output(m.pop(), in.A != 0)
		case OpAssign:
			m.abi.Assign(chunk.Names[in.A], m.pop())
		case OpAssignNumeric:
			m.abi.AssignNumeric(m.pop().ToInt(), chunk.Names[in.A])
		case OpAssignBoolean:
			m.abi.AssignBoolean(m.pop().ToBool(), chunk.Names[in.A])
		case OpAssignString:
			m.abi.AssignString(m.pop().ToString(), chunk.Names[in.A])
		case OpMemberIter:
			source := m.pop()
			keyVar := ""
			if in.C >= 0 {
				keyVar = chunk.Names[in.C]
			}
			ok := m.abi.MemberIter(source, in.A, chunk.Names[in.B], keyVar)
			m.push(value.NewBool(ok))
		case OpModifier:
			m.modifier(chunk, in)
		case OpMemberCount:
			m.push(value.NewInt(int64(m.pop().MemberCount())))
		case OpSetEscape:
			m.abi.SetEscaper(chunk.Names[in.A])
		}
		pc++
	}
}

func (m *vm) modifier(chunk *Chunk, in Instruction) {
	name := chunk.Names[in.A]
	n := in.B
	params := make([]value.Value, n)
	for i := n - 1; i >= 0; i-- {
		params[i] = m.pop()
	}
	base := m.pop()
	m.push(runtime.ApplyModifierByName(m.abi, name, base, params))
}

// arith and compare delegate the actual numeric/comparison semantics
// to the runtime package's shared implementation, so this stack
// machine and the generated Go source back end can never drift apart
// on what "1 + 2.5" or "$a < $b" mean.
func (m *vm) arith(op Op) {
	r := m.pop()
	l := m.pop()
	switch op {
	case OpAdd:
		m.push(runtime.Add(m.abi, l, r))
	case OpSub:
		m.push(runtime.Sub(m.abi, l, r))
	case OpMul:
		m.push(runtime.Mul(m.abi, l, r))
	case OpDiv:
		m.push(runtime.Div(m.abi, l, r))
	case OpMod:
		m.push(runtime.Mod(m.abi, l, r))
	}
}

func (m *vm) negate() {
	m.push(runtime.Neg(m.abi, m.pop()))
}

func (m *vm) compare(op Op) {
	r := m.pop()
	l := m.pop()
	switch op {
	case OpEq:
		m.push(runtime.Eq(m.abi, l, r))
	case OpNe:
		m.push(runtime.Ne(m.abi, l, r))
	case OpLt:
		m.push(runtime.Lt(m.abi, l, r))
	case OpLe:
		m.push(runtime.Le(m.abi, l, r))
	case OpGt:
		m.push(runtime.Gt(m.abi, l, r))
	case OpGe:
		m.push(runtime.Ge(m.abi, l, r))
	}
}
