package module

// Op is a single instruction opcode in the output module's stack-machine
// instruction set, i.e. WebAssembly's binary opcode space (spec.md treats
// the encoder as a black box; SPEC_FULL.md §3 fixes it concretely to the
// WebAssembly binary format).
//
// "x op y" is a stack picture: values present on the stack before/after
// the instruction executes.
type Op byte

const (
	OpUnreachable Op = 0x00
	OpNop         Op = 0x01
	OpBlock       Op = 0x02 //   - block<blocktype> ... end   -
	OpLoop        Op = 0x03 //   - loop<blocktype> ... end    -
	OpIf          Op = 0x04 // cond if<blocktype> ... else ... end  result
	OpElse        Op = 0x05
	OpEnd         Op = 0x0b
	OpBr          Op = 0x0c //   - br<depth>        -   (unconditional, by block depth)
	OpBrIf        Op = 0x0d // cond br_if<depth>   -
	OpReturn      Op = 0x0f
	OpCall        Op = 0x10 // args... call<funcidx>          result
	OpCallIndir   Op = 0x11 // args... idx call_indirect<typeidx><tableidx>  result
	OpDrop        Op = 0x1a // x drop -

	OpLocalGet  Op = 0x20 //   - local.get<local>   value
	OpLocalSet  Op = 0x21 // value local.set<local> -
	OpGlobalGet Op = 0x23 //   - global.get<global> value
	OpGlobalSet Op = 0x24 // value global.set<global> -

	OpI32Load8U Op = 0x2d //     addr i32.load8_u<align><offset>  value
	OpF64Load   Op = 0x2b //     addr f64.load<align><offset>     value
	OpI32Store8 Op = 0x3a // addr value i32.store8<align><offset> -
	OpF64Store  Op = 0x39 // addr value f64.store<align><offset>  -

	OpI32Const Op = 0x41
	OpI64Const Op = 0x42
	OpF64Const Op = 0x44

	OpI32Eq Op = 0x46

	OpF64Eq Op = 0x61
	OpF64Ne Op = 0x62
	OpF64Lt Op = 0x63
	OpF64Gt Op = 0x64
	OpF64Le Op = 0x65
	OpF64Ge Op = 0x66

	OpI32And Op = 0x71

	OpI64Ne Op = 0x52

	OpI64Add  Op = 0x7c
	OpI64Sub  Op = 0x7d
	OpI64Mul  Op = 0x7e
	OpI64DivS Op = 0x7f
	OpI64RemS Op = 0x81
	OpI64And  Op = 0x83
	OpI64Or   Op = 0x84
	OpI64Xor  Op = 0x85
	OpI64Shl  Op = 0x86
	OpI64ShrS Op = 0x87

	OpF64Add Op = 0xa0
	OpF64Sub Op = 0xa1
	OpF64Mul Op = 0xa2
	OpF64Div Op = 0xa3

	OpI32TruncF64S Op = 0xaa
	OpI64TruncF64S Op = 0xb0
	OpF64ConvertI32S Op = 0xb7
	OpF64ConvertI64S Op = 0xb9
)

// ValType is a WebAssembly value type byte.
type ValType byte

const (
	ValTypeF64    ValType = 0x7c
	ValTypeI64    ValType = 0x7e
	ValTypeI32    ValType = 0x7f
	ValTypeFuncRef ValType = 0x70
)

// blockTypeF64 is the (one-result, no-params) block type used by every
// block/loop/if this compiler emits: spec.md's single-scalar-universe
// invariant means every structured block this core builds returns
// exactly one f64.
const blockTypeF64 = byte(ValTypeF64)
