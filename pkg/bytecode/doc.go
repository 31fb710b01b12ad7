// Package bytecode models QVM script bytecode: the opcode taxonomy, decoded
// instructions and address-indexed streams, and the program container the
// tool reads scripts from.
//
// # Opcodes
//
// QVM opcodes occupy the closed single-byte range 0x00-0x30. Each opcode
// belongs to one Class, which is all the decompiler needs to know about it:
//
//   - Terminator: BRK (end of block) and BRA (unconditional jump)
//   - ConditionalBranch: BF
//   - PushNumber, PushString, PushIdentifier: PUSH/PUSHF, PUSHS, PUSHI
//   - Discard: POP
//   - UnaryOp and BinaryOp: the operator opcodes 0x19-0x2E
//   - Call: CALL
//
// Everything else is ClassOther: valid, decodable, but without a
// reconstruction rule. Bytes above 0x30 are rejected with ErrUnknownOpcode.
//
// # Program container
//
// A Program holds the code section together with the string and identifier
// tables that PUSHS*/PUSHI* operands index into, plus a table of function
// entry points. Programs serialize to the "QVMC" little-endian container.
// The Emit* methods assemble code the way the script compiler lowers
// control flow:
//
//	if:      cond BF L1; then...; BRA +0; L1:
//	if/else: cond BF L1; then...; BRA L2; L1: else...; L2:
//	while:   L0: cond BF L1; body...; BRA L0; L1:
//	call:    callee CALL [A1..An]; BRA L; A1: arg BRK; ...; L:
//
// Jump offsets are relative to the address of the instruction after the
// jump. CALL operands are absolute addresses.
package bytecode
