// Package decompiler reconstructs structured ASTs from QVM bytecode.
//
// The compiler that produced the bytecode lowered every expression onto an
// implicit operand stack and every loop or conditional into BF/BRA pairs.
// Walk reverses both: it replays the stack with AST nodes instead of
// values, and recovers control flow by recursive descent over the jump
// arithmetic.
//
// # Walking
//
// A walk starts at an address and consumes instructions in order until it
// reaches a terminator (BRK or BRA) or an optional stop address. Nested
// regions are walked by nested calls:
//
//   - BF walks its true body, which must end in a BRA landing exactly on
//     BF's own target. A backward BRA makes a WhileStmt, a zero offset an
//     IfStmt, and a forward one an IfElseStmt whose else region is walked
//     up to the BRA's target.
//   - CALL walks each argument block (each ends in BRK and yields one
//     expression), then resumes after the BRA that follows the CALL.
//
// A binary operator's left operand is the value pushed first, so
// PUSHI x; PUSH 1; ASSIGN reads as x = 1. Values that no operator or call
// consumes stay in the statement sequence as expression statements. An
// operator may still consume a value pushed before a loop or conditional.
//
// # Errors
//
// Every failure is an *Error whose Kind is one of the Err* sentinels. A
// failed walk returns no statements.
//
// # Concurrency
//
// Walks share nothing but the read-only Code, so a Decompiler may process
// many functions of one program in parallel (DecompileAll).
package decompiler
