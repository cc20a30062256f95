package engine

import (
	"github.com/kr/pretty"

	"github.com/wudi/vela/vm"
)

// DumpCodeBlock renders block as a human-readable struct dump for
// debug/REPL paths (SPEC_FULL §1.1): the teacher has no structured
// logger either, it formats diagnostics with fmt and writes them
// straight to a Writer, so disassembly output here is built the same
// way rather than through a logging framework.
func DumpCodeBlock(block *vm.CodeBlock) string {
	return pretty.Sprint(block)
}
