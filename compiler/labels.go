package compiler

import "fmt"

// labelGen produces globally unique symbolic labels for control-flow
// targets (§4.3), grounded on the teacher's codegen.newLabel/newNamedLabel
// (pkg/compiler/codegen.go) simplified to our needs: the teacher's
// labels are dense uint16 program-wide slots resolved against a parallel
// offset table; ours are plain strings resolved per-function by the jump
// pass (§4.7), so a monotonic counter per Compiler is all that's needed.
type labelGen struct {
	counter int
}

// next returns a fresh label named "{prefix}_{n}". The prefix must not
// itself already look like a generated label (match `.*_\d+$`) — passing
// one is a programmer error in the compiler itself, not a user-facing
// condition, so it is not validated at runtime (§4.3).
func (g *labelGen) next(prefix string) string {
	g.counter++
	return fmt.Sprintf("%s_%d", prefix, g.counter)
}
