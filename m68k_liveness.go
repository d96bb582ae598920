// m68k_liveness.go - Backward condition flag liveness over a block

package main

// reduceFlags trims each instruction's set bitmap to the flags a later
// instruction in the block may read, then binds the matching handler
// variant. Everything is assumed live at the block's end, where an
// interrupt may stack SR or the next block may read it.
func reduceFlags(instrs []IPC) {
	required := FlagsAll
	for i := len(instrs) - 1; i >= 0; i-- {
		ipc := &instrs[i]
		set := ipc.iib.Set
		ipc.Set = set & required
		required &^= set
		required |= ipc.Used

		v := VariantNoFlags
		if ipc.Set != FlagsNone {
			v = VariantFlags
		}
		ipc.handler = ipc.variants[v]
	}
}
