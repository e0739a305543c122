package main

import (
	"fmt"
	"io"

	"wireforge.dev/bmc/ir"
)

// printIR writes a disassembly of mod's instruction stream to w, one
// line per Code record: its index, its Op name, and whichever
// operands that Op actually populated — the same "only show what's
// there" principle the sparse Code record itself follows.
func printIR(w io.Writer, mod *ir.Module) {
	for i := range mod.Code {
		c := &mod.Code[i]
		fmt.Fprintf(w, "%6d  %-28s", i, c.Op)

		if c.Ident != 0 {
			fmt.Fprintf(w, " ident=%d", c.Ident)
		}
		if c.Ref != 0 {
			fmt.Fprintf(w, " ref=%d", c.Ref)
		}
		if c.LeftRef != 0 {
			fmt.Fprintf(w, " left=%d", c.LeftRef)
		}
		if c.RightRef != 0 {
			fmt.Fprintf(w, " right=%d", c.RightRef)
		}
		if c.Belong != 0 {
			fmt.Fprintf(w, " belong=%d", c.Belong)
		}
		if c.IntValue != 0 {
			fmt.Fprintf(w, " int=%d", c.IntValue)
		}
		if c.IntValue64 != 0 {
			fmt.Fprintf(w, " int64=%d", c.IntValue64)
		}
		if c.BitSize.Known() {
			fmt.Fprintf(w, " bits=%d", c.BitSize.Size())
		}
		if c.Signed {
			fmt.Fprint(w, " signed")
		}
		if c.StorageRef != 0 {
			fmt.Fprintf(w, " type=%d", c.StorageRef)
		}
		if c.Storage != nil {
			fmt.Fprintf(w, " storage=%v", *c.Storage)
		}
		if len(c.Param.Refs) != 0 {
			fmt.Fprintf(w, " params=%v", c.Param.Refs)
		}
		if c.Metadata != nil {
			fmt.Fprintf(w, " metadata(name=%d, args=%v)", c.Metadata.Name, c.Metadata.Args)
		}
		if len(c.Phi) != 0 {
			fmt.Fprintf(w, " phi=%v", c.Phi)
		}
		if c.Fallback != 0 {
			fmt.Fprintf(w, " fallback=%d", c.Fallback)
		}
		fmt.Fprintln(w)
	}
}
