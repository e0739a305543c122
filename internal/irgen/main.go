//go:build ignore

// Command irgen writes ir/ops_gen.go from the AbstractOps table in
// ops.go. It is not wired into any build; ir/ops_gen.go is checked in
// as its output and kept in sync by hand when AbstractOps changes.
package main

import (
	"bytes"
	"flag"
	"go/format"
	"log"
	"os"
	"text/template"

	"wireforge.dev/bmc/internal/irgen"
)

var out = flag.String("out", "ir/ops_gen.go", "output file for the generated opcode table")

const opsTemplate = `// Code generated by internal/irgen from ops.go. DO NOT EDIT.

package ir

// Op is an AbstractOp opcode (spec §3).
type Op int32

const (
{{- range $i, $op := .}}
	Op{{$op.Name}} Op = {{$i}}
{{- end}}
)

// OpInfo describes one Op: its serialized name and its Abstract
// flag, which is set only on the IMMEDIATE_* literal ops.
type OpInfo struct {
	Name     string
	Abstract bool
}

var opInfoTable = [...]OpInfo{
{{- range .}}
	{Name: {{printf "%q" .Name}}, Abstract: {{.Abstract}}},
{{- end}}
}

// Info returns op's OpInfo. It panics on an out-of-range Op, which
// indicates a bug in this module rather than a malformed input.
func (op Op) Info() OpInfo {
	if int(op) < 0 || int(op) >= len(opInfoTable) {
		panic("ir: Op out of range")
	}
	return opInfoTable[op]
}

func (op Op) String() string { return op.Info().Name }
`

func main() {
	flag.Parse()

	tmpl := template.Must(template.New("ops").Parse(opsTemplate))
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, irgen.AbstractOps); err != nil {
		log.Fatalf("irgen: %v", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		log.Fatalf("irgen: formatting generated source: %v", err)
	}

	if err := os.WriteFile(*out, src, 0o644); err != nil {
		log.Fatalf("irgen: %v", err)
	}
}
