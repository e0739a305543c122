// Command bmc lowers an AST-JSON format description into a binary
// module (spec §6).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"wireforge.dev/bmc/ast"
	"wireforge.dev/bmc/bmfile"
	"wireforge.dev/bmc/lower"
	"wireforge.dev/bmc/postpass"
)

var program = filepath.Base(os.Args[0])

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
	log.SetPrefix(program + ": ")
}

func main() {
	var in, out, cfg string
	var printDisasm bool

	flag.StringVar(&in, "i", "", "AST-JSON input file (required).")
	flag.StringVar(&out, "o", "", "Binary module output file.")
	flag.StringVar(&cfg, "c", "", "Optional control-flow-graph side-data output file.")
	flag.BoolVar(&printDisasm, "p", false, "Print disassembled IR to stdout.")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage:\n  %s -i FILE [-o FILE] [-c FILE] [-p]\n\n", program)
		flag.PrintDefaults()
	}
	flag.Parse()

	if in == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(in, out, cfg, printDisasm); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run(in, out, cfg string, printDisasm bool) error {
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", in, err)
	}

	prog, err := ast.Decode(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", in, err)
	}

	mod, l, err := lower.Compile(prog)
	if err != nil {
		return fmt.Errorf("lowering %s: %w", in, err)
	}

	if err := postpass.Run(l, prog); err != nil {
		return fmt.Errorf("post-processing %s: %w", in, err)
	}

	if printDisasm {
		printIR(os.Stdout, mod)
	}

	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", out, err)
		}
		err = bmfile.Encode(f, mod)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
	}

	if cfg != "" {
		f, err := os.Create(cfg)
		if err != nil {
			return fmt.Errorf("creating %s: %w", cfg, err)
		}
		err = bmfile.WriteCFG(f, mod)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("writing %s: %w", cfg, err)
		}
	}

	return nil
}
