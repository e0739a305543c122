package main

import (
	"os"
	"path/filepath"
	"testing"

	"wireforge.dev/bmc/bmfile"
)

const simpleFormatJSON = `{
	"formats": [
		{
			"ident": {"id": 1, "name": "F", "pos": 0},
			"fields": [
				{
					"ident": {"id": 2, "name": "x", "pos": 4},
					"field_type": {"kind": "int", "bits": 16, "signed": false}
				}
			]
		}
	]
}`

func TestRunProducesDecodableModule(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	out := filepath.Join(dir, "out.bm")
	cfgOut := filepath.Join(dir, "out.cfg")

	if err := os.WriteFile(in, []byte(simpleFormatJSON), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := run(in, out, cfgOut, false); err != nil {
		t.Fatalf("run: %v", err)
	}

	bmData, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading %s: %v", out, err)
	}
	mod, err := bmfile.Decode(bmData)
	if err != nil {
		t.Fatalf("bmfile.Decode: %v", err)
	}
	if len(mod.Code) == 0 {
		t.Error("decoded module has no Code")
	}

	cfgData, err := os.ReadFile(cfgOut)
	if err != nil {
		t.Fatalf("reading %s: %v", cfgOut, err)
	}
	if _, err := bmfile.ReadCFG(cfgData); err != nil {
		t.Errorf("bmfile.ReadCFG: %v", err)
	}
}

func TestRunMissingInputFileFails(t *testing.T) {
	dir := t.TempDir()
	if err := run(filepath.Join(dir, "nope.json"), "", "", false); err == nil {
		t.Error("run with a nonexistent input file returned no error")
	}
}

func TestRunInvalidJSONFails(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(in, []byte("not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := run(in, "", "", false); err == nil {
		t.Error("run with invalid AST-JSON returned no error")
	}
}
