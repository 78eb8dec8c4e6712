package main

import (
	"bytes"
	"debug/elf"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, data := range files {
		p := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestScan(t *testing.T) {
	root := writeTree(t, map[string]string{
		"go.mod": "module example.com/os\n\ngo 1.23\n",
		"kernel/kfmt/panic.go": `package kfmt

// Panic halts.
//
//go:redirect-from runtime.gopanic
func Panic(e interface{}) {}

//go:redirect-from runtime.throw
func panicString(msg string) {}

// helper has no directive.
func helper() {}
`,
		"kernel/kfmt/panic_test.go": `package kfmt

//go:redirect-from runtime.ignored
func testOnly() {}
`,
		"kernel/mem/mem.go": `package mem

//go:redirect-from runtime.memclrNoHeapPointers
func Memset() {}
`,
	})

	redirects, err := scan(root)
	if err != nil {
		t.Fatal(err)
	}

	exp := []*redirect{
		{src: "runtime.gopanic", dst: "example.com/os/kernel/kfmt.Panic"},
		{src: "runtime.throw", dst: "example.com/os/kernel/kfmt.panicString"},
		{src: "runtime.memclrNoHeapPointers", dst: "example.com/os/kernel/mem.Memset"},
	}
	if !cmp.Equal(redirects, exp, cmp.AllowUnexported(redirect{})) {
		t.Fatalf("unexpected redirects: %s", cmp.Diff(exp, redirects, cmp.AllowUnexported(redirect{})))
	}
}

func TestScanErrors(t *testing.T) {
	specs := []struct {
		files  map[string]string
		expErr string
	}{
		{
			map[string]string{"kernel/a.go": "package a\n"},
			"must be run from the module root",
		},
		{
			map[string]string{
				"go.mod":      "module example.com/os\n",
				"kernel/a.go": "package a\n\n//go:redirect-from\nfunc A() {}\n",
			},
			"malformed go:redirect-from syntax",
		},
		{
			map[string]string{
				"go.mod":      "module example.com/os\n",
				"kernel/a.go": "package a\n\nfunc A( {}\n",
			},
			"kernel/a.go",
		},
		{
			map[string]string{"go.mod": "go 1.23\n", "kernel/a.go": "package a\n"},
			"missing module directive",
		},
	}

	for specIndex, spec := range specs {
		_, err := scan(writeTree(t, spec.files))
		if err == nil || !strings.Contains(err.Error(), spec.expErr) {
			t.Errorf("[spec %d] expected error containing %q; got %v", specIndex, spec.expErr, err)
		}
	}
}

func TestResolveSymbols(t *testing.T) {
	symbols := []elf.Symbol{
		{Name: "runtime.gopanic", Value: 0x1000},
		{Name: "example.com/os/kernel/kfmt.Panic", Value: 0x2000},
	}

	redirects := []*redirect{{src: "runtime.gopanic", dst: "example.com/os/kernel/kfmt.Panic"}}
	if err := resolveSymbols(redirects, symbols); err != nil {
		t.Fatal(err)
	}
	if redirects[0].srcVMA != 0x1000 || redirects[0].dstVMA != 0x2000 {
		t.Fatalf("unexpected addresses: %x -> %x", redirects[0].srcVMA, redirects[0].dstVMA)
	}

	specs := []*redirect{
		{src: "runtime.missing", dst: "example.com/os/kernel/kfmt.Panic"},
		{src: "runtime.gopanic", dst: "example.com/os/kernel/kfmt.missing"},
	}
	for specIndex, spec := range specs {
		if err := resolveSymbols([]*redirect{spec}, symbols); err == nil || !strings.Contains(err.Error(), "missing") {
			t.Errorf("[spec %d] expected an unresolved symbol error; got %v", specIndex, err)
		}
	}
}

func TestEncodeTable(t *testing.T) {
	var buf bytes.Buffer
	err := encodeTable(&buf, []*redirect{
		{srcVMA: 0x1122334455667788, dstVMA: 0x10},
		{srcVMA: 0x20, dstVMA: 0x30},
	})
	if err != nil {
		t.Fatal(err)
	}

	exp := []byte{
		0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11,
		0x10, 0, 0, 0, 0, 0, 0, 0,
		0x20, 0, 0, 0, 0, 0, 0, 0,
		0x30, 0, 0, 0, 0, 0, 0, 0,
	}
	if !cmp.Equal(buf.Bytes(), exp) {
		t.Fatalf("unexpected table: %s", cmp.Diff(exp, buf.Bytes()))
	}
}

func TestPopulateTableNotELF(t *testing.T) {
	img := filepath.Join(t.TempDir(), "kernel.bin")
	if err := os.WriteFile(img, []byte("not an elf image"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := populateTable(nil, img); err == nil {
		t.Fatal("expected an error for a non-ELF image")
	}
}
