package multiboot

import (
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
)

type option struct {
	Key, Value string
}

func TestVisitOptions(t *testing.T) {
	specs := []struct {
		input string
		exp   []option
	}{
		{"", nil},
		{"   ", nil},
		{"console=serial", []option{{"console", "serial"}}},
		{"  faulttest  console=vga\tpic.master=0x30 ", []option{
			{"faulttest", "faulttest"},
			{"console", "vga"},
			{"pic.master", "0x30"},
		}},
		{"key= =value a=b=c", []option{
			{"key", ""},
			{"", "value"},
			{"a", "b=c"},
		}},
	}

	for specIndex, spec := range specs {
		var got []option
		VisitOptions(spec.input, func(k, v string) bool {
			got = append(got, option{k, v})
			return true
		})

		if !cmp.Equal(got, spec.exp) {
			t.Errorf("[spec %d] unexpected options: %s", specIndex, cmp.Diff(spec.exp, got))
		}
	}
}

func TestVisitOptionsAbort(t *testing.T) {
	calls := 0
	VisitOptions("a b c", func(_, _ string) bool {
		calls++
		return calls < 2
	})

	if calls != 2 {
		t.Fatalf("expected scan to stop after 2 options; got %d", calls)
	}
}

func TestVisitCmdLine(t *testing.T) {
	buf := cBytes("interrupts=on")
	mockPhysMem(t, map[uint32]unsafe.Pointer{0x1000: unsafe.Pointer(&buf[0])})

	var got []option
	visitor := func(k, v string) bool {
		got = append(got, option{k, v})
		return true
	}

	(&Info{cmdLine: 0x1000}).VisitCmdLine(visitor)
	if len(got) != 0 {
		t.Fatal("expected no options when the command line flag is clear")
	}

	(&Info{flags: uint32(FlagCmdLine), cmdLine: 0x1000}).VisitCmdLine(visitor)
	if exp := []option{{"interrupts", "on"}}; !cmp.Equal(got, exp) {
		t.Fatalf("unexpected options: %s", cmp.Diff(exp, got))
	}
}
