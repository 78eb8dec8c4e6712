package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// fakeKernel returns an image with a multiboot header at offset.
func fakeKernel(offset int, valid bool) []byte {
	data := make([]byte, 16384)
	flags := uint32(0x00000003)
	checksum := -(uint32(multibootHeaderMagic) + flags)
	if !valid {
		checksum++
	}

	binary.LittleEndian.PutUint32(data[offset:], multibootHeaderMagic)
	binary.LittleEndian.PutUint32(data[offset+4:], flags)
	binary.LittleEndian.PutUint32(data[offset+8:], checksum)
	return data
}

func TestCheckMultibootHeader(t *testing.T) {
	specs := []struct {
		data   []byte
		expErr error
	}{
		{fakeKernel(0, true), nil},
		{fakeKernel(4096, true), nil},
		{fakeKernel(8180, true), nil},
		{fakeKernel(4096, false), errNoMultibootHeader},
		{fakeKernel(8192, true), errNoMultibootHeader},
		{fakeKernel(4098, true), errNoMultibootHeader},
		{nil, errNoMultibootHeader},
	}

	for specIndex, spec := range specs {
		if err := checkMultibootHeader(spec.data); err != spec.expErr {
			t.Errorf("[spec %d] expected error %v; got %v", specIndex, spec.expErr, err)
		}
	}
}

func TestBuildImage(t *testing.T) {
	dir := t.TempDir()
	c := &config{
		Kernel:   filepath.Join(dir, "kernel.elf"),
		Output:   filepath.Join(dir, "out.iso"),
		Volume:   "TEST",
		ElTorito: filepath.Join(dir, "eltorito.img"),
		CmdLine:  map[string]string{"console": "serial"},
	}

	if err := os.WriteFile(c.Kernel, fakeKernel(0, true), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.ElTorito, make([]byte, 4*isoBlockSize), 0o644); err != nil {
		t.Fatal(err)
	}

	// A stale image is replaced.
	if err := os.WriteFile(c.Output, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := buildImage(c); err != nil {
		t.Fatal(err)
	}

	iso, err := os.ReadFile(c.Output)
	if err != nil {
		t.Fatal(err)
	}

	// Volume descriptors start at block 16; the boot record follows the
	// primary volume descriptor.
	pvd := iso[16*isoBlockSize:]
	if !bytes.Equal(pvd[1:6], []byte("CD001")) {
		t.Fatalf("expected a primary volume descriptor; got %q", pvd[:6])
	}

	if !bytes.Contains(iso[16*isoBlockSize:20*isoBlockSize], []byte("EL TORITO SPECIFICATION")) {
		t.Fatal("expected an El Torito boot record")
	}

	if !bytes.Contains(iso, []byte("multiboot /boot/kernel.elf console=serial")) {
		t.Fatal("expected the image to contain the rendered grub.cfg")
	}
}

func TestBuildImageErrors(t *testing.T) {
	dir := t.TempDir()
	kernel := filepath.Join(dir, "kernel.elf")
	eltorito := filepath.Join(dir, "eltorito.img")
	if err := os.WriteFile(kernel, make([]byte, 64), 0o644); err != nil {
		t.Fatal(err)
	}

	specs := []*config{
		{Kernel: filepath.Join(dir, "missing.elf"), ElTorito: eltorito, Output: filepath.Join(dir, "a.iso")},
		{Kernel: kernel, ElTorito: eltorito, Output: filepath.Join(dir, "b.iso")},
	}

	for specIndex, spec := range specs {
		if err := buildImage(spec); err == nil {
			t.Errorf("[spec %d] expected an error", specIndex)
		}
		if _, err := os.Stat(spec.Output); !os.IsNotExist(err) {
			t.Errorf("[spec %d] expected no image to be written", specIndex)
		}
	}
}
