package main

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	diskfs "github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/disk"
	"github.com/diskfs/go-diskfs/filesystem"
	"github.com/diskfs/go-diskfs/filesystem/iso9660"
	"github.com/sirupsen/logrus"
)

const (
	multibootHeaderMagic = 0x1badb002

	// The loader only scans this many bytes for the header.
	multibootSearchLen = 8192

	grubCfgPath     = "/boot/grub/grub.cfg"
	elToritoPath    = "/boot/grub/eltorito.img"
	bootCatalogPath = "/boot/boot.cat"

	isoBlockSize = 2048

	// slack covers the volume descriptors, directory records and the boot
	// catalog.
	imageSlack = 1 << 20
)

var errNoMultibootHeader = errors.New("kernel image has no multiboot header")

// checkMultibootHeader verifies that data carries a multiboot header: the
// magic value followed by flags and a checksum that sum to zero, 4-byte
// aligned within the first 8 KiB.
func checkMultibootHeader(data []byte) error {
	if len(data) > multibootSearchLen {
		data = data[:multibootSearchLen]
	}

	for off := 0; off+12 <= len(data); off += 4 {
		magic := binary.LittleEndian.Uint32(data[off:])
		if magic != multibootHeaderMagic {
			continue
		}

		flags := binary.LittleEndian.Uint32(data[off+4:])
		checksum := binary.LittleEndian.Uint32(data[off+8:])
		if magic+flags+checksum == 0 {
			return nil
		}
	}

	return errNoMultibootHeader
}

type imageFile struct {
	path string
	data []byte
}

// buildImage writes a bootable ISO9660 image containing the kernel, the GRUB
// El Torito image and a grub.cfg that boots the kernel.
func buildImage(c *config) error {
	kernel, err := os.ReadFile(c.Kernel)
	if err != nil {
		return fmt.Errorf("read kernel: %w", err)
	}
	if err = checkMultibootHeader(kernel); err != nil {
		return fmt.Errorf("%s: %w", c.Kernel, err)
	}

	elTorito, err := os.ReadFile(c.ElTorito)
	if err != nil {
		return fmt.Errorf("read El Torito image: %w", err)
	}

	grubCfg, err := renderGrubCfg(c)
	if err != nil {
		return fmt.Errorf("render grub.cfg: %w", err)
	}

	files := []imageFile{
		{kernelImagePath, kernel},
		{elToritoPath, elTorito},
		{grubCfgPath, grubCfg},
	}

	size := int64(imageSlack)
	for _, f := range files {
		size += (int64(len(f.data)) + isoBlockSize - 1) / isoBlockSize * isoBlockSize
	}

	if err = os.Remove(c.Output); err != nil && !os.IsNotExist(err) {
		return err
	}

	d, err := diskfs.Create(c.Output, size, diskfs.Raw, diskfs.SectorSize(isoBlockSize))
	if err != nil {
		return fmt.Errorf("create %s: %w", c.Output, err)
	}
	defer d.File.Close()

	fs, err := d.CreateFilesystem(disk.FilesystemSpec{
		Partition:   0,
		FSType:      filesystem.TypeISO9660,
		VolumeLabel: c.Volume,
	})
	if err != nil {
		return fmt.Errorf("create filesystem: %w", err)
	}

	if err = fs.Mkdir("/boot/grub"); err != nil {
		return err
	}

	for _, f := range files {
		logrus.WithField("path", f.path).Debugf("adding %d bytes", len(f.data))

		dst, err := fs.OpenFile(f.path, os.O_CREATE|os.O_RDWR)
		if err != nil {
			return fmt.Errorf("%s: %w", f.path, err)
		}
		_, err = io.Copy(dst, bytes.NewReader(f.data))
		_ = dst.Close()
		if err != nil {
			return fmt.Errorf("%s: %w", f.path, err)
		}
	}

	iso, ok := fs.(*iso9660.FileSystem)
	if !ok {
		return fmt.Errorf("unexpected filesystem type %T", fs)
	}

	return iso.Finalize(iso9660.FinalizeOptions{
		VolumeIdentifier: c.Volume,
		ElTorito: &iso9660.ElTorito{
			BootCatalog: bootCatalogPath,
			Entries: []*iso9660.ElToritoEntry{
				{
					Platform:  iso9660.BIOS,
					Emulation: iso9660.NoEmulation,
					BootFile:  elToritoPath,
					BootTable: true,
					LoadSize:  4,
				},
			},
		},
	})
}
