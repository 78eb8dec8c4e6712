package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// config describes the bootable image produced by mkimage.
type config struct {
	// Kernel is the path to the kernel ELF image.
	Kernel string `toml:"kernel"`
	// Output is the path of the ISO image to write.
	Output string `toml:"output"`
	// Volume is the ISO9660 volume identifier.
	Volume string `toml:"volume"`
	// ElTorito is the path to the GRUB El Torito boot image
	// (i386-pc/eltorito.img).
	ElTorito string `toml:"eltorito"`
	// Timeout is the GRUB menu timeout in seconds.
	Timeout int `toml:"timeout"`
	// CmdLine holds the kernel command line options. Options with an empty
	// value are passed as bare flags.
	CmdLine map[string]string `toml:"cmdline"`
}

const (
	defaultOutput = "cairnos.iso"
	defaultVolume = "CAIRNOS"
)

var errMissingKernel = errors.New("config: kernel is required")

// loadConfig loads the mkimage config from path. Relative paths are resolved
// against the directory containing the config file.
func loadConfig(path string) (*config, error) {
	c := config{
		Output: defaultOutput,
		Volume: defaultVolume,
	}
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		return nil, fmt.Errorf("config: unknown key %q", undecoded[0].String())
	}

	switch {
	case c.Kernel == "":
		return nil, errMissingKernel
	case c.ElTorito == "":
		return nil, errors.New("config: eltorito is required")
	case c.Timeout < 0:
		return nil, fmt.Errorf("config: invalid timeout %d", c.Timeout)
	}

	dir := filepath.Dir(path)
	for _, p := range []*string{&c.Kernel, &c.Output, &c.ElTorito} {
		if !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	return &c, nil
}

// kernelCmdLine joins the configured options in key order.
func (c *config) kernelCmdLine() string {
	keys := make([]string, 0, len(c.CmdLine))
	for k := range c.CmdLine {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	opts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v := c.CmdLine[k]; v != "" {
			opts = append(opts, k+"="+v)
		} else {
			opts = append(opts, k)
		}
	}
	return strings.Join(opts, " ")
}
