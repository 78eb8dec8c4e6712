package main

import (
	"bytes"
	"text/template"
)

const kernelImagePath = "/boot/kernel.elf"

var grubCfgTemplate = template.Must(template.New("grub.cfg").Parse(`set timeout={{.Timeout}}
set default=0

menuentry "CairnOS" {
	multiboot {{.Kernel}}{{if .CmdLine}} {{.CmdLine}}{{end}}
	boot
}
`))

// renderGrubCfg returns the GRUB configuration booting the kernel image with
// the configured command line.
func renderGrubCfg(c *config) ([]byte, error) {
	var buf bytes.Buffer
	err := grubCfgTemplate.Execute(&buf, struct {
		Timeout int
		Kernel  string
		CmdLine string
	}{
		Timeout: c.Timeout,
		Kernel:  kernelImagePath,
		CmdLine: c.kernelCmdLine(),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
