// Package hal selects and initializes the device that receives kernel output.
package hal

import (
	"io"

	"github.com/Wonshtrum/CairnOS2/device"
	"github.com/Wonshtrum/CairnOS2/device/serial"
	"github.com/Wonshtrum/CairnOS2/device/video/console"
	"github.com/Wonshtrum/CairnOS2/kernel"
	"github.com/Wonshtrum/CairnOS2/kernel/kfmt"
	"github.com/Wonshtrum/CairnOS2/kernel/lazy"
	"github.com/Wonshtrum/CairnOS2/multiboot"
)

var errNoOutputDevice = &kernel.Error{Module: "hal", Message: "no output device could be initialized"}

// OutputConfig describes the output devices available to the kernel.
type OutputConfig struct {
	// Framebuffer is used by the VGA console when HasFramebuffer is set.
	Framebuffer    multiboot.FramebufferInfo
	HasFramebuffer bool

	// PreferSerial probes the serial port before the VGA console.
	PreferSerial bool

	// SerialCRLF translates "\n" into "\r\n" on the serial line.
	SerialCRLF bool
}

var (
	// The cells only ever hold devices whose DriverInit succeeded.
	vgaConsole lazy.LazyMut[console.VgaTextConsole]
	serialPort lazy.LazyMut[serial.Port]

	// Devices are staged here while they are probed.
	probedConsole console.VgaTextConsole
	probedSerial  serial.Port

	outputCfg    OutputConfig
	activeDriver device.Driver

	drivers [2]device.DriverInfo
	prefix  prefixBuf

	// fbAddrFn maps the physical framebuffer address to an address that
	// can be dereferenced. Paging is off so this is the identity mapping.
	fbAddrFn = func(phys uint32) uintptr { return uintptr(phys) }
)

// InitOutput probes the output devices in order of preference and makes the
// first one that initializes the kfmt output sink. Any output buffered so far
// is flushed to it.
func InitOutput(cfg OutputConfig) *kernel.Error {
	outputCfg = cfg

	drivers[0] = device.DriverInfo{Order: device.DetectOrderNormal, Probe: probeVgaConsole}
	drivers[1] = device.DriverInfo{Order: device.DetectOrderFallback, Probe: probeSerial}
	if cfg.PreferSerial {
		drivers[1].Order = device.DetectOrderPreferred
	}

	list := device.DriverInfoList(drivers[:])
	list.SortByOrder()

	if !probe(list) {
		return errNoOutputDevice
	}
	return nil
}

// ActiveDriver returns the driver currently used as the output sink or nil
// if InitOutput has not found one.
func ActiveDriver() device.Driver {
	return activeDriver
}

// probe initializes the drivers in list order and stops at the first one
// that succeeds.
func probe(list device.DriverInfoList) bool {
	var w = kfmt.PrefixWriter{Sink: kfmt.GetOutputSink()}

	for _, info := range list {
		drv := info.Probe()
		if drv == nil {
			continue
		}

		prefix.Reset()
		major, minor, patch := drv.DriverVersion()
		kfmt.Fprintf(&prefix, "[hal] %s(%d.%d.%d): ", drv.DriverName(), major, minor, patch)
		w.SetPrefix(prefix.Bytes())

		if err := drv.DriverInit(&w); err != nil {
			kfmt.Fprintf(&w, "init failed: %s\n", err.Message)
			continue
		}

		kfmt.Fprintf(&w, "initialized\n")
		onDriverInit(drv)
		return true
	}

	return false
}

// onDriverInit moves an initialized device into its cell and attaches it to
// kfmt.
func onDriverInit(drv device.Driver) {
	var sink io.Writer

	switch drv.(type) {
	case *console.VgaTextConsole:
		vgaConsole.Init(probedConsole)
		activeDriver = vgaConsole.GetMut()
		sink = vgaConsole.GetMut()
	case *serial.Port:
		serialPort.Init(probedSerial)
		activeDriver = serialPort.GetMut()
		sink = serialPort.GetMut()
	default:
		return
	}

	kfmt.SetOutputSink(sink)
}

func probeVgaConsole() device.Driver {
	fb := outputCfg.Framebuffer
	if !outputCfg.HasFramebuffer || fb.Type != multiboot.FramebufferTypeEGA {
		return nil
	}

	// EGA cells are two bytes wide.
	probedConsole = console.NewVgaTextConsole(console.FrameBuffer{
		Width:  fb.Width,
		Height: fb.Height,
		Pitch:  fb.Pitch / 2,
		Addr:   fbAddrFn(fb.PhysAddr),
	}, console.LightGrey, console.Black)
	return &probedConsole
}

func probeSerial() device.Driver {
	probedSerial = serial.NewPort(serial.COM1, outputCfg.SerialCRLF)
	return &probedSerial
}

// prefixBuf is a fixed-size io.Writer used to format the per-driver log
// prefix. Writes that do not fit are truncated.
type prefixBuf struct {
	data [64]byte
	n    int
}

func (b *prefixBuf) Write(p []byte) (int, error) {
	n := copy(b.data[b.n:], p)
	b.n += n
	return len(p), nil
}

func (b *prefixBuf) Bytes() []byte { return b.data[:b.n] }

func (b *prefixBuf) Reset() { b.n = 0 }
