// Package device defines the interface implemented by the kernel's device
// drivers and the order in which the HAL probes them.
package device

import (
	"io"

	"github.com/Wonshtrum/CairnOS2/kernel"
)

// Driver is an interface implemented by all drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major uint16, minor uint16, patch uint16)

	// DriverInit initializes the device driver. If the driver init code
	// needs to log some output, it can use the supplied io.Writer in
	// conjunction with a call to kfmt.Fprintf.
	DriverInit(io.Writer) *kernel.Error
}

// ProbeFn is a function that scans for the presence of a particular
// piece of hardware and returns a driver for it, or nil if the hardware is
// not available.
type ProbeFn func() Driver

// DetectOrder specifies when a driver is probed relative to the others.
// Drivers with a lower value are probed first.
type DetectOrder int8

const (
	// DetectOrderEarly is used by drivers that must be probed before
	// everything else.
	DetectOrderEarly DetectOrder = -128

	// DetectOrderPreferred is used by the driver selected on the kernel
	// command line.
	DetectOrderPreferred DetectOrder = -64

	// DetectOrderNormal is the default detection order.
	DetectOrderNormal DetectOrder = 0

	// DetectOrderFallback is used by drivers that are only useful when
	// nothing else is available.
	DetectOrderFallback DetectOrder = 64

	// DetectOrderLast is used by drivers that must be probed after
	// everything else.
	DetectOrderLast DetectOrder = 127
)

// DriverInfo associates a probe function with its detection order.
type DriverInfo struct {
	// Order specifies at which stage of the probe sequence this driver
	// is detected.
	Order DetectOrder

	// Probe is the driver probe function.
	Probe ProbeFn
}

// DriverInfoList is a list of drivers to probe.
type DriverInfoList []DriverInfo

// Len implements sort.Interface.
func (l DriverInfoList) Len() int { return len(l) }

// Less implements sort.Interface.
func (l DriverInfoList) Less(i, j int) bool { return l[i].Order < l[j].Order }

// Swap implements sort.Interface.
func (l DriverInfoList) Swap(i, j int) { l[i], l[j] = l[j], l[i] }

// SortByOrder sorts the list in place by detection order, keeping the
// relative order of entries with the same value. Unlike sort.Stable it does
// not box the list into an interface, so it is safe to call before the
// allocator is available.
func (l DriverInfoList) SortByOrder() {
	for i := 1; i < len(l); i++ {
		for j := i; j > 0 && l[j].Order < l[j-1].Order; j-- {
			l[j], l[j-1] = l[j-1], l[j]
		}
	}
}
