package kmain

import (
	"github.com/Wonshtrum/CairnOS2/kernel/kfmt"
	"github.com/Wonshtrum/CairnOS2/kernel/pic"
	"github.com/Wonshtrum/CairnOS2/multiboot"
)

// bootConfig holds the options recognized on the kernel command line:
//
//	console=vga|serial   output device probed first
//	serial.crlf=on|off   emit "\r\n" for each newline on the serial line
//	pic.master=N         vector offset of the master PIC (decimal or 0x hex)
//	pic.slave=N          vector offset of the slave PIC
//	interrupts=on|off    set IF once the tables are installed
//	faulttest[=on|off]   raise a general protection fault after boot
type bootConfig struct {
	preferSerial     bool
	serialCRLF       bool
	masterOffset     uint8
	slaveOffset      uint8
	enableInterrupts bool
	faultTest        bool
}

// cfg is populated by applyOptions. The visitor cannot capture a local
// without escaping it to the heap.
var cfg bootConfig

func defaultConfig() bootConfig {
	return bootConfig{
		masterOffset: pic.DefaultMasterOffset,
		slaveOffset:  pic.DefaultSlaveOffset,
	}
}

// applyOptions resets cfg to its defaults and applies the options in
// cmdLine. Unknown options are ignored.
func applyOptions(cmdLine string) {
	cfg = defaultConfig()
	multiboot.VisitOptions(cmdLine, applyOption)
}

func applyOption(key, value string) bool {
	switch key {
	case "console":
		switch value {
		case "serial":
			cfg.preferSerial = true
		case "vga":
			cfg.preferSerial = false
		default:
			reportMalformed(key, value)
		}
	case "serial.crlf":
		parseSwitch(&cfg.serialCRLF, key, value)
	case "interrupts":
		parseSwitch(&cfg.enableInterrupts, key, value)
	case "faulttest":
		// A bare option is reported with value == key.
		if value == key {
			cfg.faultTest = true
			break
		}
		parseSwitch(&cfg.faultTest, key, value)
	case "pic.master":
		parseOffset(&cfg.masterOffset, key, value)
	case "pic.slave":
		parseOffset(&cfg.slaveOffset, key, value)
	}

	return true
}

func parseSwitch(dst *bool, key, value string) {
	switch value {
	case "on":
		*dst = true
	case "off":
		*dst = false
	default:
		reportMalformed(key, value)
	}
}

func parseOffset(dst *uint8, key, value string) {
	v, ok := parseUint8(value)
	if !ok {
		reportMalformed(key, value)
		return
	}
	*dst = v
}

func reportMalformed(key, value string) {
	kfmt.Printf("[kmain] ignoring malformed option %s=%s\n", key, value)
}

// parseUint8 parses a decimal or 0x-prefixed hexadecimal number that fits in
// a byte.
func parseUint8(s string) (uint8, bool) {
	base := uint32(10)
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	if len(s) == 0 {
		return 0, false
	}

	var v uint32
	for i := 0; i < len(s); i++ {
		var digit uint32
		switch ch := s[i]; {
		case ch >= '0' && ch <= '9':
			digit = uint32(ch - '0')
		case ch >= 'a' && ch <= 'f':
			digit = uint32(ch-'a') + 10
		case ch >= 'A' && ch <= 'F':
			digit = uint32(ch-'A') + 10
		default:
			return 0, false
		}

		if digit >= base {
			return 0, false
		}

		v = v*base + digit
		if v > 0xff {
			return 0, false
		}
	}

	return uint8(v), true
}
