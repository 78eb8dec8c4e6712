//go:build lazycheck

package lazy

import "github.com/Wonshtrum/CairnOS2/kernel"

// Checked reports whether cell accesses are validated.
const Checked = true

var (
	errNotInitialized     = &kernel.Error{Module: "lazy", Message: "cell accessed before initialization"}
	errAlreadyInitialized = &kernel.Error{Module: "lazy", Message: "cell initialized twice"}
)

func checkInit(init bool) {
	if !init {
		panic(errNotInitialized)
	}
}

func checkUninit(init bool) {
	if init {
		panic(errAlreadyInitialized)
	}
}
