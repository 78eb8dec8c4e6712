//go:build !lazycheck

package lazy

// Checked reports whether cell accesses are validated.
const Checked = false

func checkInit(bool)   {}
func checkUninit(bool) {}
