// Package lazy provides cells for publishing values that can only be built
// after boot into package-level storage. A cell starts out uninitialized (its
// zero value) and is expected to be initialized exactly once.
//
// Access checks are compiled in only when building with the lazycheck tag.
// Without it, reading an uninitialized cell returns the zero value of T and a
// repeated Init overwrites the previous value.
package lazy

// Lazy holds a value that is set once and then only read.
type Lazy[T any] struct {
	val  T
	init bool
}

// Init stores v in the cell.
func (c *Lazy[T]) Init(v T) {
	checkUninit(c.init)
	c.val = v
	c.init = true
}

// IsInit reports whether Init has been called.
func (c *Lazy[T]) IsInit() bool {
	return c.init
}

// Get returns the stored value.
func (c *Lazy[T]) Get() T {
	checkInit(c.init)
	return c.val
}

// TryGet returns the stored value and true, or the zero value and false if
// the cell has not been initialized.
func (c *Lazy[T]) TryGet() (T, bool) {
	if !c.init {
		var zero T
		return zero, false
	}
	return c.val, true
}

// LazyMut holds a value that is set once and may then be modified in place.
// Pointers returned by GetMut stay valid for the lifetime of the cell, which
// for package-level cells is the lifetime of the kernel.
type LazyMut[T any] struct {
	val  T
	init bool
}

// Init stores v in the cell.
func (c *LazyMut[T]) Init(v T) {
	checkUninit(c.init)
	c.val = v
	c.init = true
}

// IsInit reports whether Init has been called.
func (c *LazyMut[T]) IsInit() bool {
	return c.init
}

// Get returns a copy of the stored value.
func (c *LazyMut[T]) Get() T {
	checkInit(c.init)
	return c.val
}

// GetMut returns a pointer to the stored value.
func (c *LazyMut[T]) GetMut() *T {
	checkInit(c.init)
	return &c.val
}

// TryGetMut returns a pointer to the stored value and true, or nil and false
// if the cell has not been initialized.
func (c *LazyMut[T]) TryGetMut() (*T, bool) {
	if !c.init {
		return nil, false
	}
	return &c.val, true
}
