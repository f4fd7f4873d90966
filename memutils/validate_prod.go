//go:build !debug_heapsim

package memutils

// DebugEnabled is true when the module is built with the debug_heapsim build tag
const DebugEnabled bool = false

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_heapsim build tag is present
func DebugValidate(validatable Validatable) {
}

// DebugCheckPositive will verify that the numerical value passed in is greater than zero, and panics if it is not.
// This method no-ops unless the debug_heapsim build tag is present.
func DebugCheckPositive[T Number](value T, name string) {
}
