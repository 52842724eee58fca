package core

// Sample is the set of floating-point sample types the helpers accept.
type Sample interface {
	~float32 | ~float64
}

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen[T Sample](buf []T, n int) []T {
	if n <= 0 {
		return buf[:0]
	}
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]T, n)
}

// Zero sets all values in buf to 0.
func Zero[T Sample](buf []T) {
	for i := range buf {
		buf[i] = 0
	}
}

// Prefix returns a copy of the first min(n, len(src)) elements of src.
// It never pads beyond what src holds.
func Prefix[T Sample](src []T, n int) []T {
	if n > len(src) {
		n = len(src)
	}
	if n < 0 {
		n = 0
	}
	out := make([]T, n)
	copy(out, src[:n])
	return out
}

// Clone returns a copy of src that never aliases it.
func Clone[T Sample](src []T) []T {
	return Prefix(src, len(src))
}
