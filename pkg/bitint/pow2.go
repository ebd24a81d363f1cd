// Package bitint provides power-of-2 bit operations used for sizing
// FFT windows and frame ring segments. All operations are O(1),
// allocation free and safe to call from the audio callback.
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size.
// The size-1 subtraction keeps exact powers of 2 unchanged:
// without it, bits.Len of e.g. 8 (1000) is 4 and the result
// would incorrectly double to 16.
//
//	Input  Output
//	4      4      already a power of 2, preserved
//	5      8
//	0      1      zero and negatives clamp to 1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}

	// 64-bit platforms (where int is 64-bit)
	if ^uint(0)>>63 == 0 {
		return int(1 << (bits.Len64(uint64(size - 1))))
	}

	// 32-bit platforms
	return int(1 << (bits.Len32(uint32(size - 1))))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// Powers of 2 have exactly one bit set, so n&(n-1) is zero
// only for them.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
