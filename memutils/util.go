package memutils

import (
	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64
}

// CheckPositive returns an error wrapping NonPositiveError if number is zero or negative
func CheckPositive[T Number](number T, name string) error {
	if number <= 0 {
		return cerrors.Wrapf(NonPositiveError, "%s is %d", name, number)
	}
	return nil
}

// CheckNonNegative returns an error wrapping NonPositiveError if number is negative
func CheckNonNegative[T Number](number T, name string) error {
	if number < 0 {
		return cerrors.Wrapf(NonPositiveError, "%s is %d, must not be negative", name, number)
	}
	return nil
}

// SumSizes adds up a list of block sizes
func SumSizes[T Number](sizes []T) T {
	var total T
	for _, size := range sizes {
		total += size
	}
	return total
}
