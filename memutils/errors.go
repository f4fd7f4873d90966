package memutils

import "github.com/pkg/errors"

// NonPositiveError is returned from CheckPositive or other methods if a size, lifetime or overhead is not
// greater than zero
var NonPositiveError error = errors.New("value must be greater than zero")

// InvalidReleaseError is returned when a release is requested for a block or process that does not currently
// hold an allocation
var InvalidReleaseError error = errors.New("release requested for an unallocated block")

// InvalidHandleError is returned when a block handle does not map to a live block in the heap
var InvalidHandleError error = errors.New("received a handle that was incompatible with this heap")
