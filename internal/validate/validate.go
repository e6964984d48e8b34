// SPDX-License-Identifier: MIT

// Package validate provides input validation for qubit counts and indices.
//
// These checks are the only locally owned policy in the facade: everything
// past them is delegated to the wrapped SDK, which performs its own deeper
// validation.
package validate

import (
	"errors"
	"fmt"
)

// ErrInvalid is the sentinel wrapped by every validation failure, so callers
// can match the whole invalid-input class with errors.Is.
var ErrInvalid = errors.New("invalid input")

// QubitCount fails unless n is a positive number of qubits.
func QubitCount(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: qubit count must be positive, got %d", ErrInvalid, n)
	}
	return nil
}

// BitCount fails unless n is a non-negative number of classical bits.
func BitCount(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: classical bit count must be non-negative, got %d", ErrInvalid, n)
	}
	return nil
}

// Index fails unless i lies in [0, bound). what names the index in the error
// message ("qubit", "clbit", ...).
func Index(i, bound int, what string) error {
	if i < 0 || i >= bound {
		return fmt.Errorf("%w: %s index %d out of range [0, %d)", ErrInvalid, what, i, bound)
	}
	return nil
}

// Indices applies Index to every element of idx.
func Indices(idx []int, bound int, what string) error {
	for _, i := range idx {
		if err := Index(i, bound, what); err != nil {
			return err
		}
	}
	return nil
}

// Range fails unless v lies in [lo, hi]. Used for bounded option values such
// as the transpiler optimization level.
func Range(v, lo, hi int, what string) error {
	if v < lo || v > hi {
		return fmt.Errorf("%w: %s must be in [%d, %d], got %d", ErrInvalid, what, lo, hi, v)
	}
	return nil
}
