// SPDX-License-Identifier: MIT

package validate

import (
	"errors"
	"testing"
)

func TestQubitCount(t *testing.T) {
	cases := []struct {
		name    string
		n       int
		wantErr bool
	}{
		{name: "one qubit", n: 1},
		{name: "many qubits", n: 4096},
		{name: "zero", n: 0, wantErr: true},
		{name: "negative", n: -3, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := QubitCount(tc.n)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalid) {
					t.Fatalf("QubitCount(%d) = %v, want ErrInvalid", tc.n, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("QubitCount(%d) = %v, want nil", tc.n, err)
			}
		})
	}
}

func TestIndex(t *testing.T) {
	cases := []struct {
		name    string
		i       int
		bound   int
		wantErr bool
	}{
		{name: "lower boundary", i: 0, bound: 5},
		{name: "upper boundary", i: 4, bound: 5},
		{name: "middle", i: 2, bound: 5},
		{name: "negative", i: -1, bound: 5, wantErr: true},
		{name: "at bound", i: 5, bound: 5, wantErr: true},
		{name: "past bound", i: 17, bound: 5, wantErr: true},
		{name: "zero bound rejects zero", i: 0, bound: 0, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Index(tc.i, tc.bound, "qubit")
			if tc.wantErr != (err != nil) {
				t.Fatalf("Index(%d, %d) = %v, wantErr=%v", tc.i, tc.bound, err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Fatalf("Index error %v does not wrap ErrInvalid", err)
			}
		})
	}
}

func TestIndicesStopsAtFirstBadIndex(t *testing.T) {
	if err := Indices([]int{0, 1, 2}, 3, "qubit"); err != nil {
		t.Fatalf("Indices valid: %v", err)
	}
	if err := Indices([]int{0, 3, 1}, 3, "qubit"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Indices invalid = %v, want ErrInvalid", err)
	}
}

func TestRange(t *testing.T) {
	if err := Range(3, 0, 3, "optimization level"); err != nil {
		t.Fatalf("Range upper boundary: %v", err)
	}
	if err := Range(0, 0, 3, "optimization level"); err != nil {
		t.Fatalf("Range lower boundary: %v", err)
	}
	if err := Range(4, 0, 3, "optimization level"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("Range out of bounds = %v, want ErrInvalid", err)
	}
}
