// Package utils holds small helpers shared by tests and fixtures.
package utils

import "github.com/vpetrenko/bp-journal/model"

// ReadingPtr returns a pointer to the given Reading value.
func ReadingPtr(r model.Reading) *model.Reading { return &r }

// I64Ptr returns a pointer to the given int64 value.
func I64Ptr(v int64) *int64 { return &v }
