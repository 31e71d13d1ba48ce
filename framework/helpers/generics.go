package helpers

import (
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

func IfElse[V any](isTrue bool, valueIfTrue, valueIfFalse V) V {
	if isTrue {
		return valueIfTrue
	}
	return valueIfFalse
}

func SliceContains[V comparable](value V, slice []V) bool {
	return slices.Contains(slice, value)
}

// CopyOf returns a shallow copy of the slice; nil stays nil.
func CopyOf[V any](s []V) []V {
	if s == nil {
		return nil
	}
	return append(make([]V, 0, len(s)), s...)
}

// Sorted returns a sorted copy of the slice.
func Sorted[V constraints.Ordered](s []V) []V {
	ret := CopyOf(s)
	slices.Sort(ret)
	return ret
}

// Transform applies fn to each element.
func Transform[V, W any](s []V, fn func(V) W) []W {
	ret := make([]W, 0, len(s))
	for _, v := range s {
		ret = append(ret, fn(v))
	}
	return ret
}
