package helpers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCopyOf(t *testing.T) {
	s := []string{"vegetables", "fruits"}
	s1 := CopyOf(s)
	assert.Equal(t, s, s1)
	s[0] = "dairy"
	assert.Equal(t, "vegetables", s1[0])
	assert.Nil(t, CopyOf([]int(nil)))
}

func TestIfElse(t *testing.T) {
	assert.Equal(t, 201, IfElse(true, 201, 400))
	assert.Equal(t, "b", IfElse(false, "a", "b"))
}

func TestSliceContains(t *testing.T) {
	assert.True(t, SliceContains(404, []int{400, 404, 500}))
	assert.False(t, SliceContains(200, []int{400, 404, 500}))
}

func TestSorted(t *testing.T) {
	s := []string{"herbs", "dairy", "vegetables", "fruits"}
	assert.Equal(t, []string{"dairy", "fruits", "herbs", "vegetables"}, Sorted(s))
	assert.Equal(t, "herbs", s[0])
}

func TestTransform(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, Transform([]string{"a", "b"}, strings.ToUpper))
	assert.Equal(t, []int{}, Transform([]string(nil), func(string) int { return 0 }))
}
