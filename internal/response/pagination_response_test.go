package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 10, 25)
	assert.Equal(t, int64(3), p.TotalPages)
	assert.True(t, p.HasMore)
	assert.Equal(t, 11, p.From)
	assert.Equal(t, 20, p.To)

	last := NewPagination(3, 10, 5, 25)
	assert.False(t, last.HasMore)
	assert.Equal(t, 25, last.To)

	empty := NewPagination(1, 20, 0, 0)
	assert.Equal(t, int64(0), empty.TotalPages)
	assert.Zero(t, empty.From)
	assert.False(t, empty.HasMore)
}
