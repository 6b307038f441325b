package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	tests := []struct {
		page, size    int
		offset, limit int
	}{
		{page: 1, size: 10, offset: 0, limit: 10},
		{page: 3, size: 20, offset: 40, limit: 20},
		{page: 0, size: 0, offset: 0, limit: DefaultPageSize},
		{page: 2, size: 1000, offset: DefaultPageSize, limit: DefaultPageSize},
	}
	for _, tt := range tests {
		offset, limit := Calculate(tt.page, tt.size)
		assert.Equal(t, tt.offset, offset)
		assert.Equal(t, tt.limit, limit)
	}
}

func TestCalculate_HugePageDoesNotOverflow(t *testing.T) {
	offset, limit := Calculate(math.MaxInt, MaxPageSize)
	assert.Equal(t, MaxPageSize, limit)
	assert.Equal(t, (MaxPage-1)*MaxPageSize, offset)
	assert.Positive(t, offset)
}

func TestTotalPages(t *testing.T) {
	assert.EqualValues(t, 0, TotalPages(0, 10))
	assert.EqualValues(t, 1, TotalPages(10, 10))
	assert.EqualValues(t, 2, TotalPages(11, 10))
	assert.EqualValues(t, 0, TotalPages(5, 0))
}

func TestParseIntDefault(t *testing.T) {
	assert.Equal(t, 4, ParseIntDefault("4", 1))
	assert.Equal(t, 1, ParseIntDefault("x", 1))
	assert.Equal(t, 1, ParseIntDefault("", 1))
}
