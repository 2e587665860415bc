package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatGBP(t *testing.T) {
	assert.Equal(t, "£55.00", FormatGBP(5500))
	assert.Equal(t, "£0.01", FormatGBP(1))
	assert.Equal(t, "£0.00", FormatGBP(0))
	assert.Equal(t, "£12.34", FormatGBP(1234))
	assert.Equal(t, "-£5.50", FormatGBP(-550))
}

func TestApplyServiceFee(t *testing.T) {
	// 10% on £50.00
	assert.Equal(t, int64(5500), ApplyServiceFee(5000, 0.1))

	// rounds to the nearest penny: 10% of 5 pence is 0.5, rounds up
	assert.Equal(t, int64(6), ApplyServiceFee(5, 0.1))

	// zero fee passes through
	assert.Equal(t, int64(5000), ApplyServiceFee(5000, 0))

	// 7.5% of £19.99 is 149.925 pence, rounds to 150
	assert.Equal(t, int64(2149), ApplyServiceFee(1999, 0.075))
}
