package utils

import (
	"fmt"
	"math"
)

// FormatGBP formats an amount in pence as a pound string, e.g. 5500 -> "£55.00"
func FormatGBP(pence int64) string {
	sign := ""
	if pence < 0 {
		sign = "-"
		pence = -pence
	}
	return fmt.Sprintf("%s£%d.%02d", sign, pence/100, pence%100)
}

// ApplyServiceFee returns subTotal plus the service fee, rounded to the
// nearest penny
func ApplyServiceFee(subTotal int64, fee float64) int64 {
	return subTotal + int64(math.Round(float64(subTotal)*fee))
}
