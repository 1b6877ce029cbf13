package catalog

// MinPrice returns the smallest finalPrice across variants. Variants without a
// numeric price are ignored; with none left, or a negative minimum, it is 0.
func MinPrice(variants []Variant) float64 {
	min := 0.0
	seen := false
	for _, v := range variants {
		if v.FinalPrice == nil {
			continue
		}
		if !seen || *v.FinalPrice < min {
			min = *v.FinalPrice
			seen = true
		}
	}
	if !seen || min < 0 {
		return 0
	}
	return min
}
