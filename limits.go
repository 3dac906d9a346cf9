package gotable

import (
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 1000
	FirstPage       = 1
)

// IsNormalizedPageSizeMax clamps size into [1, maxSize], substituting
// DefaultPageSize for non-positive values. The boolean is true when size was
// already within bounds.
func IsNormalizedPageSizeMax(size int, maxSize int) (int, bool) {
	if size <= 0 {
		return DefaultPageSize, false
	} else if size > maxSize {
		return maxSize, false
	}

	return size, true
}

func NormalizePageSizeMax(size int, maxSize int) int {
	ret, _ := IsNormalizedPageSizeMax(size, maxSize)
	return ret
}

func NormalizePageSize(size int) int {
	return NormalizePageSizeMax(size, MaxPageSize)
}

// ParsePage converts a raw page parameter to a page number >= FirstPage.
// Leading decimal digits are honoured ("3rd" -> 3); anything else, including
// zero and negative numbers, yields FirstPage.
func ParsePage(raw string) int {
	raw = strings.TrimSpace(raw)

	end := 0
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == 0 {
		return FirstPage
	}

	page, err := strconv.Atoi(raw[:end])
	if err != nil {
		// Overflow: digits only, so the number is just huge.
		return FirstPage
	}

	return NormalizePage(page)
}

// NormalizePage floors page to FirstPage.
func NormalizePage(page int) int {
	return max(FirstPage, page)
}

// TotalPages returns ceil(total/size), or 0 when size is not positive.
func TotalPages(total int, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}

	return (total + size - 1) / size
}
