package h5features

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
)

// MinChunkSize is the smallest accepted chunk budget in bytes.
const MinChunkSize int64 = 8 * 1024

// DefaultChunkSize is the chunk budget used when none is given (0.1 MB).
const DefaultChunkSize int64 = 100_000

// PlanChunkRows returns how many rows of dim elements of elemSize bytes fit
// in budget bytes, at least 1.
func PlanChunkRows(dim, elemSize int, budget int64) int {
	rowBytes := int64(dim) * int64(elemSize)
	if rowBytes <= 0 {
		return 1
	}
	return int(max(1, budget/rowBytes))
}

// RowRanges yields consecutive [start, end) ranges of at most per rows
// covering [0, total).
func RowRanges(total, per int) iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		if per < 1 {
			per = 1
		}
		for start := 0; start < total; start += per {
			if !yield(start, min(start+per, total)) {
				return
			}
		}
	}
}

var byteUnits = []struct {
	suffix string
	mult   float64
}{
	{"kib", 1 << 10},
	{"mib", 1 << 20},
	{"gib", 1 << 30},
	{"kb", 1e3},
	{"mb", 1e6},
	{"gb", 1e9},
	{"ko", 1e3},
	{"mo", 1e6},
	{"go", 1e9},
	{"k", 1e3},
	{"m", 1e6},
	{"g", 1e9},
	{"b", 1},
}

// ParseByteSize parses sizes such as "81920", "8KiB", "0.1MB" or "10 Mo".
// Decimal units are powers of 1000, binary units powers of 1024.
func ParseByteSize(s string) (int64, error) {
	str := strings.ToLower(strings.TrimSpace(s))
	mult := 1.0
	for _, u := range byteUnits {
		if strings.HasSuffix(str, u.suffix) {
			str = strings.TrimSpace(strings.TrimSuffix(str, u.suffix))
			mult = u.mult
			break
		}
	}
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing byte size %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("parsing byte size %q: not a finite size", s)
	}
	if v < 0 {
		return 0, fmt.Errorf("parsing byte size %q: negative size", s)
	}
	n := math.Round(v * mult)
	// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
	if n >= math.MaxInt64 {
		return 0, fmt.Errorf("parsing byte size %q: size too large", s)
	}
	return int64(n), nil
}
