package h5features

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

// makeBatch builds n files named prefix0..prefixN-1 of dim columns. File i
// has frames+i frames; feature values encode (file, frame, column).
func makeBatch(prefix string, n, dim, frames int) FeatureBatch {
	var b FeatureBatch
	for i := 0; i < n; i++ {
		rows := make([][]float64, frames+i)
		times := make([]float64, frames+i)
		for r := range rows {
			rows[r] = make([]float64, dim)
			for c := range rows[r] {
				rows[r][c] = float64(1000*i + 10*r + c)
			}
			times[r] = 0.01 * float64(r)
		}
		b.Add(fmt.Sprintf("%s%d", prefix, i), FromRows(rows), Vector(times))
	}
	return b
}

func tempPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "features.h5f")
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
