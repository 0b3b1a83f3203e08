// Package stats summarizes the number of frames per file of a write.
package stats

import (
	"fmt"

	"github.com/DataDog/sketches-go/ddsketch"
)

// relativeAccuracy of the quantile estimates.
const relativeAccuracy = 0.01

// Summary holds the distribution of frames per file.
type Summary struct {
	Files  int
	Frames int
	Min    float64
	P50    float64
	P90    float64
	Max    float64
}

// String formats s for a write report.
func (s Summary) String() string {
	if s.Files == 0 {
		return "0 files"
	}
	return fmt.Sprintf("%d files, %d frames, frames/file min %.0f p50 %.0f p90 %.0f max %.0f",
		s.Files, s.Frames, s.Min, s.P50, s.P90, s.Max)
}

// Frames accumulates frame counts.
type Frames struct {
	sketch *ddsketch.DDSketch
	files  int
	frames int
}

// NewFrames returns an empty accumulator.
func NewFrames() (*Frames, error) {
	sketch, err := ddsketch.NewDefaultDDSketch(relativeAccuracy)
	if err != nil {
		return nil, fmt.Errorf("create sketch: %w", err)
	}
	return &Frames{sketch: sketch}, nil
}

// Add records one file of n frames.
func (f *Frames) Add(n int) error {
	if err := f.sketch.Add(float64(n)); err != nil {
		return err
	}
	f.files++
	f.frames += n
	return nil
}

// Summary returns the current distribution.
func (f *Frames) Summary() (Summary, error) {
	s := Summary{Files: f.files, Frames: f.frames}
	if f.files == 0 {
		return s, nil
	}
	var err error
	if s.Min, err = f.sketch.GetMinValue(); err != nil {
		return s, err
	}
	if s.Max, err = f.sketch.GetMaxValue(); err != nil {
		return s, err
	}
	qs, err := f.sketch.GetValuesAtQuantiles([]float64{0.5, 0.9})
	if err != nil {
		return s, err
	}
	s.P50, s.P90 = qs[0], qs[1]
	return s, nil
}

// Summarize returns the distribution of counts.
func Summarize(counts []int) (Summary, error) {
	f, err := NewFrames()
	if err != nil {
		return Summary{}, err
	}
	for _, n := range counts {
		if err := f.Add(n); err != nil {
			return Summary{}, err
		}
	}
	return f.Summary()
}
