package container

import "github.com/14thibea/h5features/internal/filter"

// FileOption configures file creation options.
type FileOption func(*fileOptions)

type fileOptions struct {
	offsetSize int
	lengthSize int
}

func defaultFileOptions() *fileOptions {
	return &fileOptions{
		offsetSize: 8,
		lengthSize: 8,
	}
}

// WithOffsetSize sets the size in bytes for file offsets (4 or 8).
func WithOffsetSize(size int) FileOption {
	return func(o *fileOptions) {
		if size == 4 || size == 8 {
			o.offsetSize = size
		}
	}
}

// WithLengthSize sets the size in bytes for lengths (4 or 8).
func WithLengthSize(size int) FileOption {
	return func(o *fileOptions) {
		if size == 4 || size == 8 {
			o.lengthSize = size
		}
	}
}

// DatasetOption configures dataset creation options.
type DatasetOption func(*datasetOptions)

type datasetOptions struct {
	compressionLvl int
	zstdLvl        int
	shuffle        bool
	fletcher32     bool
}

// WithCompression sets the deflate compression level (1-9, 0 = none).
func WithCompression(level int) DatasetOption {
	return func(o *datasetOptions) {
		if level >= 0 && level <= 9 {
			o.compressionLvl = level
		}
	}
}

// WithZstd enables zstd compression at the given level (1-22).
// It takes precedence over WithCompression.
func WithZstd(level int) DatasetOption {
	return func(o *datasetOptions) {
		if level >= 1 && level <= 22 {
			o.zstdLvl = level
		}
	}
}

// WithShuffle enables the shuffle filter (improves compression).
// It is ignored for string datasets.
func WithShuffle() DatasetOption {
	return func(o *datasetOptions) {
		o.shuffle = true
	}
}

// WithFletcher32 enables Fletcher32 checksum validation.
func WithFletcher32() DatasetOption {
	return func(o *datasetOptions) {
		o.fletcher32 = true
	}
}

// pipeline returns the filter descriptions for a dataset of elemSize-byte
// elements, in encode order.
func (o *datasetOptions) pipeline(elemSize int) []filter.Info {
	var infos []filter.Info
	if o.shuffle && elemSize > 1 {
		infos = append(infos, filter.Info{ID: filter.IDShuffle, ClientData: []uint32{uint32(elemSize)}})
	}
	switch {
	case o.zstdLvl > 0:
		infos = append(infos, filter.Info{ID: filter.IDZstd, ClientData: []uint32{uint32(o.zstdLvl)}})
	case o.compressionLvl > 0:
		infos = append(infos, filter.Info{ID: filter.IDDeflate, ClientData: []uint32{uint32(o.compressionLvl)}})
	}
	if o.fletcher32 {
		infos = append(infos, filter.Info{ID: filter.IDFletcher32})
	}
	return infos
}
