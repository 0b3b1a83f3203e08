package binary

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	for _, size := range []int{4, 8} {
		cfg := Config{ByteOrder: binary.LittleEndian, OffsetSize: size, LengthSize: size}
		buf := &Buffer{}
		w := NewWriter(buf, cfg)

		if err := w.WriteUint8(0xAB); err != nil {
			t.Fatalf("WriteUint8 failed: %v", err)
		}
		if err := w.WriteUint16(0x1234); err != nil {
			t.Fatalf("WriteUint16 failed: %v", err)
		}
		if err := w.WriteUint32(0xDEADBEEF); err != nil {
			t.Fatalf("WriteUint32 failed: %v", err)
		}
		if err := w.WriteOffset(0x1000); err != nil {
			t.Fatalf("WriteOffset failed: %v", err)
		}
		if err := w.WriteLength(42); err != nil {
			t.Fatalf("WriteLength failed: %v", err)
		}
		if err := w.WriteString("features"); err != nil {
			t.Fatalf("WriteString failed: %v", err)
		}

		wantLen := 1 + 2 + 4 + 2*size + 2 + len("features")
		if buf.Len() != wantLen || w.Pos() != int64(wantLen) {
			t.Fatalf("size %d: buffer len %d pos %d, want %d", size, buf.Len(), w.Pos(), wantLen)
		}

		r := NewReader(bytes.NewReader(buf.Bytes()), cfg)
		if v, _ := r.ReadUint8(); v != 0xAB {
			t.Errorf("ReadUint8: got 0x%x", v)
		}
		if v, _ := r.ReadUint16(); v != 0x1234 {
			t.Errorf("ReadUint16: got 0x%x", v)
		}
		if v, _ := r.ReadUint32(); v != 0xDEADBEEF {
			t.Errorf("ReadUint32: got 0x%x", v)
		}
		if v, _ := r.ReadOffset(); v != 0x1000 {
			t.Errorf("ReadOffset: got 0x%x", v)
		}
		if v, _ := r.ReadLength(); v != 42 {
			t.Errorf("ReadLength: got %d", v)
		}
		if s, err := r.ReadString(); err != nil || s != "features" {
			t.Errorf("ReadString: got %q, %v", s, err)
		}
	}
}

func TestReaderShortRead(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2}), DefaultConfig())
	if _, err := r.ReadUint32(); err == nil {
		t.Error("expected error reading past end")
	}
	if r.Pos() != 0 {
		t.Errorf("position moved on failed read: %d", r.Pos())
	}
}

func TestWriterAtIndependentPosition(t *testing.T) {
	buf := &Buffer{}
	w := NewWriter(buf, DefaultConfig())
	w2 := w.At(16)
	if err := w2.WriteUint32(7); err != nil {
		t.Fatalf("WriteUint32 failed: %v", err)
	}
	if w.Pos() != 0 {
		t.Errorf("original writer moved: %d", w.Pos())
	}
	if buf.Len() != 20 {
		t.Errorf("buffer len: got %d, want 20", buf.Len())
	}
}

func TestOffsetOverflow(t *testing.T) {
	cfg := Config{ByteOrder: binary.LittleEndian, OffsetSize: 4, LengthSize: 4}
	w := NewWriter(&Buffer{}, cfg)
	if err := w.WriteOffset(1 << 40); err == nil {
		t.Error("expected overflow error for 4-byte offset")
	}
}

func TestWriteStringTooLong(t *testing.T) {
	w := NewWriter(&Buffer{}, DefaultConfig())
	if err := w.WriteString(strings.Repeat("x", 70000)); err == nil {
		t.Error("expected error for oversized string")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	bad := Config{ByteOrder: binary.LittleEndian, OffsetSize: 3, LengthSize: 8}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for offset size 3")
	}
}

func TestFletcher32(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint32
	}{
		{"empty", nil, 0},
		{"one word", []byte{0x01, 0x02}, 0x02010201},
		{"odd byte", []byte{0x05}, 0x00050005},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fletcher32(tt.data); got != tt.want {
				t.Errorf("Fletcher32: got 0x%08x, want 0x%08x", got, tt.want)
			}
		})
	}
}
