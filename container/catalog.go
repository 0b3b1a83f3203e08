package container

import (
	"bytes"
	"fmt"
	"math"
	"slices"

	binpkg "github.com/14thibea/h5features/internal/binary"
	"github.com/14thibea/h5features/internal/dtype"
	"github.com/14thibea/h5features/internal/filter"
	"github.com/14thibea/h5features/internal/superblock"
)

// Catalog layout (all integers little-endian):
//
//	version          uint8
//	group count      uint32
//	per group:
//	  name           string (uint16 length prefix)
//	  attr count     uint16
//	  per attr:      name string, kind uint8, value
//	  dataset count  uint16
//	  per dataset:
//	    name, dtype uint8, width uint32, rows length
//	    filter count uint8, per filter: id uint16, n uint8, n x uint32
//	    chunk count uint32, per chunk: addr offset, size length, rows length
//	checksum         uint32 (xxh3 of everything above)
const catalogVersion uint8 = 1

// Attribute value kinds.
const (
	attrString uint8 = 1
	attrInt    uint8 = 2
	attrFloat  uint8 = 3
)

type catalog struct {
	groups map[string]*groupEntry
}

type groupEntry struct {
	name     string
	attrs    map[string]any
	datasets map[string]*datasetEntry
}

type datasetEntry struct {
	name    string
	dtype   dtype.Dtype
	width   int
	rows    uint64
	filters []filter.Info
	chunks  []chunkRef
}

// chunkRef locates one stored chunk.
type chunkRef struct {
	Addr uint64
	Size uint64
	Rows uint64
}

func newCatalog() *catalog {
	return &catalog{groups: make(map[string]*groupEntry)}
}

func newGroupEntry(name string) *groupEntry {
	return &groupEntry{
		name:     name,
		attrs:    make(map[string]any),
		datasets: make(map[string]*datasetEntry),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// encoder keeps the first write error so encoding code stays linear.
type encoder struct {
	w   *binpkg.Writer
	err error
}

func (e *encoder) u8(v uint8) {
	if e.err == nil {
		e.err = e.w.WriteUint8(v)
	}
}

func (e *encoder) u16(v uint16) {
	if e.err == nil {
		e.err = e.w.WriteUint16(v)
	}
}

func (e *encoder) u32(v uint32) {
	if e.err == nil {
		e.err = e.w.WriteUint32(v)
	}
}

func (e *encoder) u64(v uint64) {
	if e.err == nil {
		e.err = e.w.WriteUint64(v)
	}
}

func (e *encoder) offset(v uint64) {
	if e.err == nil {
		e.err = e.w.WriteOffset(v)
	}
}

func (e *encoder) length(v uint64) {
	if e.err == nil {
		e.err = e.w.WriteLength(v)
	}
}

func (e *encoder) str(s string) {
	if e.err == nil {
		e.err = e.w.WriteString(s)
	}
}

func (c *catalog) encode(cfg binpkg.Config) ([]byte, error) {
	buf := &binpkg.Buffer{}
	e := &encoder{w: binpkg.NewWriter(buf, cfg)}

	e.u8(catalogVersion)
	e.u32(uint32(len(c.groups)))
	for _, gname := range sortedKeys(c.groups) {
		g := c.groups[gname]
		e.str(g.name)

		e.u16(uint16(len(g.attrs)))
		for _, aname := range sortedKeys(g.attrs) {
			e.str(aname)
			switch v := g.attrs[aname].(type) {
			case string:
				e.u8(attrString)
				e.str(v)
			case int64:
				e.u8(attrInt)
				e.u64(uint64(v))
			case float64:
				e.u8(attrFloat)
				e.u64(math.Float64bits(v))
			default:
				return nil, fmt.Errorf("attribute %s/%s: unsupported type %T", gname, aname, v)
			}
		}

		e.u16(uint16(len(g.datasets)))
		for _, dname := range sortedKeys(g.datasets) {
			d := g.datasets[dname]
			e.str(d.name)
			e.u8(uint8(d.dtype))
			e.u32(uint32(d.width))
			e.length(d.rows)
			e.u8(uint8(len(d.filters)))
			for _, f := range d.filters {
				e.u16(f.ID)
				e.u8(uint8(len(f.ClientData)))
				for _, v := range f.ClientData {
					e.u32(v)
				}
			}
			e.u32(uint32(len(d.chunks)))
			for _, ch := range d.chunks {
				e.offset(ch.Addr)
				e.length(ch.Size)
				e.length(ch.Rows)
			}
		}
	}
	if e.err != nil {
		return nil, fmt.Errorf("encoding catalog: %w", e.err)
	}
	e.u32(superblock.Checksum(buf.Bytes()))
	if e.err != nil {
		return nil, fmt.Errorf("encoding catalog: %w", e.err)
	}
	return buf.Bytes(), nil
}

// decoder mirrors encoder for reading.
type decoder struct {
	r   *binpkg.Reader
	err error
}

func (d *decoder) u8() uint8 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadUint8()
	d.err = err
	return v
}

func (d *decoder) u16() uint16 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadUint16()
	d.err = err
	return v
}

func (d *decoder) u32() uint32 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadUint32()
	d.err = err
	return v
}

func (d *decoder) u64() uint64 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadUint64()
	d.err = err
	return v
}

func (d *decoder) offset() uint64 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadOffset()
	d.err = err
	return v
}

func (d *decoder) length() uint64 {
	if d.err != nil {
		return 0
	}
	v, err := d.r.ReadLength()
	d.err = err
	return v
}

func (d *decoder) str() string {
	if d.err != nil {
		return ""
	}
	v, err := d.r.ReadString()
	d.err = err
	return v
}

func decodeCatalog(raw []byte, cfg binpkg.Config) (*catalog, error) {
	if len(raw) < 5 {
		return nil, fmt.Errorf("%w: catalog too short (%d bytes)", ErrCorrupt, len(raw))
	}
	body := raw[:len(raw)-4]
	stored := cfg.ByteOrder.Uint32(raw[len(raw)-4:])
	if superblock.Checksum(body) != stored {
		return nil, fmt.Errorf("%w: catalog checksum mismatch", ErrCorrupt)
	}

	d := &decoder{r: binpkg.NewReader(bytes.NewReader(body), cfg)}
	if v := d.u8(); d.err == nil && v != catalogVersion {
		return nil, fmt.Errorf("%w: unsupported catalog version %d", ErrCorrupt, v)
	}

	c := newCatalog()
	ngroups := d.u32()
	for i := uint32(0); i < ngroups && d.err == nil; i++ {
		g := newGroupEntry(d.str())

		nattrs := d.u16()
		for j := uint16(0); j < nattrs && d.err == nil; j++ {
			name := d.str()
			switch kind := d.u8(); kind {
			case attrString:
				g.attrs[name] = d.str()
			case attrInt:
				g.attrs[name] = int64(d.u64())
			case attrFloat:
				g.attrs[name] = math.Float64frombits(d.u64())
			default:
				if d.err == nil {
					return nil, fmt.Errorf("%w: attribute %s/%s has unknown kind %d", ErrCorrupt, g.name, name, kind)
				}
			}
		}

		ndatasets := d.u16()
		for j := uint16(0); j < ndatasets && d.err == nil; j++ {
			ds := &datasetEntry{
				name:  d.str(),
				dtype: dtype.Dtype(d.u8()),
				width: int(d.u32()),
				rows:  d.length(),
			}
			nfilters := d.u8()
			for k := uint8(0); k < nfilters && d.err == nil; k++ {
				info := filter.Info{ID: d.u16()}
				ncd := d.u8()
				for l := uint8(0); l < ncd && d.err == nil; l++ {
					info.ClientData = append(info.ClientData, d.u32())
				}
				ds.filters = append(ds.filters, info)
			}
			nchunks := d.u32()
			var total uint64
			for k := uint32(0); k < nchunks && d.err == nil; k++ {
				ch := chunkRef{Addr: d.offset(), Size: d.length(), Rows: d.length()}
				total += ch.Rows
				ds.chunks = append(ds.chunks, ch)
			}
			if d.err != nil {
				break
			}
			if !ds.dtype.Valid() || ds.width < 1 {
				return nil, fmt.Errorf("%w: dataset %s/%s has invalid type %s or width %d", ErrCorrupt, g.name, ds.name, ds.dtype, ds.width)
			}
			if total != ds.rows {
				return nil, fmt.Errorf("%w: dataset %s/%s chunks hold %d rows, catalog says %d", ErrCorrupt, g.name, ds.name, total, ds.rows)
			}
			g.datasets[ds.name] = ds
		}
		c.groups[g.name] = g
	}
	if d.err != nil {
		return nil, fmt.Errorf("%w: decoding catalog: %v", ErrCorrupt, d.err)
	}
	return c, nil
}
