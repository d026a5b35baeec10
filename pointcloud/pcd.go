package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// PCDType is the data encoding of a PCD file.
type PCDType int

const (
	// PCDAscii denotes whitespace-delimited text rows.
	PCDAscii PCDType = 0
	// PCDBinary denotes packed little-endian binary rows.
	PCDBinary PCDType = 1
)

const pcdFieldSize = 4

// pcdHeader is the accumulated result of parsing header lines. Keys may
// appear in any order; DATA terminates the header.
type pcdHeader struct {
	fields   []string
	types    []byte
	sizes    []int
	width    uint64
	height   uint64
	points   uint64
	data     PCDType
	sawCount bool
}

// pcdLayout resolves the column positions the reader cares about within a
// row. colorIdx is -1 when the file carries no color field.
type pcdLayout struct {
	header   *pcdHeader
	xIdx     int
	yIdx     int
	zIdx     int
	colorIdx int
}

func parsePCDHeader(in *bufio.Reader) (*pcdHeader, error) {
	h := &pcdHeader{}
	sawData := false
	for !sawData {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Wrap(err, "incomplete pcd header")
		}
		line, _, _ = strings.Cut(line, "#")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, _ := strings.Cut(line, " ")
		value = strings.TrimSpace(value)
		switch key {
		case "FIELDS":
			h.fields = strings.Fields(value)
		case "TYPE":
			for _, tok := range strings.Fields(value) {
				h.types = append(h.types, tok[0])
			}
		case "SIZE":
			for _, tok := range strings.Fields(value) {
				size, err := strconv.Atoi(tok)
				if err != nil {
					return nil, errors.Wrapf(err, "invalid pcd SIZE entry %q", tok)
				}
				h.sizes = append(h.sizes, size)
			}
		case "WIDTH":
			if h.width, err = strconv.ParseUint(value, 10, 64); err != nil {
				return nil, errors.Wrapf(err, "invalid pcd WIDTH %q", value)
			}
			h.sawCount = true
		case "HEIGHT":
			if h.height, err = strconv.ParseUint(value, 10, 64); err != nil {
				return nil, errors.Wrapf(err, "invalid pcd HEIGHT %q", value)
			}
		case "POINTS":
			if h.points, err = strconv.ParseUint(value, 10, 64); err != nil {
				return nil, errors.Wrapf(err, "invalid pcd POINTS %q", value)
			}
			h.sawCount = true
		case "DATA":
			switch value {
			case "ascii":
				h.data = PCDAscii
			case "binary":
				h.data = PCDBinary
			default:
				return nil, errors.Errorf("unsupported pcd DATA encoding %q", value)
			}
			sawData = true
		}
	}
	if h.points == 0 {
		h.points = h.width * h.height
	}
	if !h.sawCount {
		return nil, errors.New("pcd header specifies no point count")
	}
	for _, size := range h.sizes {
		if size != pcdFieldSize {
			return nil, errors.Errorf("unsupported pcd field size %d, only %d-byte fields are supported", size, pcdFieldSize)
		}
	}
	return h, nil
}

func resolvePCDLayout(h *pcdHeader) (*pcdLayout, error) {
	l := &pcdLayout{header: h, xIdx: -1, yIdx: -1, zIdx: -1, colorIdx: -1}
	for i, field := range h.fields {
		switch field {
		case "x":
			l.xIdx = i
		case "y":
			l.yIdx = i
		case "z":
			l.zIdx = i
		case "rgb", "rgba":
			l.colorIdx = i
		}
	}
	if l.xIdx < 0 || l.yIdx < 0 || l.zIdx < 0 {
		return nil, errors.Errorf("pcd file must carry x, y and z fields, got FIELDS %v", h.fields)
	}
	return l, nil
}

// colorType reports the declared TYPE of the color column, defaulting to
// float when the header omits TYPE.
func (l *pcdLayout) colorType() byte {
	if l.colorIdx >= 0 && l.colorIdx < len(l.header.types) {
		return l.header.types[l.colorIdx]
	}
	return 'F'
}

// ReadPCD reads a point cloud from PCD data. Header keys may appear in any
// order; FIELDS must include x, y and z and may include a packed rgb or
// rgba color. Both the ascii and binary encodings are supported.
func ReadPCD(in io.Reader) (Batch, error) {
	buf := bufio.NewReader(in)
	header, err := parsePCDHeader(buf)
	if err != nil {
		return nil, err
	}
	layout, err := resolvePCDLayout(header)
	if err != nil {
		return nil, err
	}
	switch header.data {
	case PCDAscii:
		return readPCDAscii(buf, layout)
	case PCDBinary:
		return readPCDBinary(buf, layout)
	default:
		return nil, errors.Errorf("unsupported pcd data encoding %d", header.data)
	}
}

func readPCDAscii(in *bufio.Reader, l *pcdLayout) (Batch, error) {
	h := l.header
	batch := make(Batch, 0, h.points)
	for i := uint64(0); i < h.points; i++ {
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return nil, errors.Wrapf(err, "unexpected end of pcd data at point %d", i)
		}
		tokens := strings.Fields(line)
		if len(tokens) != len(h.fields) {
			return nil, errors.Errorf("pcd point %d has %d values, want %d", i, len(tokens), len(h.fields))
		}
		var coords [3]float32
		for j, idx := range []int{l.xIdx, l.yIdx, l.zIdx} {
			value, err := strconv.ParseFloat(tokens[idx], 32)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid coordinate in pcd point %d", i)
			}
			coords[j] = float32(value)
		}
		p := NewPoint(coords[0], coords[1], coords[2])
		if l.colorIdx >= 0 {
			packed, err := parsePCDAsciiColor(tokens[l.colorIdx], l.colorType())
			if err != nil {
				return nil, errors.Wrapf(err, "invalid color in pcd point %d", i)
			}
			p.R, p.G, p.B = unpackPCDColor(packed)
		}
		batch = append(batch, p)
	}
	return batch, nil
}

// parsePCDAsciiColor decodes one text color value. Float columns carry the
// packed integer reinterpreted through float bits, the PCL convention;
// integer columns carry it directly.
func parsePCDAsciiColor(token string, typ byte) (uint32, error) {
	if typ == 'F' {
		value, err := strconv.ParseFloat(token, 32)
		if err != nil {
			return 0, err
		}
		return math.Float32bits(float32(value)), nil
	}
	value, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint32(value), nil
}

func readPCDBinary(in *bufio.Reader, l *pcdLayout) (Batch, error) {
	h := l.header
	batch := make(Batch, 0, h.points)
	row := make([]byte, pcdFieldSize*len(h.fields))
	for i := uint64(0); i < h.points; i++ {
		if _, err := io.ReadFull(in, row); err != nil {
			return nil, errors.Wrapf(err, "unexpected end of pcd data at point %d", i)
		}
		p := NewPoint(
			math.Float32frombits(binary.LittleEndian.Uint32(row[pcdFieldSize*l.xIdx:])),
			math.Float32frombits(binary.LittleEndian.Uint32(row[pcdFieldSize*l.yIdx:])),
			math.Float32frombits(binary.LittleEndian.Uint32(row[pcdFieldSize*l.zIdx:])),
		)
		if l.colorIdx >= 0 {
			p.R, p.G, p.B = unpackPCDColor(binary.LittleEndian.Uint32(row[pcdFieldSize*l.colorIdx:]))
		}
		batch = append(batch, p)
	}
	return batch, nil
}

func packPCDColor(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// unpackPCDColor splits a packed rgb value. All-black is a common stand-in
// for "no color recorded" in the wild, so it falls back to white, which is
// what the viewer renders uncolored points as anyway.
func unpackPCDColor(packed uint32) (r, g, b uint8) {
	r = uint8(packed >> 16)
	g = uint8(packed >> 8)
	b = uint8(packed)
	if r == 0 && g == 0 && b == 0 {
		return 255, 255, 255
	}
	return r, g, b
}

// WritePCD writes the batch as a PCD file with FIELDS x y z rgb, the layout
// ReadPCD and the other PCL tools accept.
func WritePCD(batch Batch, out io.Writer, encoding PCDType) error {
	var data string
	switch encoding {
	case PCDAscii:
		data = "ascii"
	case PCDBinary:
		data = "binary"
	default:
		return errors.Errorf("unsupported pcd data encoding %d", encoding)
	}
	_, err := fmt.Fprintf(out, "VERSION .7\n"+
		"FIELDS x y z rgb\n"+
		"SIZE 4 4 4 4\n"+
		"TYPE F F F I\n"+
		"COUNT 1 1 1 1\n"+
		"WIDTH %d\n"+
		"HEIGHT 1\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n"+
		"DATA %s\n",
		len(batch), len(batch), data)
	if err != nil {
		return err
	}
	if encoding == PCDAscii {
		for _, p := range batch {
			if _, err := fmt.Fprintf(out, "%f %f %f %d\n", p.X, p.Y, p.Z, packPCDColor(p.R, p.G, p.B)); err != nil {
				return err
			}
		}
		return nil
	}
	row := make([]byte, 4*pcdFieldSize)
	for _, p := range batch {
		binary.LittleEndian.PutUint32(row[0:], math.Float32bits(p.X))
		binary.LittleEndian.PutUint32(row[4:], math.Float32bits(p.Y))
		binary.LittleEndian.PutUint32(row[8:], math.Float32bits(p.Z))
		binary.LittleEndian.PutUint32(row[12:], packPCDColor(p.R, p.G, p.B))
		if _, err := out.Write(row); err != nil {
			return err
		}
	}
	return nil
}
