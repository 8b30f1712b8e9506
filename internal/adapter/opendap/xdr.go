package opendap

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// dataMarker separates the DDS text from the XDR body of a .dods response.
var dataMarker = []byte("\nData:\n")

// decodedVar holds the values of one decoded array or scalar.
type decodedVar struct {
	Name   string
	Dims   []Dim
	Values []float64
}

// decodeDODS splits a .dods response and decodes every numeric variable.
func decodeDODS(body []byte) (*decl, []decodedVar, error) {
	i := bytes.Index(body, dataMarker)
	if i < 0 {
		return nil, nil, fmt.Errorf("malformed DODS response: no data marker")
	}
	dds, err := parseDDS(string(body[:i]))
	if err != nil {
		return nil, nil, err
	}

	dec := &xdrDecoder{buf: body[i+len(dataMarker):]}
	var out []decodedVar
	for _, d := range dds.Children {
		if err := dec.decl(d, &out); err != nil {
			return nil, nil, fmt.Errorf("decode %s: %w", d.Name, err)
		}
	}
	return dds, out, nil
}

type xdrDecoder struct {
	buf []byte
	pos int
}

func (x *xdrDecoder) take(n int) ([]byte, error) {
	if x.pos+n > len(x.buf) {
		return nil, fmt.Errorf("truncated XDR data: need %d bytes at offset %d, have %d", n, x.pos, len(x.buf)-x.pos)
	}
	b := x.buf[x.pos : x.pos+n]
	x.pos += n
	return b, nil
}

func (x *xdrDecoder) uint32() (uint32, error) {
	b, err := x.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (x *xdrDecoder) decl(d *decl, out *[]decodedVar) error {
	switch d.Kind {
	case kindStructure:
		for _, c := range d.Children {
			if err := x.decl(c, out); err != nil {
				return err
			}
		}
		return nil
	case kindGrid:
		for _, c := range d.Children {
			if err := x.decl(c, out); err != nil {
				return err
			}
		}
		return nil
	case kindSequence:
		return fmt.Errorf("sequences are not supported")
	}

	if d.Type == typeString || d.Type == typeURL {
		return fmt.Errorf("string variables are not supported")
	}

	n := d.size()
	if len(d.Dims) > 0 {
		// Arrays carry their length twice.
		n1, err := x.uint32()
		if err != nil {
			return err
		}
		n2, err := x.uint32()
		if err != nil {
			return err
		}
		if int(n1) != n || int(n2) != n {
			return fmt.Errorf("array length %d/%d does not match declared size %d", n1, n2, n)
		}
	}

	values, err := x.values(d.Type, n)
	if err != nil {
		return err
	}
	*out = append(*out, decodedVar{Name: d.Name, Dims: d.Dims, Values: values})
	return nil
}

func (x *xdrDecoder) values(typ string, n int) ([]float64, error) {
	out := make([]float64, n)
	switch typ {
	case typeByte:
		b, err := x.take(n)
		if err != nil {
			return nil, err
		}
		for i, v := range b {
			out[i] = float64(v)
		}
		if pad := (4 - n%4) % 4; pad > 0 {
			if _, err := x.take(pad); err != nil {
				return nil, err
			}
		}
	case typeInt16, typeInt32:
		// Int16 is transmitted as a 4-byte integer.
		for i := range out {
			v, err := x.uint32()
			if err != nil {
				return nil, err
			}
			out[i] = float64(int32(v))
		}
	case typeUInt16, typeUInt32:
		for i := range out {
			v, err := x.uint32()
			if err != nil {
				return nil, err
			}
			out[i] = float64(v)
		}
	case typeFloat32:
		for i := range out {
			v, err := x.uint32()
			if err != nil {
				return nil, err
			}
			out[i] = float64(math.Float32frombits(v))
		}
	case typeFloat64:
		for i := range out {
			b, err := x.take(8)
			if err != nil {
				return nil, err
			}
			out[i] = math.Float64frombits(binary.BigEndian.Uint64(b))
		}
	default:
		return nil, fmt.Errorf("unsupported type %s", typ)
	}
	return out, nil
}
