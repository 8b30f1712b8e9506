package opendap

import (
	"context"
	"fmt"
	"sync"

	"github.com/fhs/go-netcdf/netcdf"
)

// libnetcdf is not thread-safe; every call into it holds libMu.
var libMu sync.Mutex

// NetCDFBackend opens datasets with libnetcdf. Remote OPeNDAP URLs are handled
// by the library's DAP client; plain paths open local files.
type NetCDFBackend struct{}

// NewNetCDFBackend creates the libnetcdf access backend.
func NewNetCDFBackend() *NetCDFBackend {
	return &NetCDFBackend{}
}

// Name implements Backend.
func (b *NetCDFBackend) Name() string {
	return "netcdf"
}

// Open implements Backend.
func (b *NetCDFBackend) Open(ctx context.Context, url string) (Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	libMu.Lock()
	defer libMu.Unlock()

	nc, err := netcdf.OpenFile(url, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF dataset: %w", err)
	}
	return &ncDataset{nc: nc}, nil
}

type ncDataset struct {
	nc netcdf.Dataset
}

func (d *ncDataset) variable(name string) (netcdf.Var, error) {
	v, err := d.nc.Var(name)
	if err != nil {
		return netcdf.Var{}, fmt.Errorf("variable %q not found: %w", name, err)
	}
	return v, nil
}

func (d *ncDataset) Dims(variable string) ([]Dim, error) {
	libMu.Lock()
	defer libMu.Unlock()

	v, err := d.variable(variable)
	if err != nil {
		return nil, err
	}
	return varDims(v)
}

func varDims(v netcdf.Var) ([]Dim, error) {
	dims, err := v.Dims()
	if err != nil {
		return nil, fmt.Errorf("failed to get dimensions: %w", err)
	}
	out := make([]Dim, len(dims))
	for i, dim := range dims {
		name, err := dim.Name()
		if err != nil {
			return nil, fmt.Errorf("failed to get dim%d name: %w", i, err)
		}
		n, err := dim.Len()
		if err != nil {
			return nil, fmt.Errorf("failed to get dim%d length: %w", i, err)
		}
		out[i] = Dim{Name: name, Len: int(n)} //nolint:gosec // G115: dimension lengths fit in int.
	}
	return out, nil
}

func (d *ncDataset) Attr(variable, name string) (Attr, bool) {
	libMu.Lock()
	defer libMu.Unlock()

	v, err := d.variable(variable)
	if err != nil {
		return Attr{}, false
	}
	return readAttr(v.Attr(name))
}

func (d *ncDataset) AttrNames(variable string) []string {
	libMu.Lock()
	defer libMu.Unlock()

	v, err := d.variable(variable)
	if err != nil {
		return nil
	}
	n, err := v.NAttrs()
	if err != nil {
		return nil
	}
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		a, err := v.AttrN(i)
		if err != nil {
			continue
		}
		names = append(names, a.Name())
	}
	return names
}

// readAttr decodes text and numeric attributes.
func readAttr(a netcdf.Attr) (Attr, bool) {
	n, err := a.Len()
	if err != nil || n == 0 {
		return Attr{}, false
	}
	t, err := a.Type()
	if err != nil {
		return Attr{}, false
	}

	switch t {
	case netcdf.CHAR:
		buf := make([]byte, n)
		if err := a.ReadBytes(buf); err != nil {
			return Attr{}, false
		}
		return Attr{Text: trimNul(buf)}, true
	case netcdf.DOUBLE:
		buf := make([]float64, n)
		if err := a.ReadFloat64s(buf); err != nil {
			return Attr{}, false
		}
		return Attr{Values: buf}, true
	case netcdf.FLOAT:
		buf := make([]float32, n)
		if err := a.ReadFloat32s(buf); err != nil {
			return Attr{}, false
		}
		return Attr{Values: widen(buf)}, true
	case netcdf.INT:
		buf := make([]int32, n)
		if err := a.ReadInt32s(buf); err != nil {
			return Attr{}, false
		}
		return Attr{Values: widen(buf)}, true
	case netcdf.SHORT:
		buf := make([]int16, n)
		if err := a.ReadInt16s(buf); err != nil {
			return Attr{}, false
		}
		return Attr{Values: widen(buf)}, true
	case netcdf.BYTE, netcdf.UBYTE, netcdf.USHORT, netcdf.UINT, netcdf.INT64, netcdf.UINT64, netcdf.STRING:
		return Attr{}, false
	default:
		return Attr{}, false
	}
}

func (d *ncDataset) Axis(ctx context.Context, variable string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	libMu.Lock()
	v, err := d.variable(variable)
	if err != nil {
		libMu.Unlock()
		return nil, err
	}
	dims, err := varDims(v)
	libMu.Unlock()
	if err != nil {
		return nil, err
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D variable %q, got %dD", variable, len(dims))
	}
	return d.Read(ctx, variable, []int{0}, []int{dims[0].Len})
}

func (d *ncDataset) Read(ctx context.Context, variable string, start, count []int) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(start) != len(count) {
		return nil, fmt.Errorf("start/count rank mismatch: %d vs %d", len(start), len(count))
	}

	libMu.Lock()
	defer libMu.Unlock()

	v, err := d.variable(variable)
	if err != nil {
		return nil, err
	}
	return readSlice(v, start, count)
}

// readSlice reads a hyperslab of a variable as float64.
// Supports DOUBLE, FLOAT, INT and SHORT variables.
func readSlice(v netcdf.Var, start, count []int) ([]float64, error) {
	varType, err := v.Type()
	if err != nil {
		return nil, fmt.Errorf("failed to get variable type: %w", err)
	}

	total := 1
	ustart := make([]uint64, len(start))
	ucount := make([]uint64, len(count))
	for i := range start {
		if start[i] < 0 || count[i] < 0 {
			return nil, fmt.Errorf("negative hyperslab index in dim %d", i)
		}
		ustart[i] = uint64(start[i])
		ucount[i] = uint64(count[i])
		total *= count[i]
	}
	if total == 0 {
		return []float64{}, nil
	}

	switch varType {
	case netcdf.DOUBLE:
		data := make([]float64, total)
		if err := v.ReadFloat64Slice(data, ustart, ucount); err != nil {
			return nil, fmt.Errorf("failed to read float64 subset: %w", err)
		}
		return data, nil
	case netcdf.FLOAT:
		data := make([]float32, total)
		if err := v.ReadFloat32Slice(data, ustart, ucount); err != nil {
			return nil, fmt.Errorf("failed to read float32 subset: %w", err)
		}
		return widen(data), nil
	case netcdf.INT:
		data := make([]int32, total)
		if err := v.ReadInt32Slice(data, ustart, ucount); err != nil {
			return nil, fmt.Errorf("failed to read int32 subset: %w", err)
		}
		return widen(data), nil
	case netcdf.SHORT:
		data := make([]int16, total)
		if err := v.ReadInt16Slice(data, ustart, ucount); err != nil {
			return nil, fmt.Errorf("failed to read int16 subset: %w", err)
		}
		return widen(data), nil
	case netcdf.BYTE, netcdf.CHAR, netcdf.UBYTE, netcdf.USHORT, netcdf.UINT, netcdf.INT64, netcdf.UINT64, netcdf.STRING:
		return nil, fmt.Errorf("unsupported data type: %v (expected DOUBLE, FLOAT, INT, or SHORT)", varType)
	default:
		return nil, fmt.Errorf("unsupported data type: %v", varType)
	}
}

func (d *ncDataset) Close() error {
	libMu.Lock()
	defer libMu.Unlock()
	return d.nc.Close()
}

type number interface {
	~int16 | ~uint16 | ~int32 | ~uint32 | ~float32 | ~float64 | ~uint8
}

func widen[T number](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

func trimNul(b []byte) string {
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return string(b)
}
