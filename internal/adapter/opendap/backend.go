// Package opendap opens gridded NetCDF/OPeNDAP datasets through
// interchangeable access backends.
package opendap

import (
	"context"
	"strconv"
	"strings"
)

// Dim is a named dimension of a variable.
type Dim struct {
	Name string
	Len  int
}

// Attr is a variable attribute. Numeric attributes fill Values, text
// attributes fill Text.
type Attr struct {
	Text   string
	Values []float64
}

// Float returns the first numeric value of the attribute.
// Text attributes holding a number are parsed.
func (a Attr) Float() (float64, bool) {
	if len(a.Values) > 0 {
		return a.Values[0], true
	}
	if a.Text != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(a.Text), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func (a Attr) String() string {
	if a.Text != "" || len(a.Values) == 0 {
		return a.Text
	}
	parts := make([]string, len(a.Values))
	for i, v := range a.Values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ", ")
}

// Dataset is an opened dataset. Reads return raw stored values converted to
// float64; packing attributes are left to the caller.
type Dataset interface {
	// Dims returns the dimensions of a variable, outermost first.
	Dims(variable string) ([]Dim, error)

	// Attr returns a variable attribute.
	Attr(variable, name string) (Attr, bool)

	// AttrNames lists the attribute names of a variable.
	AttrNames(variable string) []string

	// Axis reads a whole one-dimensional variable.
	Axis(ctx context.Context, variable string) ([]float64, error)

	// Read reads the hyperslab [start, start+count) of a variable in
	// row-major order.
	Read(ctx context.Context, variable string, start, count []int) ([]float64, error)

	// Close releases the dataset.
	Close() error
}

// Backend is an access method for remote or local datasets.
type Backend interface {
	// Name identifies the backend in logs and errors.
	Name() string

	// Open opens the dataset at url.
	Open(ctx context.Context, url string) (Dataset, error)
}
