package opendap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

var (
	errCircuitOpen = errors.New("circuit breaker open")
	errServer      = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
)

// maxErrorBody bounds how much of an error response is quoted.
const maxErrorBody = 512

// DAP2Backend is a pure-Go DAP2 client. It is the fallback used when the
// libnetcdf DAP client is unavailable or fails.
type DAP2Backend struct {
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewDAP2Backend creates the DAP2 backend. A nil client uses
// http.DefaultClient (no timeout).
func NewDAP2Backend(client *http.Client) *DAP2Backend {
	if client == nil {
		client = http.DefaultClient
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dap2",
		MaxRequests: 1,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
	return &DAP2Backend{
		client:  client,
		circuit: cb,
	}
}

// Name implements Backend.
func (b *DAP2Backend) Name() string {
	return "dap2"
}

// Open implements Backend. It fetches the dataset's DDS and DAS.
func (b *DAP2Backend) Open(ctx context.Context, url string) (Dataset, error) {
	ddsBody, err := b.get(ctx, url+".dds")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch DDS: %w", err)
	}
	dds, err := parseDDS(string(ddsBody))
	if err != nil {
		return nil, err
	}

	dasBody, err := b.get(ctx, url+".das")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch DAS: %w", err)
	}
	das, err := parseDAS(string(dasBody))
	if err != nil {
		return nil, err
	}

	return &dapDataset{backend: b, url: url, dds: dds, das: das}, nil
}

// get performs one GET through the circuit breaker. No retries.
func (b *DAP2Backend) get(ctx context.Context, url string) ([]byte, error) {
	result, err := b.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := b.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode >= 500 {
			return nil, fmt.Errorf("%w: %d: %s", errServer, resp.StatusCode, snippet(body))
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: %d: %s", errUnexpected, resp.StatusCode, snippet(body))
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		return nil, err
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return body, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}

type dapDataset struct {
	backend *DAP2Backend
	url     string
	dds     *decl
	das     attrTable
}

func (d *dapDataset) lookup(variable string) (*decl, error) {
	for _, c := range d.dds.Children {
		if found := c.find(variable); found != nil {
			return found, nil
		}
	}
	return nil, fmt.Errorf("variable %q not found", variable)
}

func (d *dapDataset) Dims(variable string) ([]Dim, error) {
	v, err := d.lookup(variable)
	if err != nil {
		return nil, err
	}
	return append([]Dim(nil), v.array().Dims...), nil
}

func (d *dapDataset) Attr(variable, name string) (Attr, bool) {
	attrs, ok := d.das[variable]
	if !ok {
		return Attr{}, false
	}
	a, ok := attrs[name]
	return a, ok
}

func (d *dapDataset) AttrNames(variable string) []string {
	attrs := d.das[variable]
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	return names
}

func (d *dapDataset) Axis(ctx context.Context, variable string) ([]float64, error) {
	dims, err := d.Dims(variable)
	if err != nil {
		return nil, err
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("expected 1D variable %q, got %dD", variable, len(dims))
	}
	if dims[0].Len == 0 {
		return []float64{}, nil
	}
	// Coordinate variables are fetched whole, without a hyperslab.
	return d.fetch(ctx, variable, variable, dims[0].Len)
}

func (d *dapDataset) Read(ctx context.Context, variable string, start, count []int) ([]float64, error) {
	dims, err := d.Dims(variable)
	if err != nil {
		return nil, err
	}
	if len(start) != len(dims) || len(count) != len(dims) {
		return nil, fmt.Errorf("hyperslab rank %d/%d does not match %q rank %d", len(start), len(count), variable, len(dims))
	}

	total := 1
	for i := range count {
		if start[i] < 0 || count[i] < 0 || start[i]+count[i] > dims[i].Len {
			return nil, fmt.Errorf("hyperslab [%d:%d) outside dimension %s of length %d", start[i], start[i]+count[i], dims[i].Name, dims[i].Len)
		}
		total *= count[i]
	}
	if total == 0 {
		return []float64{}, nil
	}

	return d.fetch(ctx, variable, constraint(variable, start, count), total)
}

// fetch requests one .dods projection and returns variable's values.
func (d *dapDataset) fetch(ctx context.Context, variable, projection string, total int) ([]float64, error) {
	body, err := d.backend.get(ctx, d.url+".dods?"+projection)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", variable, err)
	}
	_, vars, err := decodeDODS(body)
	if err != nil {
		return nil, err
	}
	for _, v := range vars {
		if v.Name == variable {
			if len(v.Values) != total {
				return nil, fmt.Errorf("server returned %d values for %s, expected %d", len(v.Values), variable, total)
			}
			return v.Values, nil
		}
	}
	return nil, fmt.Errorf("response does not contain %q", variable)
}

func (d *dapDataset) Close() error {
	return nil
}

// constraint builds a DAP2 hyperslab projection such as air%5B0:0%5D%5B1:8%5D.
// Brackets are percent-encoded since strict servers reject them raw.
func constraint(variable string, start, count []int) string {
	var sb strings.Builder
	sb.WriteString(variable)
	for i := range start {
		fmt.Fprintf(&sb, "%%5B%d:%d%%5D", start[i], start[i]+count[i]-1)
	}
	return sb.String()
}
