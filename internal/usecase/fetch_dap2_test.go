package usecase

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.ngs.io/reanalysis-maps/internal/adapter/opendap"
	"go.ngs.io/reanalysis-maps/internal/domain"
)

// float32Fill is the netCDF default fill for float variables.
const float32Fill = -9.96921e+36

// xdrArray encodes a DAP2 array body: length twice, then the values.
func xdrArray(buf *bytes.Buffer, float32s bool, values []float64) {
	n := uint32(len(values)) //nolint:gosec
	_ = binary.Write(buf, binary.BigEndian, n)
	_ = binary.Write(buf, binary.BigEndian, n)
	for _, v := range values {
		if float32s {
			_ = binary.Write(buf, binary.BigEndian, math.Float32bits(float32(v)))
		} else {
			_ = binary.Write(buf, binary.BigEndian, v)
		}
	}
}

// dapArchive serves a one-day Float32 archive whose air values are given.
func dapArchive(t *testing.T, air []float64) *httptest.Server {
	t.Helper()
	dds := `Dataset {
    Float64 time[time = 1];
    Float64 lat[lat = 2];
    Float64 lon[lon = 2];
    Float32 air[time = 1][lat = 2][lon = 2];
} air.2m.gauss.2023.nc;`
	das := `Attributes {
    time {
        String units "hours since 1800-01-01 00:00:0.0";
    }
    air {
        String units "degK";
        Float32 missing_value -9.96921e+36;
        Float32 _FillValue -9.96921e+36;
    }
}`
	dods := func(decl string, float32s bool, values []float64) []byte {
		var buf bytes.Buffer
		buf.WriteString("Dataset { " + decl + " } d;\nData:\n")
		xdrArray(&buf, float32s, values)
		return buf.Bytes()
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, ".dds"):
			_, _ = w.Write([]byte(dds))
		case strings.HasSuffix(r.URL.Path, ".das"):
			_, _ = w.Write([]byte(das))
		case strings.HasSuffix(r.URL.Path, ".dods"):
			q := r.URL.RawQuery
			switch {
			case q == "time":
				_, _ = w.Write(dods("Float64 time[time = 1];", false, []float64{1959456}))
			case q == "lat":
				_, _ = w.Write(dods("Float64 lat[lat = 2];", false, []float64{40, 38}))
			case q == "lon":
				_, _ = w.Write(dods("Float64 lon[lon = 2];", false, []float64{122, 124}))
			case strings.HasPrefix(q, "air"):
				_, _ = w.Write(dods("Float32 air[time = 1][lat = 2][lon = 2];", true, air))
			default:
				http.Error(w, "bad constraint", http.StatusBadRequest)
			}
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newDAPFallbackFetcher(srv *httptest.Server) *Fetcher {
	primary := &fakeBackend{name: "netcdf", openErr: errors.New("DAP support not compiled in")}
	return NewFetcher(
		FetcherConfig{URLTemplate: srv.URL + "/air.2m.gauss.{year}.nc"},
		primary,
		opendap.NewDAP2Backend(srv.Client()),
	)
}

func TestFetcher_DAP2FallbackAllFillIsNoData(t *testing.T) {
	srv := dapArchive(t, []float64{float32Fill, float32Fill, float32Fill, float32Fill})
	f := newDAPFallbackFetcher(srv)

	grid, err := f.Fetch(context.Background(), july15, domain.VariantSea)
	if !errors.Is(err, domain.ErrNoData) {
		t.Fatalf("Fetch = %+v, %v; want ErrNoData", grid, err)
	}
}

func TestFetcher_DAP2FallbackMasksFloat32Fill(t *testing.T) {
	srv := dapArchive(t, []float64{290.5, float32Fill, float32Fill, float32Fill})
	f := newDAPFallbackFetcher(srv)

	grid, err := f.Fetch(context.Background(), july15, domain.VariantSea)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got := grid.Values[0][0]; math.Abs(got-17.35) > 1e-6 {
		t.Errorf("values[0][0] = %v, want 17.35", got)
	}
	for _, c := range [][2]int{{0, 1}, {1, 0}, {1, 1}} {
		if v := grid.Values[c[0]][c[1]]; !math.IsNaN(v) {
			t.Errorf("values[%d][%d] = %v, want NaN", c[0], c[1], v)
		}
	}
}
