package opendap

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// encodeArray writes one XDR array body: length twice, then the values.
func encodeArray(buf *bytes.Buffer, typ string, values []float64) {
	n := uint32(len(values)) //nolint:gosec
	_ = binary.Write(buf, binary.BigEndian, n)
	_ = binary.Write(buf, binary.BigEndian, n)
	for _, v := range values {
		switch typ {
		case typeInt16, typeInt32:
			_ = binary.Write(buf, binary.BigEndian, int32(v))
		case typeFloat32:
			_ = binary.Write(buf, binary.BigEndian, math.Float32bits(float32(v)))
		case typeFloat64:
			_ = binary.Write(buf, binary.BigEndian, v)
		}
	}
}

func dodsBody(dds string, arrays ...func(*bytes.Buffer)) []byte {
	var buf bytes.Buffer
	buf.WriteString(dds)
	buf.Write(dataMarker)
	for _, a := range arrays {
		a(&buf)
	}
	return buf.Bytes()
}

func TestDecodeDODS_Float64Array(t *testing.T) {
	body := dodsBody("Dataset {\n    Float64 lat[lat = 3];\n} d;",
		func(b *bytes.Buffer) { encodeArray(b, typeFloat64, []float64{42, 40.1, 38.2}) })

	_, vars, err := decodeDODS(body)
	if err != nil {
		t.Fatalf("decodeDODS: %v", err)
	}
	if len(vars) != 1 || vars[0].Name != "lat" {
		t.Fatalf("vars = %+v", vars)
	}
	want := []float64{42, 40.1, 38.2}
	for i, v := range want {
		if vars[0].Values[i] != v {
			t.Errorf("lat[%d] = %v, want %v", i, vars[0].Values[i], v)
		}
	}
}

func TestDecodeDODS_GridWithMaps(t *testing.T) {
	dds := `Dataset {
    Grid {
     ARRAY:
        Int16 air[time = 1][lat = 2][lon = 2];
     MAPS:
        Float64 time[time = 1];
        Float64 lat[lat = 2];
        Float64 lon[lon = 2];
    } air;
} d;`
	body := dodsBody(dds,
		func(b *bytes.Buffer) { encodeArray(b, typeInt16, []float64{-100, 0, 250, 32766}) },
		func(b *bytes.Buffer) { encodeArray(b, typeFloat64, []float64{1959456}) },
		func(b *bytes.Buffer) { encodeArray(b, typeFloat64, []float64{42, 40}) },
		func(b *bytes.Buffer) { encodeArray(b, typeFloat64, []float64{120, 122}) },
	)

	_, vars, err := decodeDODS(body)
	if err != nil {
		t.Fatalf("decodeDODS: %v", err)
	}
	if len(vars) != 4 {
		t.Fatalf("got %d vars, want 4", len(vars))
	}
	if vars[0].Name != "air" || vars[0].Values[0] != -100 || vars[0].Values[3] != 32766 {
		t.Errorf("air = %+v", vars[0])
	}
	if vars[3].Name != "lon" || vars[3].Values[1] != 122 {
		t.Errorf("lon = %+v", vars[3])
	}
}

func TestDecodeDODS_Errors(t *testing.T) {
	if _, _, err := decodeDODS([]byte("Dataset { Float64 x[x = 1]; } d;")); err == nil {
		t.Error("expected error without data marker")
	}

	truncated := dodsBody("Dataset { Float64 x[x = 2]; } d;",
		func(b *bytes.Buffer) { encodeArray(b, typeFloat64, []float64{1}) })
	if _, _, err := decodeDODS(truncated); err == nil {
		t.Error("expected error for length mismatch")
	}
}

func TestDecodeDODS_BytePadding(t *testing.T) {
	var data bytes.Buffer
	_ = binary.Write(&data, binary.BigEndian, uint32(3))
	_ = binary.Write(&data, binary.BigEndian, uint32(3))
	data.Write([]byte{1, 2, 255, 0})
	_ = binary.Write(&data, binary.BigEndian, math.Float32bits(2.5))

	body := dodsBody("Dataset { Byte b[n = 3]; Float32 f; } d;",
		func(b *bytes.Buffer) { b.Write(data.Bytes()) })
	_, vars, err := decodeDODS(body)
	if err != nil {
		t.Fatalf("decodeDODS: %v", err)
	}
	if vars[0].Values[2] != 255 {
		t.Errorf("b[2] = %v", vars[0].Values[2])
	}
	if vars[1].Values[0] != 2.5 {
		t.Errorf("f = %v", vars[1].Values[0])
	}
}

func TestConstraint(t *testing.T) {
	got := constraint("air", []int{5, 0, 10}, []int{1, 8, 9})
	want := "air%5B5:5%5D%5B0:7%5D%5B10:18%5D"
	if got != want {
		t.Errorf("constraint = %q, want %q", got, want)
	}
}

// fakeDAPServer serves a 1x3x2 air dataset as DAP2.
func fakeDAPServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu      sync.Mutex
		queries []string
	)

	dds := `Dataset {
    Float64 time[time = 1];
    Float64 lat[lat = 3];
    Float64 lon[lon = 2];
    Grid {
     ARRAY:
        Int16 air[time = 1][lat = 3][lon = 2];
     MAPS:
        Float64 time[time = 1];
        Float64 lat[lat = 3];
        Float64 lon[lon = 2];
    } air;
} air.2m.gauss.2023.nc;`
	das := `Attributes {
    air {
        Float32 scale_factor 0.01;
        Float32 add_offset 300.0;
        String units "degK";
    }
}`
	lat := []float64{42, 40, 38}
	air := []float64{1, 2, 3, 4, 5, 6}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.RawQuery)
		mu.Unlock()
		switch {
		case strings.HasSuffix(r.URL.Path, ".dds"):
			_, _ = w.Write([]byte(dds))
		case strings.HasSuffix(r.URL.Path, ".das"):
			_, _ = w.Write([]byte(das))
		case strings.HasSuffix(r.URL.Path, ".dods"):
			switch r.URL.RawQuery {
			case "lat":
				_, _ = w.Write(dodsBody("Dataset { Float64 lat[lat = 3]; } d;",
					func(b *bytes.Buffer) { encodeArray(b, typeFloat64, lat) }))
			case "air%5B0:0%5D%5B1:2%5D%5B0:1%5D":
				_, _ = w.Write(dodsBody("Dataset { Grid { ARRAY: Int16 air[time = 1][lat = 2][lon = 2]; MAPS: Float64 time[time = 1]; Float64 lat[lat = 2]; Float64 lon[lon = 2]; } air; } d;",
					func(b *bytes.Buffer) { encodeArray(b, typeInt16, air[2:6]) },
					func(b *bytes.Buffer) { encodeArray(b, typeFloat64, []float64{0}) },
					func(b *bytes.Buffer) { encodeArray(b, typeFloat64, lat[1:3]) },
					func(b *bytes.Buffer) { encodeArray(b, typeFloat64, []float64{120, 122}) },
				))
			default:
				http.Error(w, "bad constraint", http.StatusBadRequest)
			}
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), queries...)
	}
}

func TestDAP2Backend_OpenAndRead(t *testing.T) {
	srv, queries := fakeDAPServer(t)
	b := NewDAP2Backend(srv.Client())
	ctx := context.Background()

	ds, err := b.Open(ctx, srv.URL+"/air.2m.gauss.2023.nc")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = ds.Close() }()

	dims, err := ds.Dims("air")
	if err != nil {
		t.Fatalf("Dims: %v", err)
	}
	if len(dims) != 3 || dims[1].Name != "lat" || dims[1].Len != 3 {
		t.Fatalf("dims = %+v", dims)
	}

	if sf, ok := ds.Attr("air", "scale_factor"); !ok || sf.Values[0] != float64(float32(0.01)) {
		t.Errorf("scale_factor = %+v, %v", sf, ok)
	}
	if _, ok := ds.Attr("air", "nope"); ok {
		t.Error("unexpected attribute")
	}
	if names := ds.AttrNames("air"); len(names) != 3 {
		t.Errorf("AttrNames = %v", names)
	}

	lat, err := ds.Axis(ctx, "lat")
	if err != nil {
		t.Fatalf("Axis: %v", err)
	}
	if len(lat) != 3 || lat[2] != 38 {
		t.Errorf("lat = %v", lat)
	}

	vals, err := ds.Read(ctx, "air", []int{0, 1, 0}, []int{1, 2, 2})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []float64{3, 4, 5, 6}
	for i, v := range want {
		if vals[i] != v {
			t.Errorf("air[%d] = %v, want %v", i, vals[i], v)
		}
	}

	var dods []string
	for _, q := range queries() {
		if q != "" {
			dods = append(dods, q)
		}
	}
	wantQueries := []string{"lat", "air%5B0:0%5D%5B1:2%5D%5B0:1%5D"}
	if len(dods) != len(wantQueries) {
		t.Fatalf("dods queries = %v, want %v", dods, wantQueries)
	}
	for i, q := range wantQueries {
		if dods[i] != q {
			t.Errorf("dods query %d = %q, want %q", i, dods[i], q)
		}
	}
}

func TestDAP2Backend_Float32MissingValueMatchesData(t *testing.T) {
	const fill = -9.96921e+36
	dds := `Dataset {
    Float32 air[lat = 2][lon = 2];
} air.nc;`
	das := `Attributes {
    air {
        Float32 missing_value -9.96921e+36;
        Float32 _FillValue -9.96921e+36;
    }
}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, ".dds"):
			_, _ = w.Write([]byte(dds))
		case strings.HasSuffix(r.URL.Path, ".das"):
			_, _ = w.Write([]byte(das))
		case strings.HasSuffix(r.URL.Path, ".dods"):
			_, _ = w.Write(dodsBody("Dataset { Float32 air[lat = 2][lon = 2]; } d;",
				func(b *bytes.Buffer) { encodeArray(b, typeFloat32, []float64{fill, fill, fill, 290.5}) }))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	ds, err := NewDAP2Backend(srv.Client()).Open(ctx, srv.URL+"/air.nc")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	mv, ok := ds.Attr("air", "missing_value")
	if !ok {
		t.Fatal("missing_value not found")
	}
	vals, err := ds.Read(ctx, "air", []int{0, 0}, []int{2, 2})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	for i, v := range vals[:3] {
		if v != mv.Values[0] {
			t.Errorf("air[%d] = %v, want missing_value %v", i, v, mv.Values[0])
		}
	}
	if vals[3] != 290.5 {
		t.Errorf("air[3] = %v, want 290.5", vals[3])
	}
}

func TestDAP2Backend_ReadOutOfBounds(t *testing.T) {
	srv, _ := fakeDAPServer(t)
	b := NewDAP2Backend(srv.Client())

	ds, err := b.Open(context.Background(), srv.URL+"/air.2m.gauss.2023.nc")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := ds.Read(context.Background(), "air", []int{0, 2, 0}, []int{1, 2, 2}); err == nil {
		t.Error("expected out-of-bounds error")
	}
	if _, err := ds.Dims("nope"); err == nil {
		t.Error("expected unknown variable error")
	}
}

func TestDAP2Backend_HTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing") {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "backend down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	b := NewDAP2Backend(srv.Client())
	_, err := b.Open(context.Background(), srv.URL+"/missing.nc")
	if !errors.Is(err, errUnexpected) {
		t.Errorf("404: err = %v, want errUnexpected", err)
	}
	_, err = b.Open(context.Background(), srv.URL+"/down.nc")
	if !errors.Is(err, errServer) {
		t.Errorf("503: err = %v, want errServer", err)
	}
}

func TestDAP2Backend_Cancelled(t *testing.T) {
	srv, _ := fakeDAPServer(t)
	b := NewDAP2Backend(srv.Client())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Open(ctx, srv.URL+"/air.2m.gauss.2023.nc"); err == nil {
		t.Error("expected error for cancelled context")
	}
}
