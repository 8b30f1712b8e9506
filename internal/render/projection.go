package render

import (
	"fmt"
	"sync"

	"github.com/pebbe/proj/v5"
)

// DefaultProjection is an equirectangular (Plate Carrée) map.
const DefaultProjection = "+proj=eqc +ellps=WGS84"

// separable lists operations whose x depends only on longitude and y only
// on latitude, so axis ticks can carry degree labels.
var separable = map[string]bool{
	"eqc":     true,
	"merc":    true,
	"mill":    true,
	"cea":     true,
	"longlat": true,
	"latlong": true,
	"lonlat":  true,
	"latlon":  true,
}

// Projection maps geographic degrees to planar map coordinates with PROJ.
// A PROJ context is not safe for concurrent use; calls are serialized.
type Projection struct {
	mu  sync.Mutex
	ctx *proj.Context
	pj  *proj.PJ
	id  string
	def string
}

// NewProjection creates a projection from a PROJ string.
func NewProjection(def string) (*Projection, error) {
	if def == "" {
		def = DefaultProjection
	}
	ctx := proj.NewContext()
	pj, err := ctx.Create(def)
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("invalid projection %q: %w", def, err)
	}
	info, err := pj.Info()
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("failed to inspect projection %q: %w", def, err)
	}
	return &Projection{ctx: ctx, pj: pj, id: info.ID, def: def}, nil
}

// ID returns the PROJ operation name, e.g. "eqc".
func (p *Projection) ID() string {
	return p.id
}

func (p *Projection) String() string {
	return p.def
}

// Separable reports whether gridlines map to straight axis-aligned lines.
func (p *Projection) Separable() bool {
	return separable[p.id]
}

// Forward projects one point.
func (p *Projection) Forward(lon, lat float64) (x, y float64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	x, y, _, _, err = p.pj.Trans(proj.Fwd, proj.DegToRad(lon), proj.DegToRad(lat), 0, 0)
	return x, y, err
}

// ForwardSlice projects parallel slices of longitudes and latitudes.
func (p *Projection) ForwardSlice(lons, lats []float64) (xs, ys []float64, err error) {
	if len(lons) != len(lats) {
		return nil, nil, fmt.Errorf("coordinate length mismatch: %d vs %d", len(lons), len(lats))
	}
	if len(lons) == 0 {
		return nil, nil, nil
	}
	u := make([]float64, len(lons))
	v := make([]float64, len(lats))
	for i := range lons {
		u[i] = proj.DegToRad(lons[i])
		v[i] = proj.DegToRad(lats[i])
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	xs, ys, _, _, err = p.pj.TransSlice(proj.Fwd, u, v, nil, nil)
	return xs, ys, err
}

// Close releases the PROJ context.
func (p *Projection) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pj.Close()
	p.ctx.Close()
}
