package geo

import "math"

// GRS80 ellipsoid parameters.
const (
	grs80A = 6378137.0
	grs80F = 1.0 / 298.257222101
)

// Albers is an ellipsoidal Albers equal-area conic projection. The zero
// value is not usable; construct with NewAlbers or NewConusAlbers.
type Albers struct {
	e    float64 // eccentricity
	e2   float64 // eccentricity squared
	lon0 float64 // central meridian, radians
	n    float64
	c    float64
	rho0 float64
}

// NewAlbers constructs a projection on the GRS80 ellipsoid. Parameters are
// in degrees: origin latitude, central meridian, and the two standard
// parallels.
func NewAlbers(lat0, lon0, lat1, lat2 float64) *Albers {
	e2 := grs80F * (2 - grs80F)
	p := &Albers{
		e:    math.Sqrt(e2),
		e2:   e2,
		lon0: lon0 * math.Pi / 180,
	}

	phi0 := lat0 * math.Pi / 180
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180

	m1 := p.m(phi1)
	m2 := p.m(phi2)
	q0 := p.q(phi0)
	q1 := p.q(phi1)
	q2 := p.q(phi2)

	p.n = (m1*m1 - m2*m2) / (q2 - q1)
	p.c = m1*m1 + p.n*q1
	p.rho0 = grs80A * math.Sqrt(p.c-p.n*q0) / p.n

	return p
}

// NewConusAlbers returns the NAD83 / Conus Albers projection (EPSG:5070):
// origin 23N, central meridian 96W, standard parallels 29.5N and 45.5N.
func NewConusAlbers() *Albers {
	return NewAlbers(23, -96, 29.5, 45.5)
}

// m computes cos(phi)/sqrt(1 - e^2 sin^2(phi)).
func (p *Albers) m(phi float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-p.e2*s*s)
}

// q computes the authalic function of latitude.
func (p *Albers) q(phi float64) float64 {
	s := math.Sin(phi)
	return (1 - p.e2) * (s/(1-p.e2*s*s) - (1/(2*p.e))*math.Log((1-p.e*s)/(1+p.e*s)))
}

// Forward projects a geographic coordinate (degrees) to projected meters.
func (p *Albers) Forward(lon, lat float64) (x, y float64) {
	phi := lat * math.Pi / 180
	lam := lon * math.Pi / 180

	theta := p.n * (lam - p.lon0)
	rho := grs80A * math.Sqrt(p.c-p.n*p.q(phi)) / p.n

	x = rho * math.Sin(theta)
	y = p.rho0 - rho*math.Cos(theta)
	return x, y
}

// Inverse converts projected meters back to geographic degrees. The
// latitude is solved iteratively; four iterations are ample for
// sub-millimeter convergence at continental scale.
func (p *Albers) Inverse(x, y float64) (lon, lat float64) {
	dy := p.rho0 - y
	rho := math.Hypot(x, dy)
	theta := math.Atan2(x, dy)
	if p.n < 0 {
		rho = -rho
		theta = math.Atan2(-x, -dy)
	}

	q := (p.c - rho*rho*p.n*p.n/(grs80A*grs80A)) / p.n

	phi := math.Asin(q / 2)
	for i := 0; i < 4; i++ {
		s := math.Sin(phi)
		d := 1 - p.e2*s*s
		phi += (d * d / (2 * math.Cos(phi))) *
			(q/(1-p.e2) - s/d + (1/(2*p.e))*math.Log((1-p.e*s)/(1+p.e*s)))
	}

	lon = (p.lon0 + theta/p.n) * 180 / math.Pi
	lat = phi * 180 / math.Pi
	return lon, lat
}

// InverseSlice converts projected coordinate slices to geographic
// longitude/latitude slices. xs and ys must have equal length.
func (p *Albers) InverseSlice(xs, ys []float64) (lons, lats []float64) {
	lons = make([]float64, len(xs))
	lats = make([]float64, len(ys))
	for i := range xs {
		lons[i], lats[i] = p.Inverse(xs[i], ys[i])
	}
	return lons, lats
}
