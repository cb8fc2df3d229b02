package noise

// latticeNudge keeps samples off integer lattice points, where gradient
// noise is always zero.
const latticeNudge = 0.1

// Sampler evaluates a Field in voxel space.
type Sampler struct {
	field Field
	width float64
}

// NewSampler wraps f. chunkWidth normalises 2D lookups so that scale is
// expressed per chunk rather than per voxel.
func NewSampler(f Field, chunkWidth int) *Sampler {
	return &Sampler{field: f, width: float64(chunkWidth)}
}

// Get2D samples the field at a column.
func (s *Sampler) Get2D(x, z int, offset, scale float64) float64 {
	fx := (float64(x)+latticeNudge)/s.width*scale + offset
	fz := (float64(z)+latticeNudge)/s.width*scale + offset
	return s.field.Sample(fx, fz)
}

// Average3D combines six 2D samples taken over every ordered pair of axes,
// which removes the bias of reusing one 2D field for three dimensions.
func (s *Sampler) Average3D(x, y, z int, offset, scale float64) float64 {
	a := (float64(x) + offset + latticeNudge) * scale
	b := (float64(y) + offset + latticeNudge) * scale
	c := (float64(z) + offset + latticeNudge) * scale

	f := s.field.Sample
	return (f(a, b) + f(b, c) + f(a, c) + f(b, a) + f(c, b) + f(c, a)) / 6
}

// Get3D reports whether the combined 3D sample exceeds threshold.
func (s *Sampler) Get3D(x, y, z int, offset, scale, threshold float64) bool {
	return s.Average3D(x, y, z, offset, scale) > threshold
}
