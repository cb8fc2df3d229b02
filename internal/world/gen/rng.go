package gen

// seedRNG is a deterministic LCG used to derive independent noise seeds
// from the world seed.
type seedRNG struct {
	state int64
}

func newSeedRNG(seed int64, salt int64) *seedRNG {
	return &seedRNG{state: seed ^ (salt * 341873128712)}
}

func (r *seedRNG) next() int64 {
	r.state = r.state*6364136223846793005 + 1442695040888963407
	return r.state
}
