package pf

import mrand "golang.org/x/exp/rand"

// Clone deep-copies f, including both sample sets and their kd-trees,
// so the copy can be advanced independently (e.g. to run a what-if
// resample without disturbing the live filter). Filter's fields are all
// unexported, which reflection-based deep-copy libraries like
// copystructure cannot reach from outside the package, so Clone copies
// each field by hand instead. The clone gets its own entropy-seeded RNG
// rather than a copy of f's: rand.Rand's generator state is itself
// unexported, and a filter clone used for a what-if branch is expected
// to diverge from f's draws anyway.
func (f *Filter) Clone() (*Filter, error) {
	c := &Filter{
		current:          f.current,
		minSamples:       f.minSamples,
		maxSamples:       f.maxSamples,
		overheadSamples:  f.overheadSamples,
		popErr:           f.popErr,
		popZ:             f.popZ,
		sumSquareWeights: f.sumSquareWeights,
		rng:              mrand.New(mrand.NewSource(seedFromEntropy())),
		initHeading:      f.initHeading,
		fixedHeading:     f.fixedHeading,
	}
	c.sets[0] = f.sets[0].clone()
	c.sets[1] = f.sets[1].clone()
	return c, nil
}
