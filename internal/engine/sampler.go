package engine

import (
	"math"
	"math/rand"

	"github.com/inkhorn/inkhorn/internal/vocab"
)

// Sampler draws next tokens from count distributions under temperature
// scaling. Candidate weight is count^(1/temperature): temperature 1 samples
// proportionally to raw counts, values above 1 flatten toward uniform, and
// zero (or below) degenerates to argmax with ties broken by ascending token
// id so results stay reproducible.
type Sampler struct {
	rng    *rand.Rand
	temp   float64
	greedy bool
}

// NewSampler returns a sampler seeded deterministically. The same seed,
// temperature and model always produce the same output sequence.
func NewSampler(seed int64, temperature float64) *Sampler {
	return NewSamplerFrom(rand.New(rand.NewSource(seed)), temperature)
}

// NewSamplerFrom wraps a caller-supplied random source.
func NewSamplerFrom(rng *rand.Rand, temperature float64) *Sampler {
	return &Sampler{
		rng:    rng,
		temp:   temperature,
		greedy: temperature <= 0,
	}
}

// Pick draws one id from the candidate distribution. ids must be sorted in
// ascending order with counts aligned; both slices must be non-empty.
func (s *Sampler) Pick(ids []vocab.ID, counts []uint64) vocab.ID {
	if s.greedy {
		return argmax(ids, counts)
	}

	// Normalize against the largest count before exponentiation so extreme
	// temperatures cannot overflow float64.
	var maxCount uint64
	for _, n := range counts {
		if n > maxCount {
			maxCount = n
		}
	}
	invTemp := 1.0 / s.temp
	weights := make([]float64, len(counts))
	var sum float64
	for i, n := range counts {
		w := math.Pow(float64(n)/float64(maxCount), invTemp)
		weights[i] = w
		sum += w
	}
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return argmax(ids, counts)
	}

	r := s.rng.Float64() * sum
	var c float64
	for i, w := range weights {
		c += w
		if r <= c {
			return ids[i]
		}
	}
	return ids[len(ids)-1]
}

// argmax returns the id with the highest count. Because ids are sorted
// ascending, the first maximum wins ties.
func argmax(ids []vocab.ID, counts []uint64) vocab.ID {
	best := 0
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[best] {
			best = i
		}
	}
	return ids[best]
}

// Intn exposes the sampler's random stream for template selection in dumb
// mode, keeping untrained output deterministic under a fixed seed.
func (s *Sampler) Intn(n int) int {
	return s.rng.Intn(n)
}
