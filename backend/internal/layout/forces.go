package layout

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"
)

// body is the mutable physical state of one node
type body struct {
	pos    r2.Vec
	vel    r2.Vec
	fixed  r2.Vec
	pinned bool
}

// Coord2 and Mass satisfy barneshut.Particle2. Every node weighs the same.
func (b *body) Coord2() r2.Vec { return b.pos }
func (b *body) Mass() float64  { return 1 }

// spring is a link resolved to node indices with its precomputed coefficients
type spring struct {
	source, target int
	strength       float64
	bias           float64
}

// jiggle returns a tiny random offset used to separate coincident points
func jiggle(rng *rand.Rand) float64 {
	return (rng.Float64() - 0.5) * 1e-6
}

// applyLinks pulls each pair of endpoints towards distance apart. The velocity
// change is split by bias so the better connected endpoint moves less.
func applyLinks(bodies []*body, springs []spring, distance, alpha float64, rng *rand.Rand) {
	for _, sp := range springs {
		src, tgt := bodies[sp.source], bodies[sp.target]

		d := r2.Sub(r2.Add(tgt.pos, tgt.vel), r2.Add(src.pos, src.vel))
		if d.X == 0 {
			d.X = jiggle(rng)
		}
		if d.Y == 0 {
			d.Y = jiggle(rng)
		}
		l := r2.Norm(d)
		l = (l - distance) / l * alpha * sp.strength
		d = r2.Scale(l, d)

		tgt.vel = r2.Sub(tgt.vel, r2.Scale(sp.bias, d))
		src.vel = r2.Add(src.vel, r2.Scale(1-sp.bias, d))
	}
}

const distanceMin2 = 1.0

// manyBodyTerm is the velocity change one unit mass at offset d exerts on a
// node, with the distance floored at distanceMin.
func manyBodyTerm(d r2.Vec, mass, strength, alpha float64, rng *rand.Rand) r2.Vec {
	if d.X == 0 {
		d.X = jiggle(rng)
	}
	if d.Y == 0 {
		d.Y = jiggle(rng)
	}
	l2 := r2.Norm2(d)
	if l2 < distanceMin2 {
		l2 = math.Sqrt(distanceMin2 * l2)
	}
	return r2.Scale(strength*alpha*mass/l2, d)
}

// applyCharge applies the pairwise many-body force
func applyCharge(bodies []*body, strength, alpha float64, rng *rand.Rand) {
	for i, node := range bodies {
		for j, other := range bodies {
			if i == j {
				continue
			}
			d := r2.Sub(other.pos, node.pos)
			node.vel = r2.Add(node.vel, manyBodyTerm(d, 1, strength, alpha, rng))
		}
	}
}

// applyChargeApprox approximates the many-body force with a Barnes-Hut
// quadtree. theta trades accuracy for speed.
func applyChargeApprox(bodies []*body, strength, alpha, theta float64, rng *rand.Rand) error {
	particles := make([]barneshut.Particle2, len(bodies))
	for i, b := range bodies {
		particles[i] = b
	}
	plane, err := barneshut.NewPlane(particles)
	if err != nil {
		return err
	}

	force := func(_, _ barneshut.Particle2, _, m2 float64, v r2.Vec) r2.Vec {
		if v.X == 0 && v.Y == 0 {
			return r2.Vec{}
		}
		return manyBodyTerm(v, m2, strength, alpha, rng)
	}

	// Velocities are written after every force is known so the tree stays
	// consistent with the positions it was built from.
	deltas := make([]r2.Vec, len(bodies))
	for i, p := range particles {
		deltas[i] = plane.ForceOn(p, theta, force)
	}
	for i, b := range bodies {
		b.vel = r2.Add(b.vel, deltas[i])
	}
	return nil
}

// applyCenter translates every node so the mean position sits on center
func applyCenter(bodies []*body, center r2.Vec) {
	if len(bodies) == 0 {
		return
	}
	var sum r2.Vec
	for _, b := range bodies {
		sum = r2.Add(sum, b.pos)
	}
	shift := r2.Sub(r2.Scale(1/float64(len(bodies)), sum), center)
	for _, b := range bodies {
		b.pos = r2.Sub(b.pos, shift)
	}
}

// phyllotaxis returns the i-th point of the initial sunflower spiral
func phyllotaxis(i int, center r2.Vec) r2.Vec {
	const initialRadius = 10.0
	initialAngle := math.Pi * (3 - math.Sqrt(5))

	radius := initialRadius * math.Sqrt(0.5+float64(i))
	angle := float64(i) * initialAngle
	return r2.Add(center, r2.Vec{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)})
}
