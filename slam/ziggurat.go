package slam

import "math"

// Marsaglia-Tsang ziggurat constants for the 128-layer normal sampler.
const (
	zigguratDN = 3.442619855899
	zigguratVN = 9.91256303526217e-3
	zigguratR  = 3.442620
	zigguratM1 = 2147483648.0
)

// zigguratSource is a fast Gaussian sampler over an SHR3 32-bit generator.
// The rectangle tables are rebuilt in the constructor, so two sources with
// the same seed produce identical sequences.
type zigguratSource struct {
	jsr uint32
	kn  [128]uint32
	fn  [128]float32
	wn  [128]float32
}

func newZigguratSource(seed uint32) *zigguratSource {
	z := &zigguratSource{jsr: seed}

	dn := zigguratDN
	tn := dn
	q := zigguratVN / math.Exp(-0.5*dn*dn)

	z.kn[0] = uint32((dn / q) * zigguratM1)
	z.kn[1] = 0
	z.wn[0] = float32(q / zigguratM1)
	z.wn[127] = float32(dn / zigguratM1)
	z.fn[0] = 1.0
	z.fn[127] = float32(math.Exp(-0.5 * dn * dn))
	for i := 126; i >= 1; i-- {
		dn = math.Sqrt(-2 * math.Log(zigguratVN/dn+math.Exp(-0.5*dn*dn)))
		z.kn[i+1] = uint32((dn / tn) * zigguratM1)
		tn = dn
		z.fn[i] = float32(math.Exp(-0.5 * dn * dn))
		z.wn[i] = float32(dn / zigguratM1)
	}
	return z
}

// shr3 advances the xorshift state and returns the previous state plus the
// new one, with wrapping addition.
func (z *zigguratSource) shr3() uint32 {
	jz := z.jsr
	z.jsr ^= z.jsr << 13
	z.jsr ^= z.jsr >> 17
	z.jsr ^= z.jsr << 5
	return jz + z.jsr
}

// uniform returns a draw in (0, 1).
func (z *zigguratSource) uniform() float64 {
	return 0.5 + float64(int32(z.shr3()))*0.2328306e-9
}

// Normal returns a standard normal draw.
func (z *zigguratSource) Normal() float64 {
	hz := int32(z.shr3())
	iz := hz & 127
	if uint32(abs32(hz)) < z.kn[iz] {
		return float64(hz) * float64(z.wn[iz])
	}
	return z.normalFix(hz, iz)
}

// normalFix handles draws outside the core rectangles: the exponential
// tail for the base layer, rejection against the wedge otherwise.
func (z *zigguratSource) normalFix(hz, iz int32) float64 {
	for {
		x := float64(hz) * float64(z.wn[iz])
		if iz == 0 {
			var y float64
			for {
				x = -math.Log(z.uniform()) / zigguratR
				y = -math.Log(z.uniform())
				if y+y >= x*x {
					break
				}
			}
			if hz > 0 {
				return zigguratR + x
			}
			return -(zigguratR + x)
		}
		if float64(z.fn[iz])+z.uniform()*(float64(z.fn[iz-1])-float64(z.fn[iz])) < math.Exp(-0.5*x*x) {
			return x
		}
		hz = int32(z.shr3())
		iz = hz & 127
		if uint32(abs32(hz)) < z.kn[iz] {
			return float64(hz) * float64(z.wn[iz])
		}
	}
}

// NormalAt returns a normal draw with the given mean and deviation.
func (z *zigguratSource) NormalAt(mu, sigma float64) float64 {
	return mu + sigma*z.Normal()
}

func abs32(n int32) int32 {
	if n < 0 {
		return -n
	}
	return n
}
