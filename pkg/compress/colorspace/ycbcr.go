package colorspace

import "math"

// Full range BT.601, chroma centred at zero.

// ForwardYCbCr transforms in place: r, g, b become Y, Cb, Cr.
func ForwardYCbCr(r, g, b []int32) {
	for i := range r {
		rf, gf, bf := float64(r[i]), float64(g[i]), float64(b[i])
		r[i] = roundClamp(0.299*rf+0.587*gf+0.114*bf, SampleRange)
		g[i] = roundClamp(-0.168736*rf-0.331264*gf+0.5*bf, ChromaRange)
		b[i] = roundClamp(0.5*rf-0.418688*gf-0.081312*bf, ChromaRange)
	}
}

// InverseYCbCr transforms in place: y, cb, cr become R, G, B clamped to
// 8 bits.
func InverseYCbCr(y, cb, cr []int32) {
	for i := range y {
		yf, cbf, crf := float64(y[i]), float64(cb[i]), float64(cr[i])
		y[i] = roundClamp(yf+1.402*crf, SampleRange)
		cb[i] = roundClamp(yf-0.344136*cbf-0.714136*crf, SampleRange)
		cr[i] = roundClamp(yf+1.772*cbf, SampleRange)
	}
}

func roundClamp(v float64, r Range) int32 {
	return int32(math.Round(min(max(v, float64(r.Min)), float64(r.Max))))
}
