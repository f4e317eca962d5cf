package lossy

import "math"

// dctCoeff[u][x] = alpha(u) * cos((2x+1) * u * pi / 16)
// with alpha(0) = 1/sqrt(8) and alpha(u) = sqrt(2/8) otherwise, which makes
// the transform orthonormal.
var dctCoeff [BlockSize][BlockSize]float64

func init() {
	for u := 0; u < BlockSize; u++ {
		alpha := math.Sqrt(2.0 / BlockSize)
		if u == 0 {
			alpha = 1 / math.Sqrt(BlockSize)
		}
		for x := 0; x < BlockSize; x++ {
			dctCoeff[u][x] = alpha * math.Cos(float64(2*x+1)*float64(u)*math.Pi/(2*BlockSize))
		}
	}
}

// fdct performs a forward 8x8 DCT-II in place, rows first then columns.
// On return data[v*8+u] holds vertical frequency v and horizontal u.
func fdct(data *[64]float64) {
	var ws [64]float64
	for y := 0; y < BlockSize; y++ {
		row := data[y*BlockSize : (y+1)*BlockSize]
		for u := 0; u < BlockSize; u++ {
			c := &dctCoeff[u]
			var s float64
			for x, v := range row {
				s += c[x] * v
			}
			ws[y*BlockSize+u] = s
		}
	}
	for u := 0; u < BlockSize; u++ {
		for v := 0; v < BlockSize; v++ {
			c := &dctCoeff[v]
			var s float64
			for y := 0; y < BlockSize; y++ {
				s += c[y] * ws[y*BlockSize+u]
			}
			data[v*BlockSize+u] = s
		}
	}
}

// idct inverts fdct in place.
func idct(data *[64]float64) {
	var ws [64]float64
	for u := 0; u < BlockSize; u++ {
		for y := 0; y < BlockSize; y++ {
			var s float64
			for v := 0; v < BlockSize; v++ {
				s += dctCoeff[v][y] * data[v*BlockSize+u]
			}
			ws[y*BlockSize+u] = s
		}
	}
	for y := 0; y < BlockSize; y++ {
		for x := 0; x < BlockSize; x++ {
			var s float64
			for u := 0; u < BlockSize; u++ {
				s += dctCoeff[u][x] * ws[y*BlockSize+u]
			}
			data[y*BlockSize+x] = s
		}
	}
}
