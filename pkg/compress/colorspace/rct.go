package colorspace

// Reversible colour transform, ITU-T T.800 Annex G.
//
//	Y  = floor((R + 2G + B) / 4)
//	Cb = B - G
//	Cr = R - G

// ForwardRCT transforms in place: on return r holds Y, g holds Cb and b
// holds Cr.
func ForwardRCT(r, g, b []int32) {
	for i := range r {
		ri, gi, bi := r[i], g[i], b[i]
		r[i] = (ri + 2*gi + bi) >> 2
		g[i] = bi - gi
		b[i] = ri - gi
	}
}

// InverseRCT undoes ForwardRCT in place: on return y holds R, cb holds G
// and cr holds B.
func InverseRCT(y, cb, cr []int32) {
	for i := range y {
		yi, cbi, cri := y[i], cb[i], cr[i]
		g := yi - ((cbi + cri) >> 2)
		y[i] = cri + g
		cb[i] = g
		cr[i] = cbi + g
	}
}
