package lossless

import (
	"fmt"
	"strings"

	"github.com/jpfielding/sqp.go/pkg/compress/colorspace"
)

// Predictor estimates a sample from its causal neighbours:
//
//	c b
//	a x
type Predictor int8

const (
	// Adaptive picks the cheapest predictor for every row.
	Adaptive Predictor = -1

	None     Predictor = 0
	Left     Predictor = 1
	Up       Predictor = 2
	Average  Predictor = 3
	Paeth    Predictor = 4
	MED      Predictor = 5
	Gradient Predictor = 6

	numPredictors = 7
)

var predictorNames = [numPredictors]string{"none", "left", "up", "average", "paeth", "med", "gradient"}

func (p Predictor) Valid() bool { return p == Adaptive || (p >= 0 && p < numPredictors) }

func (p Predictor) String() string {
	switch {
	case p == Adaptive:
		return "adaptive"
	case p >= 0 && p < numPredictors:
		return predictorNames[p]
	default:
		return fmt.Sprintf("predictor(%d)", int8(p))
	}
}

// ParsePredictor accepts the names printed by String.
func ParsePredictor(s string) (Predictor, error) {
	if strings.EqualFold(s, "adaptive") {
		return Adaptive, nil
	}
	for i, n := range predictorNames {
		if strings.EqualFold(s, n) {
			return Predictor(i), nil
		}
	}
	return 0, fmt.Errorf("lossless: unknown predictor %q", s)
}

// predict evaluates p for one sample. r bounds the Gradient predictor.
func predict(p Predictor, a, b, c int32, r colorspace.Range) int32 {
	switch p {
	case Left:
		return a
	case Up:
		return b
	case Average:
		return (a + b) >> 1
	case Paeth:
		return PredictPaeth(a, b, c)
	case MED:
		return PredictMED(a, b, c)
	case Gradient:
		return r.Clamp(a + b - c)
	default:
		return 0
	}
}

// PredictMED implements Median Edge Detection predictor.
// Ra: Left
// Rb: Above
// Rc: Above-Left
func PredictMED(Ra, Rb, Rc int32) int32 {
	if Rc >= max(Ra, Rb) {
		return min(Ra, Rb)
	}
	if Rc <= min(Ra, Rb) {
		return max(Ra, Rb)
	}
	return Ra + Rb - Rc
}

// PredictPaeth returns whichever neighbour is closest to a+b-c.
func PredictPaeth(a, b, c int32) int32 {
	p := a + b - c
	pa, pb, pc := abs(p-a), abs(p-b), abs(p-c)
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	default:
		return c
	}
}

// neighbours returns a, b, c for (x, y) given the current and previous
// rows. Row 0 sees zeros above; column 0 borrows the sample above.
func neighbours(cur, prev []int32, x, y int) (a, b, c int32) {
	if y > 0 {
		b = prev[x]
		if x > 0 {
			c = prev[x-1]
		} else {
			c = b
		}
	}
	if x > 0 {
		a = cur[x-1]
	} else {
		a = b
	}
	return a, b, c
}

func abs(x int32) int32 {
	if x < 0 {
		return -x
	}
	return x
}
