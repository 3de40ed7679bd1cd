package netana

// poisson.go computes the rank order of Poisson probabilities.  The mode is found in
// constant time and ranks are produced by walking outward from it, taking whichever
// neighbour on the left or right is more probable.  Ranks are cached as they are found,
// so repeated queries cost nothing.

import (
	"gonum.org/v1/gonum/stat/distuv"
)

func poissonPMF(k int, lambda float64) float64 {
	return distuv.Poisson{Lambda: lambda}.Prob(float64(k))
}

func poissonCDF(k int, lambda float64) float64 {
	return distuv.Poisson{Lambda: lambda}.CDF(float64(k))
}

// poissonMode returns the value of maximal probability. The maximum lies among
// floor(λ-1), floor(λ-1)+1 and floor(λ-1)+2, clamped at 0.
func poissonMode(lambda float64) int {
	kIni := max(int(lambda-1), 0)
	mode := kIni
	fMax := poissonPMF(kIni, lambda)
	for k := kIni + 1; k <= kIni+2; k++ {
		f := poissonPMF(k, lambda)
		if f > fMax {
			fMax = f
			mode = k
		}
	}
	return mode
}

// poissonRanks is the incremental generator of the rank order.  kLeft and kRight
// are the next unvisited values on either side of the values already ranked.
type poissonRanks struct {
	lambda float64
	ranked []ProbPair
	kLeft  int
	kRight int
}

func createPoissonRanks(lambda float64) *poissonRanks {
	k := poissonMode(lambda)
	pr := &poissonRanks{lambda: lambda, kLeft: k - 1, kRight: k + 1}
	pr.ranked = []ProbPair{{Prob: poissonPMF(k, lambda), Value: k}}
	return pr
}

func (pr *poissonRanks) kth(k int) ProbPair {
	for len(pr.ranked) <= k {
		pr.extend()
	}
	return pr.ranked[k]
}

// extend ranks one more value.  Ties go to the left neighbour, which has the lower value.
func (pr *poissonRanks) extend() {
	var k int
	if pr.kLeft < 0 {
		k = pr.kRight
		pr.kRight += 1
	} else {
		fLeft := poissonPMF(pr.kLeft, pr.lambda)
		fRight := poissonPMF(pr.kRight, pr.lambda)
		if fLeft >= fRight {
			k = pr.kLeft
			pr.kLeft -= 1
		} else {
			k = pr.kRight
			pr.kRight += 1
		}
	}
	pr.ranked = append(pr.ranked, ProbPair{Prob: poissonPMF(k, pr.lambda), Value: k})
}
