package prior

import "math"

// distribution is the part of a gonum distuv distribution a prior needs.
type distribution interface {
	CDF(x float64) float64
	Quantile(p float64) float64
	Prob(x float64) float64
}

// cdfPrior turns any univariate distribution into a Prior, truncated to its
// limits when they are set.
type cdfPrior struct {
	limits
	name string
	dist distribution
	// cumulative probability at the limits
	clo, chi float64
}

func newCDFPrior(name string, dist distribution, opts []Option) (*cdfPrior, error) {
	p := &cdfPrior{name: name, dist: dist, clo: 0, chi: 1}
	if err := applyOptions(&p.limits, opts); err != nil {
		return nil, err
	}
	if p.set {
		p.clo = dist.CDF(p.lo)
		p.chi = dist.CDF(p.hi)
	}
	return p, nil
}

func (p *cdfPrior) span() float64 { return p.chi - p.clo }

func (p *cdfPrior) DomainToUnit(x float64) float64 {
	u := (p.dist.CDF(x) - p.clo) / p.span()
	return math.Min(math.Max(u, 0), 1)
}

func (p *cdfPrior) UnitToDomain(u float64) float64 {
	x := p.dist.Quantile(clampUnit(p.clo + math.Min(math.Max(u, 0), 1)*p.span()))
	if p.set {
		x = math.Min(math.Max(x, p.lo), p.hi)
	}
	return x
}

func (p *cdfPrior) PartialDomainToUnit(x float64) float64 {
	if p.IsOutOfLimits(x) {
		return 0
	}
	return p.dist.Prob(x) / p.span()
}
