// Package aggregate reduces raw provider offers to one summary per canonical
// model. Marketplace sources are averaged; catalog sources keep their
// cheapest configuration.
package aggregate

import (
	"github.com/gpuindex/gpu-price-index/internal/logger"
	"github.com/gpuindex/gpu-price-index/internal/pricing"
)

// NameParser maps a vendor GPU name to its canonical model.
type NameParser func(vendorName string) (pricing.ModelName, bool)

type group struct {
	name     pricing.ModelName
	offers   []pricing.Offer
	monthly  []float64
	cheapest int
}

func groupOffers(offers []pricing.Offer, parse NameParser) map[string]*group {
	groups := make(map[string]*group)

	for _, offer := range offers {
		if offer.HourlyPrice <= 0 {
			continue
		}
		name, ok := parse(offer.GPUName)
		if !ok || name.Brand == "" || name.Model == "" {
			logger.WithProvider(offer.Provider).Debugf("Skipping unrecognized GPU name %q", offer.GPUName)
			continue
		}

		key := name.Key()
		g, exists := groups[key]
		if !exists {
			g = &group{name: name}
			groups[key] = g
		}

		monthly := pricing.HourlyToMonthly(offer.HourlyPrice)
		g.offers = append(g.offers, offer)
		g.monthly = append(g.monthly, monthly)
		if monthly < g.monthly[g.cheapest] {
			g.cheapest = len(g.monthly) - 1
		}
	}

	return groups
}

func (g *group) stats() (avg, lo, hi float64) {
	lo = g.monthly[0]
	hi = g.monthly[0]
	var total float64
	for _, m := range g.monthly {
		total += m
		if m < lo {
			lo = m
		}
		if m > hi {
			hi = m
		}
	}
	return pricing.Round2(total / float64(len(g.monthly))), lo, hi
}

func sourceLabel(offer pricing.Offer) string {
	if offer.Seller == "" {
		return offer.Provider
	}
	return offer.Provider + " - " + offer.Seller
}

// Average builds one entry per model whose representative price is the mean
// monthly price of all matching offers. Resource fields are averaged over the
// offers that report them.
func Average(provider string, offers []pricing.Offer, parse NameParser) pricing.Set {
	groups := groupOffers(offers, parse)
	set := make(pricing.Set, len(groups))

	for key, g := range groups {
		avg, lo, hi := g.stats()
		set[key] = pricing.ModelPrice{
			Brand:       g.name.Brand,
			Model:       g.name.Model,
			Provider:    provider,
			Source:      provider,
			Price:       avg,
			AvgPrice:    avg,
			MinPrice:    lo,
			MaxPrice:    hi,
			SampleCount: len(g.offers),
			Specs:       averageSpecs(g.offers),
		}
	}

	return set
}

// Cheapest builds one entry per model whose representative price and
// resource fields come from the lowest priced matching offer.
func Cheapest(provider string, offers []pricing.Offer, parse NameParser) pricing.Set {
	groups := groupOffers(offers, parse)
	set := make(pricing.Set, len(groups))

	for key, g := range groups {
		avg, lo, hi := g.stats()
		best := g.offers[g.cheapest]
		set[key] = pricing.ModelPrice{
			Brand:       g.name.Brand,
			Model:       g.name.Model,
			Provider:    provider,
			Source:      sourceLabel(best),
			Price:       g.monthly[g.cheapest],
			AvgPrice:    avg,
			MinPrice:    lo,
			MaxPrice:    hi,
			SampleCount: len(g.offers),
			Specs: pricing.Specs{
				CPUCores:     best.CPUCores,
				RAMGB:        best.RAMGB,
				DiskGB:       best.DiskGB,
				NetworkMbps:  best.NetworkMbps,
				ComputeScore: best.ComputeScore,
				Reliability:  best.Reliability,
			},
		}
	}

	return set
}

type mean struct {
	total float64
	n     int
}

func (m *mean) add(v *float64) {
	if v == nil {
		return
	}
	m.total += *v
	m.n++
}

func (m *mean) value() *float64 {
	if m.n == 0 {
		return nil
	}
	v := m.total / float64(m.n)
	return &v
}

func averageSpecs(offers []pricing.Offer) pricing.Specs {
	var cpu, ram, disk, net, score, rel mean
	for _, o := range offers {
		cpu.add(o.CPUCores)
		ram.add(o.RAMGB)
		disk.add(o.DiskGB)
		net.add(o.NetworkMbps)
		score.add(o.ComputeScore)
		rel.add(o.Reliability)
	}
	return pricing.Specs{
		CPUCores:     cpu.value(),
		RAMGB:        ram.value(),
		DiskGB:       disk.value(),
		NetworkMbps:  net.value(),
		ComputeScore: score.value(),
		Reliability:  rel.value(),
	}
}
