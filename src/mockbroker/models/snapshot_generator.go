package models

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
)

type SnapshotGenerator struct {
	hours *MarketHours
	cache *HistoricalDataCache
}

func NewSnapshotGenerator(hours *MarketHours, cache *HistoricalDataCache) *SnapshotGenerator {
	return &SnapshotGenerator{
		hours: hours,
		cache: cache,
	}
}

// Generate aggregates the replayed bars from the start of the current session
// day up to the bar in effect at mockNow.
func (g *SnapshotGenerator) Generate(ctx context.Context, symbol string, windowStart, mockNow time.Time) *Snapshot {
	normalized := g.hours.Normalize(mockNow)

	series := g.cache.EnsureLoaded(ctx, symbol, windowStart)
	if !series.IsUsable() {
		log.Debugf("Generate: no usable data for %s, synthesizing snapshot", symbol)
		return synthesizeSnapshot(symbol, normalized, g.hours.DateKey(normalized))
	}

	current := g.hours.ReplayMinute(windowStart, normalized)
	startOfDay := g.hours.SessionMinutesBetween(windowStart, g.hours.SessionOpen(normalized))
	if startOfDay > current {
		startOfDay = current
	}

	snapshot := &Snapshot{
		Symbol:    symbol,
		Timestamp: normalized,
		Source:    SnapshotSourceReplay,
		Low:       math.MaxFloat64,
	}

	for m := startOfDay; m <= current; m++ {
		bar, cycle, err := series.BarAt(m)
		if err != nil {
			return synthesizeSnapshot(symbol, normalized, g.hours.DateKey(normalized))
		}

		if m == startOfDay {
			snapshot.Open = bar.Open
		}

		snapshot.High = math.Max(snapshot.High, bar.High)
		snapshot.Low = math.Min(snapshot.Low, bar.Low)
		snapshot.Close = bar.Close
		snapshot.Volume = bar.Volume
		snapshot.TotalVolume += bar.Volume
		snapshot.ReplayCycle = cycle
	}

	snapshot.ReferencePrice = snapshot.Open
	if startOfDay > 0 {
		if previous, _, err := series.BarAt(startOfDay - 1); err == nil {
			snapshot.ReferencePrice = previous.Close
		}
	}

	snapshot.ChangePrice = snapshot.Close - snapshot.ReferencePrice
	if snapshot.ReferencePrice != 0 {
		snapshot.ChangeRate = snapshot.ChangePrice / snapshot.ReferencePrice * 100
	}

	return snapshot
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// synthesizeSnapshot returns a pseudo-random state seeded by symbol and day,
// so repeated queries on the same mock day agree. Low <= Open, Close <= High
// always holds.
func synthesizeSnapshot(symbol string, ts time.Time, dateKey string) *Snapshot {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	h.Write([]byte(dateKey))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	reference := round2(20 + rng.Float64()*480)
	open := round2(reference * (1 + (rng.Float64()-0.5)*0.02))
	closePrice := round2(reference * (1 + (rng.Float64()-0.5)*0.04))
	high := round2(math.Max(open, closePrice) * (1 + rng.Float64()*0.01))
	low := round2(math.Min(open, closePrice) * (1 - rng.Float64()*0.01))
	volume := float64(100 + rng.Intn(10000))
	totalVolume := volume * float64(1+rng.Intn(300))

	change := round2(closePrice - reference)

	return &Snapshot{
		Symbol:         symbol,
		Timestamp:      ts,
		Open:           open,
		High:           high,
		Low:            low,
		Close:          closePrice,
		Volume:         volume,
		TotalVolume:    totalVolume,
		ReferencePrice: reference,
		ChangePrice:    change,
		ChangeRate:     change / reference * 100,
		Source:         SnapshotSourceSynthetic,
	}
}
