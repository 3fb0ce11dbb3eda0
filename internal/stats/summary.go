package stats

import (
	"github.com/verte-zerg/brownian/internal/analytic"
	"github.com/verte-zerg/brownian/internal/model"
)

// Summary compares one arcsine statistic with the arcsine law.
type Summary struct {
	Name      model.Statistic      `json:"name" yaml:"name"`
	Title     string               `json:"title" yaml:"title"`
	Mean      float64              `json:"mean" yaml:"mean"`
	CDF       []CDFPoint           `json:"cdf" yaml:"cdf"`
	Histogram []model.HistogramBin `json:"histogram" yaml:"histogram"`
}

// CDFPoint pairs the empirical and arcsine distribution functions at X.
type CDFPoint struct {
	X           float64 `json:"x" yaml:"x"`
	Empirical   float64 `json:"empirical" yaml:"empirical"`
	Theoretical float64 `json:"theoretical" yaml:"theoretical"`
}

// Summarize builds the histogram and CDFCheckpoints comparison of values.
func Summarize(stat model.Statistic, values []float64, binCount int) Summary {
	s := Summary{
		Name:      stat,
		Title:     stat.Title(),
		Mean:      mean(values),
		CDF:       make([]CDFPoint, 0, len(CDFCheckpoints)),
		Histogram: BuildHistogram(values, binCount),
	}
	for _, x := range CDFCheckpoints {
		s.CDF = append(s.CDF, CDFPoint{
			X:           x,
			Empirical:   EmpiricalCDF(values, x),
			Theoretical: analytic.ArcsineCDF(x),
		})
	}
	return s
}
