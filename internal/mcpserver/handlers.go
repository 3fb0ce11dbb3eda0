package mcpserver

import (
	"context"
	"fmt"
	"math"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/verte-zerg/brownian/internal/analytic"
	"github.com/verte-zerg/brownian/internal/generator"
	"github.com/verte-zerg/brownian/internal/model"
	"github.com/verte-zerg/brownian/internal/sim"
	"github.com/verte-zerg/brownian/internal/stats"
)

// maxBins bounds histogram size in tool responses.
const maxBins = 1000

func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "first_passage",
		Description: "Estimate the probability that a drift-diffusion path reaches a barrier before the horizon, with the reflection-principle value for comparison",
	}, s.handleFirstPassage)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "arcsine_laws",
		Description: "Simulate standard Brownian paths and compare occupation time, last zero and time of the maximum with the arcsine law",
	}, s.handleArcsine)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "normal_cdf",
		Description: "Evaluate the standard normal distribution function Φ(x)",
	}, s.handleNormalCDF)
}

func (s *Server) handleFirstPassage(ctx context.Context, req *sdk.CallToolRequest, args FirstPassageInput) (_ *sdk.CallToolResult, _ FirstPassageOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.log.Debug("tool call", "tool", "first_passage", "duration", time.Since(start), "error", retErr)
	}()

	cfg := s.passage
	setFloat(&cfg.Drift, args.Drift)
	setFloat(&cfg.Volatility, args.Volatility)
	setFloat(&cfg.Barrier, args.Barrier)
	setFloat(&cfg.Horizon, args.Horizon)
	setFloat(&cfg.StepSize, args.StepSize)
	setInt(&cfg.PathCount, args.Paths)
	seed := seedFrom(args.Seed)

	res, err := sim.RunFirstPassage(ctx, cfg, sim.Options{Seed: seed, Workers: s.workers, Logger: s.log})
	if err != nil {
		return nil, FirstPassageOutput{}, err
	}
	out := FirstPassageOutput{
		Config:                 cfg,
		Seed:                   seed,
		EmpiricalProbability:   res.EmpiricalProbability,
		TheoreticalProbability: res.TheoreticalProbability,
		AbsoluteError:          math.Abs(res.EmpiricalProbability - res.TheoreticalProbability),
		HitCount:               res.HitCount,
		PathCount:              res.PathCount,
		StepCount:              res.StepCount,
	}
	if args.IncludePaths {
		out.SamplePaths = res.SamplePaths
	}
	return nil, out, nil
}

func (s *Server) handleArcsine(ctx context.Context, req *sdk.CallToolRequest, args ArcsineInput) (_ *sdk.CallToolResult, _ ArcsineOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.log.Debug("tool call", "tool", "arcsine_laws", "duration", time.Since(start), "error", retErr)
	}()

	cfg := s.arcsine
	setInt(&cfg.PathCount, args.Paths)
	setFloat(&cfg.Horizon, args.Horizon)
	setFloat(&cfg.StepSize, args.StepSize)
	bins := s.bins
	setInt(&bins, args.Bins)
	if bins < 1 || bins > maxBins {
		return nil, ArcsineOutput{}, fmt.Errorf("bins must be between 1 and %d, got %d", maxBins, bins)
	}
	seed := seedFrom(args.Seed)

	res, err := sim.RunArcsine(ctx, cfg, sim.Options{Seed: seed, Workers: s.workers, Logger: s.log})
	if err != nil {
		return nil, ArcsineOutput{}, err
	}
	out := ArcsineOutput{Config: cfg, Seed: seed}
	if cfg.Horizon == 0 {
		out.Config.Horizon = sim.DefaultArcsineHorizon
	}
	for _, st := range model.Statistics {
		out.Statistics = append(out.Statistics, stats.Summarize(st, res.Values(st), bins))
	}
	return nil, out, nil
}

func (s *Server) handleNormalCDF(ctx context.Context, req *sdk.CallToolRequest, args NormalCDFInput) (*sdk.CallToolResult, NormalCDFOutput, error) {
	if math.IsNaN(args.X) {
		return nil, NormalCDFOutput{}, fmt.Errorf("x must be a number")
	}
	return nil, NormalCDFOutput{X: args.X, Probability: analytic.NormalCDF(args.X)}, nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func seedFrom(v *uint64) uint64 {
	if v == nil || *v == 0 {
		return generator.NewSeed()
	}
	return *v
}
