// Package pipeline runs one analysis end to end: cleanse every input, pick
// the aggregation mode, score districts, train the ensemble and derive the
// summaries the renderers show.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/sentinel-cli/internal/cleanse"
	"github.com/KaramelBytes/sentinel-cli/internal/district"
	"github.com/KaramelBytes/sentinel-cli/internal/ensemble"
	"github.com/KaramelBytes/sentinel-cli/internal/frame"
	"github.com/KaramelBytes/sentinel-cli/internal/parser"
)

var (
	// ErrNoInput is returned when Run receives no frames.
	ErrNoInput = errors.New("no input files")
	// ErrNoUsableFrame is returned when no input has a district column.
	ErrNoUsableFrame = errors.New("no input has a district column")
)

// Options configures a run.
type Options struct {
	// Contamination is the cleansing detector's expected outlier share.
	Contamination float64
	// Seed drives the ensemble models.
	Seed int64
	// Logger is optional; nil discards.
	Logger *slog.Logger
}

// Result is the complete output of one run. A new run produces a new Result;
// nothing is carried over.
type Result struct {
	RunID     uuid.UUID        `json:"run_id" yaml:"run_id"`
	CreatedAt time.Time        `json:"created_at" yaml:"created_at"`
	Mode      district.Mode    `json:"mode" yaml:"mode"`
	Files     []FileAssignment `json:"files" yaml:"files"`

	Cleansing cleanse.Summary `json:"cleansing" yaml:"cleansing"`
	// Cleansed holds the cleansed frames in input order.
	Cleansed []*frame.Frame `json:"-" yaml:"-"`

	Table       *district.Table      `json:"-" yaml:"-"`
	Metrics     *ensemble.Metrics    `json:"models,omitempty" yaml:"models,omitempty"`
	Comparison  *Comparison          `json:"comparison,omitempty" yaml:"comparison,omitempty"`
	Headline    Headline             `json:"headline" yaml:"headline"`
	Insights    []Insight            `json:"insights" yaml:"insights"`
	States      []StateSummary       `json:"states" yaml:"states"`
	Diagnostics district.Diagnostics `json:"diagnostics" yaml:"diagnostics"`
}

// LoadAll reads every path concurrently and returns the frames in path order.
func LoadAll(ctx context.Context, paths []string, opt parser.Options) ([]*frame.Frame, error) {
	frames := make([]*frame.Frame, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := parser.LoadFile(p, opt)
			if err != nil {
				return fmt.Errorf("load %s: %w", p, err)
			}
			frames[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

// CleanAll cleanses frames concurrently. Output order matches input order.
func CleanAll(ctx context.Context, frames []*frame.Frame, eng *cleanse.Engine) ([]*frame.Frame, []*cleanse.Report, error) {
	cleaned := make([]*frame.Frame, len(frames))
	reports := make([]*cleanse.Report, len(frames))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range frames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			cleaned[i], reports[i] = eng.Clean(f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return cleaned, reports, nil
}

// Run executes the full analysis over raw frames.
func Run(ctx context.Context, frames []*frame.Frame, opt Options) (*Result, error) {
	if len(frames) == 0 {
		return nil, ErrNoInput
	}
	log := opt.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	res := &Result{RunID: uuid.New(), CreatedAt: time.Now().UTC()}
	log = log.With("run", res.RunID.String())

	eng := cleanse.NewEngine(cleanse.Options{Contamination: opt.Contamination, Logger: log})
	cleaned, reports, err := CleanAll(ctx, frames, eng)
	if err != nil {
		return nil, err
	}
	res.Cleansed = cleaned
	res.Cleansing = cleanse.Summarize(reports)

	slots, files := Assign(cleaned)
	res.Files = files

	var tbl *district.Table
	if len(frames) >= 2 {
		tbl, err = district.AggregateMulti(slots.Enrol, slots.Demo, slots.Bio)
	} else {
		f, role := slots.Single()
		tbl, err = district.AggregateSingle(f, string(role))
	}
	if err != nil {
		if errors.Is(err, district.ErrNoDistrictColumn) {
			return nil, fmt.Errorf("%w: %v", ErrNoUsableFrame, err)
		}
		return nil, err
	}
	res.Table = tbl
	res.Mode = tbl.Mode
	res.Diagnostics = tbl.Diagnostics
	log.Info("aggregated districts", "mode", tbl.Mode, "districts", len(tbl.Records))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	metrics, err := ensemble.Train(tbl, ensemble.Options{Seed: opt.Seed, Logger: log})
	switch {
	case errors.Is(err, ensemble.ErrNoFeatures):
		log.Warn("ensemble skipped", "reason", err)
	case err != nil:
		return nil, fmt.Errorf("train ensemble: %w", err)
	default:
		res.Metrics = metrics
	}

	res.Comparison = Compare(tbl)
	res.Headline = BuildHeadline(tbl, res.Metrics)
	res.Insights = Insights(tbl)
	res.States = StateSummaries(tbl)
	return res, nil
}
