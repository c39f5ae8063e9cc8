package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/sentinel-cli/internal/parser"
	"github.com/KaramelBytes/sentinel-cli/internal/pipeline"
	"github.com/KaramelBytes/sentinel-cli/internal/render"
	"github.com/KaramelBytes/sentinel-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	anaOutputDir     string
	anaFormat        string
	anaContamination float64
	anaSeed          int64
	anaTop           int
	anaDelimiter     string
	anaSheetName     string
	anaMaxRows       int
)

// maxInputs is the number of dataset roles; later unmatched files replace
// the biometric slot.
const maxInputs = 3

var analyzeFlagKeys = map[string]string{
	"output-dir":    "output_dir",
	"format":        "format",
	"contamination": "contamination",
	"seed":          "seed",
	"top":           "top_n",
	"delimiter":     "delimiter",
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <files...>",
	Short: "Cleanse, aggregate and score districts from one to three datasets",
	Long: `Analyze reads enrollment, demographic and biometric datasets (CSV/TSV/XLSX,
glob patterns allowed), cleanses each one and scores every district.

A single file is analyzed on its own. Two or three files are joined per
district; each file's role is taken from its name ("enrol", "demo", "bio")
and files with no recognizable name fill the remaining roles in order.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := *cfg
		if err := applyFlags(cmd, &settings, analyzeFlagKeys); err != nil {
			return err
		}
		format, err := render.ParseFormat(settings.Format)
		if err != nil {
			return err
		}

		files, err := utils.ExpandInputs(args)
		if err != nil {
			return err
		}
		if len(files) > maxInputs {
			progress(cmd, "⚠ %d files given; only one file per dataset role is used", len(files))
		}

		ctx := cmd.Context()
		progress(cmd, "Loading %d file(s)...", len(files))
		frames, err := pipeline.LoadAll(ctx, files, parser.Options{
			Delimiter: settings.DelimiterRune(),
			SheetName: anaSheetName,
			MaxRows:   anaMaxRows,
		})
		if err != nil {
			return err
		}
		for i, f := range frames {
			progress(cmd, "[%d/%d] Loaded %s (%d rows, %d columns)", i+1, len(frames), f.Name, f.Len(), len(f.Names()))
		}

		res, err := pipeline.Run(ctx, frames, pipeline.Options{
			Contamination: settings.Contamination,
			Seed:          settings.Seed,
			Logger:        logger,
		})
		if err != nil {
			return err
		}
		for i, rep := range res.Cleansing.Reports {
			progress(cmd, "[%d/%d] Cleansed %s: %d -> %d rows (quality %.1f)",
				i+1, len(res.Cleansing.Reports), rep.Source, rep.OriginalRows, rep.CleanedRows, rep.Quality.Avg)
		}
		for _, fa := range res.Files {
			logger.Debug("dataset role", "file", fa.Name, "role", string(fa.Role))
		}
		progress(cmd, "✓ Scored %d districts in %s mode", len(res.Table.Records), res.Mode)

		if err := render.Result(cmd.OutOrStdout(), res, format, settings.TopN); err != nil {
			return fmt.Errorf("render: %w", err)
		}

		if settings.OutputDir != "" {
			if err := writeOutputs(cmd, settings.OutputDir, res); err != nil {
				return err
			}
		}
		return nil
	},
}

// writeOutputs stores the district tables and the run report under dir.
func writeOutputs(cmd *cobra.Command, dir string, res *pipeline.Result) error {
	if err := utils.EnsureDir(dir); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tbl := res.Table

	path := filepath.Join(dir, "districts.csv")
	if err := utils.SafeWrite(path, tbl.WriteCSV); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	progress(cmd, "✓ Wrote %s", path)

	path = filepath.Join(dir, "critical.csv")
	if err := utils.SafeWrite(path, tbl.WriteCriticalCSV); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	progress(cmd, "✓ Wrote %s (%d critical)", path, len(tbl.Critical()))

	path = filepath.Join(dir, "districts.xlsx")
	if err := tbl.WriteXLSX(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	progress(cmd, "✓ Wrote %s", path)

	b, err := utils.PrettyJSON(res)
	if err != nil {
		return err
	}
	path = filepath.Join(dir, "report.json")
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	progress(cmd, "✓ Wrote %s", path)
	return nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputDir, "output-dir", "o", "", "directory for districts.csv, critical.csv, districts.xlsx and report.json")
	analyzeCmd.Flags().StringVarP(&anaFormat, "format", "f", "table", "stdout format: "+render.FormatList())
	analyzeCmd.Flags().Float64Var(&anaContamination, "contamination", 0.05, "expected outlier share for cleansing, in (0, 0.5]")
	analyzeCmd.Flags().Int64Var(&anaSeed, "seed", 42, "random seed for the models")
	analyzeCmd.Flags().IntVar(&anaTop, "top", 10, "districts to list in table and markdown output")
	analyzeCmd.Flags().StringVar(&anaDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (auto-detect if omitted)")
	analyzeCmd.Flags().StringVar(&anaSheetName, "sheet-name", "", "XLSX: sheet name to read (first sheet if omitted)")
	analyzeCmd.Flags().IntVar(&anaMaxRows, "max-rows", 0, "maximum rows to read per file (0 = unlimited)")
}
