package cmd

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/KaramelBytes/sentinel-cli/internal/cleanse"
	"github.com/KaramelBytes/sentinel-cli/internal/frame"
	"github.com/KaramelBytes/sentinel-cli/internal/parser"
	"github.com/KaramelBytes/sentinel-cli/internal/render"
	"github.com/KaramelBytes/sentinel-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	clnOutput        string
	clnFormat        string
	clnContamination float64
	clnDelimiter     string
	clnSheetName     string
)

var cleanFlagKeys = map[string]string{
	"format":        "format",
	"contamination": "contamination",
	"delimiter":     "delimiter",
}

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Cleanse one dataset and print the cleansing report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := *cfg
		if err := applyFlags(cmd, &settings, cleanFlagKeys); err != nil {
			return err
		}
		format, err := render.ParseFormat(settings.Format)
		if err != nil {
			return err
		}

		f, err := parser.LoadFile(args[0], parser.Options{Delimiter: settings.DelimiterRune(), SheetName: clnSheetName})
		if err != nil {
			return err
		}
		eng := cleanse.NewEngine(cleanse.Options{Contamination: settings.Contamination, Logger: logger})
		cleaned, rep := eng.Clean(f)

		if err := render.Report(cmd.OutOrStdout(), rep, format); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		if clnOutput != "" {
			if err := utils.SafeWrite(clnOutput, func(w io.Writer) error { return writeFrameCSV(w, cleaned) }); err != nil {
				return fmt.Errorf("write %s: %w", clnOutput, err)
			}
			progress(cmd, "✓ Wrote %s (%d rows)", clnOutput, cleaned.Len())
		}
		return nil
	},
}

func writeFrameCSV(w io.Writer, f *frame.Frame) error {
	header, rows := f.Records()
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVarP(&clnOutput, "output", "o", "", "write the cleansed dataset to this CSV file")
	cleanCmd.Flags().StringVarP(&clnFormat, "format", "f", "table", "report format: "+render.FormatList())
	cleanCmd.Flags().Float64Var(&clnContamination, "contamination", 0.05, "expected outlier share, in (0, 0.5]")
	cleanCmd.Flags().StringVar(&clnDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (auto-detect if omitted)")
	cleanCmd.Flags().StringVar(&clnSheetName, "sheet-name", "", "XLSX: sheet name to read (first sheet if omitted)")
}
