package cli

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fundgrove/relevance/internal/classify"
	"github.com/fundgrove/relevance/internal/core/domain"
	"github.com/fundgrove/relevance/internal/dataset"
)

var classifyState string

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify the configured dataset and print the results",
	Run:   runClassify,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyState, "state", "", "federal state to prioritize for")
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	programs, err := dataset.Load(cfg.Dataset.Path)
	if err != nil {
		slog.Error("Failed to load dataset", "error", err)
		os.Exit(1)
	}

	classified := make([]domain.ClassifiedProgram, len(programs))
	for i := range programs {
		classified[i] = domain.ClassifiedProgram{
			Program:  programs[i],
			Metadata: classify.Metadata(&programs[i]),
		}
	}
	if classifyState != "" {
		classify.SortByPriority(classified, classifyState)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	if classifyState != "" {
		_, _ = fmt.Fprintln(w, "NAME\tLEVEL\tORIGIN\tPRIORITY")
	} else {
		_, _ = fmt.Fprintln(w, "NAME\tLEVEL\tORIGIN\tSUCCESS")
	}

	for _, cp := range classified {
		if classifyState != "" {
			score := classify.PriorityScore(&cp.Program, classifyState, cp.Metadata.Level)
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
				cp.Program.Name, cp.Metadata.Level, cp.Metadata.Origin, score)
		} else {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\n",
				cp.Program.Name, cp.Metadata.Level, cp.Metadata.Origin, cp.Metadata.SuccessRate)
		}
	}
	_ = w.Flush()

	stats := classify.Stats(programs)
	fmt.Printf("\n%d programs, %d domain-relevant, %d region-specific\n",
		stats.Total, stats.DomainRelevant, stats.RegionSpecific)
}
