package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fundgrove/relevance/internal/classify"
	"github.com/fundgrove/relevance/internal/core/domain"
	"github.com/fundgrove/relevance/internal/dataset"
	"github.com/fundgrove/relevance/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the classification breakdown of the stored program set",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx := context.Background()
	var programs []domain.FundingProgram
	var err error

	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer func() {
			_ = db.Close()
		}()

		programs, err = postgres.NewProgramRepo(db).List(ctx)
		if err != nil {
			slog.Error("Failed to list programs", "error", err)
			os.Exit(1)
		}
	} else {
		programs, err = dataset.Load(cfg.Dataset.Path)
		if err != nil {
			slog.Error("Failed to load dataset", "error", err)
			os.Exit(1)
		}
	}

	stats := classify.Stats(programs)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "LEVEL\tPROGRAMS")
	for level := domain.LevelCore; level <= domain.LevelExcluded; level++ {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", level, stats.ByLevel[level])
	}
	_ = w.Flush()

	fmt.Printf("\n%d programs total, %d domain-relevant, %d region-specific\n",
		stats.Total, stats.DomainRelevant, stats.RegionSpecific)
}
