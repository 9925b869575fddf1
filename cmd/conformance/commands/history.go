package commands

import (
	"fmt"
	"time"

	"github.com/airchains-network/state-conformance/db"
	"github.com/airchains-network/state-conformance/history"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// HistoryCmd lists recorded runs
var HistoryCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "Show recorded scenario runs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyCommand(cmd, args)
	},
}

func init() {
	HistoryCmd.Flags().Int("limit", 20, "Number of runs to list (0 for all)")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}
	historyDB, err := db.NewLevelDB(cfg.Database.HistoryPath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %v", err)
	}
	defer historyDB.Close()
	store := history.NewStore(historyDB)

	if len(args) == 1 {
		rec, err := store.Get(args[0])
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("run %s not found", args[0])
		}
		printRecord(rec)
		if rec.Report != "" {
			fmt.Println(rec.Report)
		}
		return nil
	}

	records, err := store.List(limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No runs recorded")
		return nil
	}
	for _, rec := range records {
		printRecord(rec)
	}
	return nil
}

func printRecord(rec *history.Record) {
	verdict := color.GreenString("PASS")
	if !rec.Passed {
		verdict = color.RedString("FAIL")
	}
	fmt.Printf("%s  %s  %-2s  %s  %-10s  %s",
		rec.ID,
		rec.StartedAt.Format("2006-01-02 15:04:05"),
		rec.Scenario,
		verdict,
		rec.Duration.Round(time.Millisecond),
		rec.Node,
	)
	if rec.Error != "" {
		fmt.Printf("  %s", rec.Error)
	}
	fmt.Println()
}
