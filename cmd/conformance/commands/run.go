package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/airchains-network/state-conformance/config"
	"github.com/airchains-network/state-conformance/db"
	"github.com/airchains-network/state-conformance/history"
	"github.com/airchains-network/state-conformance/report"
	"github.com/airchains-network/state-conformance/scenario"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// RunCmd represents the run command
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the built-in conformance scenarios",
	Long: `Run the built-in conformance scenarios against the configured node, or against
an in-process simulated chain with --simulated. Every verdict is recorded in the
run history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd)
	},
}

func init() {
	RunCmd.Flags().StringSlice("scenarios", nil, "Scenarios to run (default all: a,b,c,d,e)")
	RunCmd.Flags().Bool("simulated", false, "Run against an in-process simulated chain")
	RunCmd.Flags().Bool("list", false, "List the scenarios and exit")
}

func runCommand(cmd *cobra.Command) error {
	names, _ := cmd.Flags().GetStringSlice("scenarios")
	simulated, _ := cmd.Flags().GetBool("simulated")
	list, _ := cmd.Flags().GetBool("list")

	selected, err := scenario.Select(names)
	if err != nil {
		return err
	}
	if list {
		for _, s := range selected {
			fmt.Printf("%s  %s\n", s.Name, s.Description)
		}
		return nil
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		if !simulated {
			return fmt.Errorf("failed to load config: %v", err)
		}
		dir, derr := config.Dir()
		if derr != nil {
			return derr
		}
		cfg = config.DefaultConfig(dir)
		cfg.Database.HistoryPath = ""
	}
	log := newLogger(cfg.Log.Level)

	historyDB, err := db.Open(cfg.Database.HistoryPath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %v", err)
	}
	defer historyDB.Close()
	store := history.NewStore(historyDB)

	st, err := newStack(cfg, simulated, log)
	if err != nil {
		return err
	}
	defer st.close()

	ctx := context.Background()
	failed := 0
	for _, s := range selected {
		rec := runScenario(ctx, s, st)
		if err := store.Save(rec); err != nil {
			log.Warnf("Failed to record run of scenario %s: %v", s.Name, err)
		}
		if !rec.Passed {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(selected))
	}
	color.Green("All %d scenarios passed", len(selected))
	return nil
}

func runScenario(ctx context.Context, s scenario.Scenario, st *stack) *history.Record {
	rec := &history.Record{Scenario: s.Name, Node: st.label, StartedAt: time.Now()}
	err := s.Run(ctx, st.env)
	rec.Duration = time.Since(rec.StartedAt)

	if err == nil {
		rec.Passed = true
		color.Green("PASS  %s  %s (%s)", s.Name, s.Description, rec.Duration.Round(time.Millisecond))
		return rec
	}

	rec.Error = err.Error()
	var failed *report.VerificationFailed
	if errors.As(err, &failed) {
		rec.Differences = len(failed.Differences)
		rec.Report = failed.Message
		rec.Error = fmt.Sprintf("%d state differences", len(failed.Differences))
	}
	color.Red("FAIL  %s  %s: %s", s.Name, s.Description, rec.Error)
	if rec.Report != "" {
		fmt.Println(rec.Report)
	}
	return rec
}
