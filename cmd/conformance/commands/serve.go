package commands

import (
	"fmt"

	"github.com/airchains-network/state-conformance/db"
	"github.com/airchains-network/state-conformance/history"
	"github.com/airchains-network/state-conformance/server"
	"github.com/spf13/cobra"
)

// ServeCmd exposes the run history over HTTP
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the run history over HTTP",
	Long:  `Serve GET /health, GET /runs and GET /runs/:id from the recorded run history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %v", err)
		}
		log := newLogger(cfg.Log.Level)

		historyDB, err := db.NewLevelDB(cfg.Database.HistoryPath)
		if err != nil {
			return fmt.Errorf("failed to open history database: %v", err)
		}
		defer historyDB.Close()

		return server.Start(cfg.Server.ListenAddr, history.NewStore(historyDB), log)
	},
}
