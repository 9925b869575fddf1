package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/airchains-network/state-conformance/config"
	"github.com/airchains-network/state-conformance/txbuilder"
	"github.com/airchains-network/state-conformance/types"
	"github.com/spf13/cobra"
)

// InitCmd represents the init command
var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the conformance runner",
	Long: `Initialize the conformance runner with the required configuration.
This command creates the necessary directories and configuration files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return initCommand(cmd)
	},
}

func init() {
	InitCmd.Flags().String("node.rpc-url", "http://127.0.0.1:8545", "Node RPC URL")
	InitCmd.Flags().String("genesis.key", "", "Private key of the genesis-controlled funding account")
	InitCmd.Flags().String("server.listen-addr", ":11111", "History server address")
	InitCmd.Flags().Bool("resolve-delegated-code", false, "Expect delegated accounts to report their delegate's code")
}

func initCommand(cmd *cobra.Command) error {
	rpcURL, _ := cmd.Flags().GetString("node.rpc-url")
	genesisKey, _ := cmd.Flags().GetString("genesis.key")
	listenAddr, _ := cmd.Flags().GetString("server.listen-addr")
	resolve, _ := cmd.Flags().GetBool("resolve-delegated-code")

	log := newLogger("info")

	var genesis *types.EOA
	if genesisKey != "" {
		key, err := txbuilder.ParseKey(genesisKey)
		if err != nil {
			return fmt.Errorf("invalid --genesis.key: %v", err)
		}
		genesis = types.NewEOA(key)
	}

	path, err := configPath(cmd)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	dataDir := filepath.Join(dir, "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %v", dataDir, err)
	}

	// Create config with command-line flags
	cfg := config.DefaultConfig(dir)
	cfg.Node.RPCURL = rpcURL
	cfg.Genesis.PrivateKey = genesisKey
	cfg.Server.ListenAddr = listenAddr
	cfg.Scenarios.ResolveDelegatedCode = resolve

	if err := cfg.Save(path); err != nil {
		return fmt.Errorf("failed to create config file: %v", err)
	}
	log.Infof("Created config file at: %s", path)

	// Show configuration summary
	fmt.Println("\n=== Configuration Summary ===")
	fmt.Printf("Node RPC URL: %s\n", cfg.Node.RPCURL)
	if genesis != nil {
		fmt.Printf("Genesis Account: %s\n", genesis.Address.Hex())
	} else {
		fmt.Println("Genesis Account: (not set, only --simulated runs are possible)")
	}
	fmt.Printf("History DB: %s\n", cfg.Database.HistoryPath)
	fmt.Printf("Server Address: %s\n", cfg.Server.ListenAddr)
	fmt.Printf("Config File: %s\n", path)

	log.Info("Initialization completed successfully!")
	log.Info("Run the built-in scenarios with: ./conformance run")
	return nil
}
