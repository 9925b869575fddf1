package commands

import (
	"fmt"

	"github.com/airchains-network/state-conformance/types"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var CreateAccountCmd = &cobra.Command{
	Use:   "create-account",
	Short: "Create a new account key",
	Long:  `Generate a fresh secp256k1 key, for example to use as the genesis funding account`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := crypto.GenerateKey()
		if err != nil {
			return fmt.Errorf("failed to generate key: %v", err)
		}
		eoa := types.NewEOA(key)

		fmt.Printf("Account created successfully!\n")
		fmt.Printf("Address: %s\n", eoa.Address.Hex())
		fmt.Printf("Private Key: %s\n", hexutil.Encode(crypto.FromECDSA(key)))
		fmt.Println("\nIMPORTANT: Save your private key in a secure place!")
		return nil
	},
}
