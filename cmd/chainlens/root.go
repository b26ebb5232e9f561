package main

import (
	"github.com/spf13/cobra"

	"github.com/richochetclementine1315/chain-lens/pkg/policy"
)

var (
	networkFlag string
	highFeeFlag float64
	thresholds  policy.Thresholds
)

var rootCmd = &cobra.Command{
	Use:   "chainlens",
	Short: "Decode and analyze Bitcoin transactions and blocks",
	Long: `chainlens decodes raw Bitcoin transactions and Bitcoin Core
blk*.dat/rev*.dat block files byte-by-byte, without consulting a node or
a live UTXO set, and reports script classifications, addresses, fees,
timelocks, and policy warnings as JSON.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		thresholds = policy.DefaultThresholds
		if highFeeFlag > 0 {
			thresholds.HighFeeSatPerVb = highFeeFlag
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&networkFlag, "network", "mainnet", "address network: mainnet or testnet")
	rootCmd.PersistentFlags().Float64Var(&highFeeFlag, "high-fee-threshold", 0, "override the HIGH_FEE sat/vB threshold (default 1000)")
	rootCmd.AddCommand(txCmd)
	rootCmd.AddCommand(blockCmd)
}
