// Command chainlens is the Chain Lens command-line front end: decode a
// transaction fixture or a Bitcoin Core blk*.dat/rev*.dat pair (or a
// directory of such pairs) and print the resulting JSON report.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/richochetclementine1315/chain-lens/pkg/address"
	"github.com/richochetclementine1315/chain-lens/pkg/orchestrator"
)

var logger *zap.Logger

func main() {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger init:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func newAnalyzer(network string) *orchestrator.Analyzer {
	net := address.Mainnet
	if network == "testnet" {
		net = address.Testnet
	}
	return orchestrator.New(logger, net, thresholds)
}
