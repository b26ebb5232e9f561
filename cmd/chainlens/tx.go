package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/richochetclementine1315/chain-lens/pkg/orchestrator"
)

var txCmd = &cobra.Command{
	Use:   "tx <fixture.json | raw_hex>",
	Short: "Analyze a single transaction: a fixture file (raw tx + prevouts), or a bare raw transaction hex string with no known prevouts",
	Args:  cobra.ExactArgs(1),
	RunE:  runTx,
}

// loadFixture accepts either a path to a fixture JSON document, or a raw
// transaction hex string with no prevouts (fee and other prevout-derived
// fields come back null, same as an unsupplied prevout in a fixture).
func loadFixture(arg string) (orchestrator.Fixture, error) {
	data, err := os.ReadFile(arg)
	if err != nil {
		if _, hexErr := hex.DecodeString(strings.TrimSpace(arg)); hexErr == nil {
			return orchestrator.Fixture{RawTx: strings.TrimSpace(arg)}, nil
		}
		return orchestrator.Fixture{}, fmt.Errorf("read fixture: %w", err)
	}

	var fixture orchestrator.Fixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return orchestrator.Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	return fixture, nil
}

func runTx(cmd *cobra.Command, args []string) error {
	fixture, err := loadFixture(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitMalformedInput)
	}
	if fixture.Network == "" {
		fixture.Network = networkFlag
	}

	analyzer := newAnalyzer(fixture.Network)
	result, err := analyzer.AnalyzeTransaction(context.Background(), fixture)
	if err != nil {
		logger.Error("analyze transaction failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "analyze:", err)
		os.Exit(exitCodeFor(err))
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))
	return nil
}
