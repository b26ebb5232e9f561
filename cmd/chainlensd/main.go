// Command chainlensd serves transaction analysis over HTTP: a thin Gin
// wrapper around the orchestrator package, with no static-file serving —
// the end-user visualizer that the original Chain Lens web UI shipped is
// out of scope here; this is an API service only.
package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/richochetclementine1315/chain-lens/pkg/address"
	"github.com/richochetclementine1315/chain-lens/pkg/orchestrator"
	"github.com/richochetclementine1315/chain-lens/pkg/policy"
	"github.com/richochetclementine1315/chain-lens/pkg/report"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	network := address.Mainnet
	if os.Getenv("CHAINLENS_NETWORK") == "testnet" {
		network = address.Testnet
	}
	analyzer := orchestrator.New(logger, network, policy.DefaultThresholds)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(ginzapRecovery(logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	r.POST("/api/analyze", newAnalyzeHandler(analyzer))

	logger.Info("listening", zap.String("addr", ":"+port))
	if err := r.Run(":" + port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

var errInvalidBody = errors.New("request body is neither a fixture JSON document nor a raw transaction hex string")

func newAnalyzeHandler(analyzer *orchestrator.Analyzer) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(400, errorReport("INVALID_REQUEST", "failed to read request body"))
			return
		}

		fixture, err := parseAnalyzeBody(body)
		if err != nil {
			c.JSON(400, errorReport("INVALID_JSON", "failed to parse request body"))
			return
		}

		result, err := analyzer.AnalyzeTransaction(c.Request.Context(), fixture)
		if err != nil {
			c.JSON(400, errorReport("ANALYSIS_FAILED", err.Error()))
			return
		}

		c.JSON(200, result)
	}
}

// parseAnalyzeBody accepts either a fixture JSON document or a bare raw
// transaction hex string, the same two input modes the chainlens CLI's
// tx subcommand accepts.
func parseAnalyzeBody(body []byte) (orchestrator.Fixture, error) {
	var fixture orchestrator.Fixture
	if err := json.Unmarshal(body, &fixture); err == nil {
		return fixture, nil
	}
	trimmed := strings.TrimSpace(string(body))
	if _, err := hex.DecodeString(trimmed); err == nil && trimmed != "" {
		return orchestrator.Fixture{RawTx: trimmed}, nil
	}
	return orchestrator.Fixture{}, errInvalidBody
}

func errorReport(code, message string) report.Transaction {
	return report.Transaction{
		SchemaVersion: report.SchemaVersion,
		OK:            false,
		Errors:        []report.Diagnostic{{Code: code, Detail: message}},
	}
}

func ginzapRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		logger.Error("panic recovered", zap.Any("error", recovered))
		c.JSON(500, errorReport("INTERNAL_ERROR", "internal server error"))
		c.Abort()
	})
}
