// Command export-report pulls a date range of merged receipts and writes an
// xlsx summary, using the same service path as the HTTP actions.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/acamposr/receipt-bridge/internal/config"
	"github.com/acamposr/receipt-bridge/internal/pos"
	"github.com/acamposr/receipt-bridge/internal/report"
	"github.com/acamposr/receipt-bridge/internal/service"
	"github.com/acamposr/receipt-bridge/internal/store"
	"github.com/acamposr/receipt-bridge/pkg/database"
	"github.com/acamposr/receipt-bridge/pkg/utils"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
)

func main() {
	var (
		startFlag  = flag.String("start", "", "range start (YYYY-MM-DD), open when empty")
		endFlag    = flag.String("end", "", "range end (YYYY-MM-DD), open when empty")
		outFlag    = flag.String("out", "receipts.xlsx", "output workbook path")
		configFlag = flag.String("config", "configs/config.yaml", "config file path")
	)
	flag.Parse()

	_ = gotenv.Load()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: "stdout",
		Format:     "console",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	startDate, err := parseFlag(*startFlag)
	if err != nil {
		logger.Fatal("Invalid -start value", zap.Error(err))
	}
	endDate, err := parseFlag(*endFlag)
	if err != nil {
		logger.Fatal("Invalid -end value", zap.Error(err))
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open annotation database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	annotations := store.NewAnnotationRepository(db, logger)
	posClient := pos.NewClient(pos.Config{
		BaseURL:  cfg.Loyverse.BaseURL,
		APIToken: cfg.Loyverse.APIToken,
	}, logger)
	receipts := service.NewReceiptService(posClient, annotations, logger)

	merged, err := receipts.GetReceiptsByDate(context.Background(), startDate, endDate)
	if err != nil {
		logger.Fatal("Failed to fetch receipts", zap.Error(err))
	}

	writer := report.NewWriter(logger)
	if err := writer.Write(merged, *outFlag); err != nil {
		logger.Fatal("Failed to write report", zap.Error(err))
	}

	logger.Info("Export complete",
		zap.Int("receipts", len(merged)),
		zap.String("output", *outFlag))
}

func parseFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
