package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/payoutcore/settlement-service/internal/adapters/notify"
	"github.com/payoutcore/settlement-service/internal/adapters/postgres"
	"github.com/payoutcore/settlement-service/internal/adapters/rails"
	"github.com/payoutcore/settlement-service/internal/adapters/secrets"
	"github.com/payoutcore/settlement-service/internal/config"
	"github.com/payoutcore/settlement-service/internal/domain/ports"
	"github.com/payoutcore/settlement-service/internal/services/fraudhold"
	"github.com/payoutcore/settlement-service/internal/services/invoice"
	"github.com/payoutcore/settlement-service/internal/services/ledger"
	"github.com/payoutcore/settlement-service/internal/services/payout"
	"github.com/payoutcore/settlement-service/internal/services/payoutmethod"
	"github.com/payoutcore/settlement-service/internal/services/sweep"
	"github.com/payoutcore/settlement-service/pkg/logging"
	"github.com/payoutcore/settlement-service/pkg/observability"
)

func main() {
	logger := initLogger()
	defer logger.Sync()

	logger.Info("Starting settlement service",
		zap.String("version", "0.1.0"),
	)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	dbPool, err := initDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbPool.Close()

	logger.Info("Database connection established",
		zap.String("database", cfg.Database.Database),
	)

	deps, err := initDependencies(dbPool, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize dependencies", zap.Error(err))
	}

	metricsServer := observability.StartMetricsServer(fmt.Sprintf("%d", cfg.Server.MetricsPort))
	logger.Info("Metrics server listening", zap.Int("port", cfg.Server.MetricsPort))

	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	go deps.sweeper.Start(sweepCtx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	cancelSweep()

	if err := observability.ShutdownMetricsServer(metricsServer); err != nil {
		logger.Error("Metrics server shutdown error", zap.Error(err))
	}

	logger.Info("Settlement service stopped")
}

// Dependencies holds the wired service graph
type Dependencies struct {
	ledger          *ledger.Service
	aggregator      *payout.Service
	retryController *invoice.RetryController
	methodResolver  *payoutmethod.Service
	fraudGate       *fraudhold.Service
	sweeper         *sweep.Sweeper
}

func initLogger() *zap.Logger {
	env := os.Getenv("ENVIRONMENT")

	if env == "production" {
		zapCfg := zap.NewProductionConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		logger, _ := zapCfg.Build()
		return logger
	}

	logger, _ := zap.NewDevelopment()
	return logger
}

func initDatabase(cfg *config.Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Database,
		cfg.Database.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.Database.MaxConns
	poolConfig.MinConns = cfg.Database.MinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

func initSecretManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.SecretManager, error) {
	switch cfg.Secrets.Backend {
	case "aws":
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.Secrets.AWSRegion)
		awsCfg.Endpoint = cfg.Secrets.AWSEndpoint
		return secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)
	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.Secrets.VaultAddress)
		vaultCfg.Token = cfg.Secrets.VaultToken
		return secrets.NewVaultAdapter(ctx, vaultCfg, logger)
	case "env":
		return secrets.NewEnvSecretManager(cfg.Secrets.EnvPrefix, logger), nil
	default:
		return nil, fmt.Errorf("unsupported secrets backend: %s", cfg.Secrets.Backend)
	}
}

func initDependencies(dbPool *pgxpool.Pool, cfg *config.Config, zapLogger *zap.Logger) (*Dependencies, error) {
	db := postgres.NewDBExecutor(dbPool)
	logger := logging.NewZapLogger(zapLogger)

	commissionRepo := postgres.NewCommissionRepository(db)
	payoutRepo := postgres.NewPayoutRepository(db)
	invoiceRepo := postgres.NewInvoiceRepository(db)
	partnerRepo := postgres.NewPartnerRepository(db)
	programRepo := postgres.NewProgramRepository(db)
	rewardRepo := postgres.NewRewardRepository(db)
	enrollmentRepo := postgres.NewEnrollmentRepository(db)
	fraudRepo := postgres.NewFraudRepository(db)

	secretManager, err := initSecretManager(context.Background(), cfg, zapLogger)
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.Rails.Timeout}

	bankGateway := rails.NewBankGateway(
		rails.DefaultBankGatewayConfig(cfg.Rails.BankBaseURL),
		httpClient, secretManager, logger,
	)
	stablecoinGateway := rails.NewStablecoinGateway(
		rails.DefaultStablecoinGatewayConfig(cfg.Rails.StablecoinBaseURL),
		httpClient, secretManager, logger,
	)
	fundingDispatcher := rails.NewFundingDispatcher(
		rails.DefaultFundingDispatcherConfig(cfg.Rails.BillingBaseURL),
		httpClient, secretManager, logger,
	)

	notifier := notify.NewLogNotifier(logger)
	fraudGate := fraudhold.NewService(fraudRepo, logger)

	ledgerSvc := ledger.NewService(db, commissionRepo, enrollmentRepo, rewardRepo, logger)
	aggregator := payout.NewService(
		db, commissionRepo, payoutRepo, partnerRepo, programRepo,
		fraudGate, notifier, logger, cfg.Settlement.PayoutFeeRate,
	)
	retryController := invoice.NewRetryController(
		db, invoiceRepo, fundingDispatcher, cfg.Invoice.RetryableTypes, logger,
	)
	methodResolver := payoutmethod.NewService(
		bankGateway, stablecoinGateway, partnerRepo, db, logger,
	)

	sweeper := sweep.NewSweeper(
		programRepo, partnerRepo, invoiceRepo,
		aggregator, retryController, methodResolver,
		logger, cfg.Settlement.SweepInterval, cfg.Settlement.SweepBatchSize,
	)

	return &Dependencies{
		ledger:          ledgerSvc,
		aggregator:      aggregator,
		retryController: retryController,
		methodResolver:  methodResolver,
		fraudGate:       fraudGate,
		sweeper:         sweeper,
	}, nil
}
