package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polymarket-agent/internal/consensus"
	"github.com/mselser95/polymarket-agent/internal/cycle"
	"github.com/mselser95/polymarket-agent/internal/exchange"
	"github.com/mselser95/polymarket-agent/internal/execution"
	"github.com/mselser95/polymarket-agent/internal/feed"
	"github.com/mselser95/polymarket-agent/internal/ledger"
	"github.com/mselser95/polymarket-agent/internal/screener"
	"github.com/mselser95/polymarket-agent/internal/sizing"
	"github.com/mselser95/polymarket-agent/pkg/cache"
	"github.com/mselser95/polymarket-agent/pkg/config"
	"github.com/mselser95/polymarket-agent/pkg/healthprobe"
	"github.com/mselser95/polymarket-agent/pkg/httpserver"
	"github.com/mselser95/polymarket-agent/pkg/logbuffer"
	"github.com/mselser95/polymarket-agent/pkg/storage"
	"github.com/mselser95/polymarket-agent/pkg/wallet"
)

const credsDeriveTimeout = 30 * time.Second

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger, logs *logbuffer.Buffer, opts *Options) (*App, error) {
	if opts == nil {
		opts = &Options{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	identity, err := wallet.ResolveIdentity(&wallet.IdentityConfig{
		PrivateKey:    cfg.PrivateKey,
		SignerAddress: cfg.SignerAddress,
		FunderAddress: cfg.FunderAddress,
		Override:      cfg.SignatureTypeOverride,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("resolve wallet identity: %w", err)
	}

	exchangeClient, err := setupExchange(ctx, cfg, logger, identity)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup exchange: %w", err)
	}

	store, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	marketCache, err := setupCache(logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup cache: %w", err)
	}

	walletClient, err := wallet.NewClient(cfg.PolygonRPCURL, cfg.PolymarketDataURL, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup wallet client: %w", err)
	}

	agentLedger, err := ledger.New(ctx, &ledger.Config{
		Store:  store,
		Logger: logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup ledger: %w", err)
	}

	reconciler, err := ledger.NewReconciler(&ledger.ReconcilerConfig{
		Ledger:    agentLedger,
		Orders:    exchangeClient,
		Positions: walletClient,
		Address:   identity.FunderAddress.Hex(),
		Interval:  cfg.ReconcileInterval,
		Logger:    logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup reconciler: %w", err)
	}

	submitter, err := execution.New(&execution.Config{
		Exchange: exchangeClient,
		Logger:   logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup submitter: %w", err)
	}

	coordinator, err := setupCoordinator(cfg, logger, marketCache, walletClient, identity, submitter, agentLedger, store, healthChecker)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup coordinator: %w", err)
	}

	tracker, err := wallet.New(&wallet.Config{
		RPCEndpoint:  cfg.PolygonRPCURL,
		DataAPIURL:   cfg.PolymarketDataURL,
		Address:      identity.FunderAddress,
		PollInterval: cfg.ReconcileInterval,
		Logger:       logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup wallet tracker: %w", err)
	}

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Cycles:        coordinator,
		Ledger:        agentLedger,
		Submitter:     submitter,
		Logs:          logs,
	})

	return &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		store:         store,
		ledger:        agentLedger,
		reconciler:    reconciler,
		coordinator:   coordinator,
		submitter:     submitter,
		tracker:       tracker,
		identity:      identity,
		opts:          opts,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// setupExchange creates the CLOB client, using configured API credentials
// when present and deriving them from the wallet key otherwise.
func setupExchange(ctx context.Context, cfg *config.Config, logger *zap.Logger, identity *wallet.Identity) (*exchange.Client, error) {
	var creds *exchange.APICredentials
	if cfg.APIKey != "" {
		creds = &exchange.APICredentials{
			Key:        cfg.APIKey,
			Secret:     cfg.Secret,
			Passphrase: cfg.Passphrase,
		}
	}

	client, err := exchange.NewClient(&exchange.ClientConfig{
		BaseURL:     cfg.PolymarketClobURL,
		Identity:    identity,
		Credentials: creds,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create clob client: %w", err)
	}

	if creds == nil {
		deriveCtx, deriveCancel := context.WithTimeout(ctx, credsDeriveTimeout)
		defer deriveCancel()

		err = client.RederiveCredentials(deriveCtx)
		if err != nil {
			return nil, fmt.Errorf("derive api credentials: %w", err)
		}

		logger.Info("api-credentials-derived",
			zap.String("signer", identity.SignerAddress.Hex()))
	}

	return client, nil
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	if cfg.StorageMode == "postgres" {
		pgStore, err := storage.NewPostgresStore(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres store: %w", err)
		}

		err = pgStore.EnsureSchema(context.Background())
		if err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}

		return pgStore, nil
	}

	return storage.NewMemoryStore(logger), nil
}

func setupCache(logger *zap.Logger) (cache.Cache, error) {
	return cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000, // 10x expected max items (1000 tokens)
		MaxCost:     1000,  // Maximum 1000 items in cache
		BufferItems: 64,    // Buffer size for Get operations
		Logger:      logger,
	})
}

func setupCoordinator(
	cfg *config.Config,
	logger *zap.Logger,
	marketCache cache.Cache,
	walletClient *wallet.Client,
	identity *wallet.Identity,
	submitter *execution.Submitter,
	agentLedger *ledger.Ledger,
	store storage.Store,
	healthChecker *healthprobe.HealthChecker,
) (*cycle.Coordinator, error) {
	gamma := feed.NewClient(cfg.PolymarketGammaURL, logger)
	metadata := feed.NewCachedMetadataClient(feed.NewMetadataClient(cfg.PolymarketClobURL), marketCache)

	marketScreener, err := screener.New(&screener.Config{
		MinOdds:      cfg.MinOdds,
		MaxOdds:      cfg.MaxOdds,
		MinLiquidity: cfg.MinLiquidity,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create screener: %w", err)
	}

	providers := make([]consensus.OpinionProvider, 0, len(cfg.OpinionModels))
	for _, model := range cfg.OpinionModels {
		provider, provErr := consensus.NewChatProvider(&consensus.ChatProviderConfig{
			Model:   model,
			APIURL:  cfg.OpinionAPIURL,
			APIKey:  cfg.OpinionAPIKey,
			Timeout: cfg.OpinionTimeout,
			Logger:  logger,
		})
		if provErr != nil {
			return nil, fmt.Errorf("create opinion provider %s: %w", model, provErr)
		}
		providers = append(providers, provider)
	}

	analyzer, err := consensus.New(&consensus.Config{
		Providers:    providers,
		Quorum:       cfg.ConsensusQuorum,
		MinAgreement: cfg.MinAgreement,
		Timeout:      cfg.OpinionTimeout,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create analyzer: %w", err)
	}

	sizer, err := sizing.New(&sizing.Config{
		MaxBetFraction: cfg.MaxBetFraction,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create sizer: %w", err)
	}

	var bankroll cycle.BankrollSource
	if cfg.Bankroll > 0 {
		bankroll = cycle.FixedBankroll(cfg.Bankroll)
	} else {
		bankroll = cycle.NewWalletBankroll(walletClient, identity.FunderAddress)
	}

	return cycle.New(&cycle.Config{
		Markets:     gamma,
		Metadata:    metadata,
		Screener:    marketScreener,
		Analyzer:    analyzer,
		Sizer:       sizer,
		Submitter:   submitter,
		Recorder:    agentLedger,
		Bankroll:    bankroll,
		Store:       store,
		MarketLimit: cfg.MarketLimit,
		Interval:    cfg.CycleInterval,
		Deadline:    cfg.CycleDeadline,
		OnHalt:      healthChecker.SetHalted,
		Logger:      logger,
	})
}
