// Package container provides dependency injection for all singleton services
package container

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/AtRiskMedia/storefront-go/internal/application/services"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/backend"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/caching/manager"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/persistence/database"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/persistence/kv"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/sessions"
	"github.com/AtRiskMedia/storefront-go/internal/presentation/templates"
	"github.com/AtRiskMedia/storefront-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Storefront Services
	TemplateService   *services.TemplateService
	CatalogService    *services.CatalogService
	StorefrontService *services.StorefrontService
	LogoService       *services.LogoService

	// Shopper Services
	AuthService     *services.AuthService
	CommerceService *services.CommerceService

	// Live Services
	TrackingService *services.TrackingService
	PreviewService  *services.PreviewService

	// Infrastructure Dependencies
	Logger         *logging.ChanneledLogger
	PerfTracker    *performance.Tracker
	Backend        *backend.Client
	Storage        kv.Store
	Cookies        *sessions.Jar
	Sessions       *sessions.VendorStore
	CacheManager   *manager.Manager
	Renderer       *templates.Renderer
	PreviewHub     *messaging.PreviewHub
	SSEBroadcaster *messaging.SSEBroadcaster
	relayClient    *redis.Client
}

// NewLogger builds the channeled logger from the central config.
func NewLogger() (*logging.ChanneledLogger, error) {
	cfg := logging.DefaultLoggerConfig()
	cfg.DefaultLevel = logging.ParseLevel(config.LogLevel)
	cfg.JSONFormat = config.LogJSON
	cfg.OutputToFile = config.LogToFile
	cfg.LogDirectory = config.LogDirectory
	cfg.MaxSizeMB = config.LogMaxSizeMB
	cfg.MaxBackups = config.LogMaxBackups
	cfg.MaxAgeDays = config.LogMaxAgeDays
	for _, channel := range logging.AllChannels {
		if level, ok := config.ChannelLevel(string(channel)); ok {
			cfg.ChannelLevels[channel] = logging.ParseLevel(level)
		}
	}
	return logging.NewChanneledLogger(cfg)
}

// NewContainer creates and wires all singleton services
func NewContainer(ctx context.Context, logger *logging.ChanneledLogger) (*Container, error) {
	perfTracker := performance.NewTracker(nil)

	storage, err := kv.Open(ctx, kv.Options{
		Driver:   config.StorageDriver,
		DSN:      config.StorageDSN,
		RedisURL: config.RedisURL,
		Prefix:   config.StorageKeyPrefix,
		Pool: database.PoolConfig{
			MaxOpenConns:    config.DBMaxOpenConns,
			MaxIdleConns:    config.DBMaxIdleConns,
			ConnMaxLifetime: config.DBConnLifetime,
			ConnMaxIdleTime: config.DBConnIdleLimit,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	jar, err := sessions.NewJar(sessions.JarConfig{
		Secret:     config.SessionSecret,
		Secure:     config.CookieSecure,
		DurableTTL: config.VisitorCookieTTL,
	}, logger)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	renderer, err := templates.NewRenderer(logger)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("failed to parse storefront views: %w", err)
	}

	client := backend.NewClient(backend.Config{
		BaseURL:      config.BackendBaseURL,
		AssetBaseURL: config.BackendAssetBaseURL,
		VendorToken:  config.BackendVendorToken,
		Timeout:      config.BackendTimeout,
		RetryCount:   config.BackendRetryCount,
		AnalyticsURL: config.AnalyticsURL,
		GeoURL:       config.GeoLookupURL,
		GeoTimeout:   config.GeoLookupTimeout,
	}, logger)

	c := &Container{
		Logger:         logger,
		PerfTracker:    perfTracker,
		Backend:        client,
		Storage:        storage,
		Cookies:        jar,
		Sessions:       sessions.NewVendorStore(storage, logger),
		CacheManager:   manager.NewManager(config.CatalogCacheTTL, config.LogoCacheTTL, logger),
		Renderer:       renderer,
		PreviewHub:     messaging.NewPreviewHub(logger),
		SSEBroadcaster: messaging.NewSSEBroadcaster(logger),
	}

	var relay messaging.Relay
	if config.PreviewRedisRelay {
		opts, err := redis.ParseURL(config.RedisURL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("invalid REDIS_URL for preview relay: %w", err)
		}
		c.relayClient = redis.NewClient(opts)
		relay = messaging.NewRedisRelay(c.relayClient, config.StorageKeyPrefix, logger)
	}

	c.TemplateService = services.NewTemplateService(client, logger)
	c.CatalogService = services.NewCatalogService(client, c.CacheManager, logger)
	c.StorefrontService = services.NewStorefrontService(c.TemplateService, c.CatalogService, logger, perfTracker)
	c.LogoService = services.NewLogoService(client, c.CacheManager, media.NewLogoProcessor(config.LogoMaxHeight), logger)

	c.AuthService = services.NewAuthService(client, c.Sessions, logger)
	c.CommerceService = services.NewCommerceService(client, c.Sessions, logger)

	emitter := services.NewEmitter(client, config.AnalyticsQueueSize, config.AnalyticsRatePerSecond, logger)
	c.TrackingService = services.NewTrackingService(emitter, client, config.TrackingIdleTimeout, logger)
	c.PreviewService = services.NewPreviewService(
		c.StorefrontService,
		renderer,
		c.PreviewHub,
		c.SSEBroadcaster,
		relay,
		services.PreviewConfig{MaxSessions: config.PreviewMaxSessions, MailboxSize: config.PreviewMailboxSize},
		logger,
		perfTracker,
	)

	return c, nil
}

// Close releases storage and network clients.
func (c *Container) Close() error {
	var firstErr error
	if c.relayClient != nil {
		if err := c.relayClient.Close(); err != nil {
			firstErr = err
		}
	}
	if c.Backend != nil {
		c.Backend.Close()
	}
	if err := c.Storage.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
