package services

import (
	"context"
	"errors"
	"strings"

	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/backend"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/caching/interfaces"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
)

// ErrNoLogo means the vendor template has no logo configured.
var ErrNoLogo = errors.New("no logo configured")

// LogoService serves normalized vendor logos.
type LogoService struct {
	assets    AssetBackend
	cache     interfaces.LogoCache
	processor *media.LogoProcessor
	logger    *logging.ChanneledLogger
}

func NewLogoService(assets AssetBackend, cache interfaces.LogoCache, processor *media.LogoProcessor, logger *logging.ChanneledLogger) *LogoService {
	return &LogoService{assets: assets, cache: cache, processor: processor, logger: logger}
}

// SourceURL resolves a template logo value to an absolute URL.
func (s *LogoService) SourceURL(logo string) string {
	logo = strings.TrimSpace(logo)
	if logo == "" {
		return ""
	}
	return s.assets.AssetURL(logo)
}

// Logo returns WebP bytes for the vendor's logo. Vector logos yield
// media.ErrUnsupportedLogo and logos hosted elsewhere yield
// backend.ErrForeignAsset; callers should link the source directly.
func (s *LogoService) Logo(ctx context.Context, vendorID, logo string) ([]byte, error) {
	source := s.SourceURL(logo)
	if source == "" {
		return nil, ErrNoLogo
	}
	key := vendorID + "|" + source
	if img, ok := s.cache.GetLogo(key); ok {
		return img, nil
	}

	raw, err := s.assets.FetchAsset(ctx, source)
	if errors.Is(err, backend.ErrForeignAsset) {
		s.logger.Cache().Debug("Logo is off the asset host, linking it directly", "vendorId", vendorID, "source", source)
		return nil, err
	}
	if err != nil {
		s.logger.Cache().Warn("Logo fetch failed", "vendorId", vendorID, "source", source, "error", err)
		return nil, err
	}
	img, err := s.processor.Normalize(source, raw)
	if err != nil {
		if !errors.Is(err, media.ErrUnsupportedLogo) {
			s.logger.Cache().Warn("Logo normalization failed", "vendorId", vendorID, "error", err)
		}
		return nil, err
	}
	s.cache.SetLogo(key, img)
	s.logger.Cache().Debug("Logo cached", "vendorId", vendorID, "bytes", len(img))
	return img, nil
}
