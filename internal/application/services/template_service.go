// Package services provides application-level services that orchestrate
// domain logic and coordinate the backend client, caches and storage.
package services

import (
	"context"

	"github.com/AtRiskMedia/storefront-go/internal/domain/template"
	"github.com/AtRiskMedia/storefront-go/internal/infrastructure/observability/logging"
)

// TemplateService resolves a vendor's template for a page, falling back to
// the default document when the backend has nothing usable.
type TemplateService struct {
	backend TemplateBackend
	logger  *logging.ChanneledLogger
}

func NewTemplateService(backend TemplateBackend, logger *logging.ChanneledLogger) *TemplateService {
	return &TemplateService{backend: backend, logger: logger}
}

// Load returns the resolved template and whether it came from the backend.
func (s *TemplateService) Load(ctx context.Context, vendorID string, page template.PageType) (*template.Resolution, bool) {
	res, err := s.backend.FetchTemplate(ctx, vendorID, page)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Template().Warn("Template unavailable, using defaults", "vendorId", vendorID, "page", page, "error", err)
		}
		return &template.Resolution{Template: template.Defaults(), Mode: template.MergeLegacy}, false
	}
	return res, true
}
