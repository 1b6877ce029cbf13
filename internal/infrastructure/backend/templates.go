package backend

import (
	"context"
	"errors"
	"net/url"

	"github.com/AtRiskMedia/storefront-go/internal/domain/template"
)

type templateCandidate struct {
	path  string
	query map[string]string
}

func templateCandidates(vendorID string, page template.PageType) []templateCandidate {
	id := url.PathEscape(vendorID)
	return []templateCandidate{
		{path: "/templates/" + id + "/" + url.PathEscape(string(page))},
		{path: "/templates/" + id, query: map[string]string{"page": string(page)}},
		{path: "/vendors/" + id + "/template"},
	}
}

// FetchTemplate tries each candidate URL in order and resolves the first
// usable payload. A failing candidate never stops the rest.
func (c *Client) FetchTemplate(ctx context.Context, vendorID string, page template.PageType) (*template.Resolution, error) {
	for _, candidate := range templateCandidates(vendorID, page) {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		body, err := c.get(ctx, candidate.path, candidate.query, "")
		if err != nil {
			c.logger.Template().Debug("Template candidate failed", "vendorId", vendorID, "path", candidate.path, "error", err)
			continue
		}
		res, envelope, err := template.ResolveBytes(body)
		if err != nil {
			c.logger.Template().Debug("Template candidate had no payload", "vendorId", vendorID, "path", candidate.path)
			continue
		}
		c.logger.Template().Debug("Template resolved",
			"vendorId", vendorID,
			"page", page,
			"path", candidate.path,
			"envelope", envelope.String(),
			"mergeMode", res.Mode)
		return res, nil
	}
	return nil, errors.Join(template.ErrNoPayload, errors.New("all template candidates failed"))
}
