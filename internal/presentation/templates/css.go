package templates

import (
	"fmt"
	"html/template"
	"regexp"

	doc "github.com/AtRiskMedia/storefront-go/internal/domain/template"
)

var cssColor = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]{3,20}|rgba?\([0-9., %]+\))$`)

// ThemeStyle builds the root CSS custom properties for a theme. Colors that
// are not plain CSS colors fall back to the defaults.
func ThemeStyle(theme doc.Theme) template.CSS {
	fallback := doc.Defaults().Theme()
	templateColor := theme.TemplateColor
	if !cssColor.MatchString(templateColor) {
		templateColor = fallback.TemplateColor
	}
	bannerColor := theme.BannerColor
	if !cssColor.MatchString(bannerColor) {
		bannerColor = fallback.BannerColor
	}
	scale := theme.FontScale
	if scale <= 0 || scale > 4 {
		scale = 1
	}
	return template.CSS(fmt.Sprintf("--template-color: %s; --banner-color: %s; --font-scale: %.2f;", templateColor, bannerColor, scale))
}

// SafeColor returns c when it is a plain CSS color, else fallback.
func SafeColor(c, fallback string) template.CSS {
	if cssColor.MatchString(c) {
		return template.CSS(c)
	}
	return template.CSS(fallback)
}
