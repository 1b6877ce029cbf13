package template

// Section identifiers understood by the home page renderer.
const (
	SectionHero       = "hero"
	SectionCategories = "categories"
	SectionProducts   = "products"
	SectionAbout      = "about"
	SectionFAQ        = "faq"
	SectionContact    = "contact"
	SectionSocial     = "social"
)

// DefaultSectionOrder applies when a template carries no section order.
var DefaultSectionOrder = []string{
	SectionHero, SectionCategories, SectionProducts, SectionAbout, SectionContact,
}

func defaultTheme() Theme {
	return Theme{
		TemplateColor: "#111827",
		BannerColor:   "#f3f4f6",
		FontScale:     1,
	}
}

// Defaults returns a fresh copy of the fallback document.
func Defaults() Document {
	theme := defaultTheme()
	return Document{Components: map[string]any{
		KeyLogo: "",
		KeyHomePage: map[string]any{
			"hero_style":         "banner",
			"header_text":        "Welcome to our store",
			"header_description": "Discover products picked for you.",
			"button_header":      "Shop Now",
			"button_color":       "#111827",
			"button_text_color":  "#ffffff",
			"banner_image":       "",
			"products_heading":   "Featured Products",
			"categories_heading": "Shop by Category",
		},
		KeyAboutPage: map[string]any{
			"heading":     "About Us",
			"description": "We are a small team that cares about quality.",
			"image":       "",
		},
		KeyContactPage: map[string]any{
			"heading": "Contact Us",
			"email":   "",
			"phone":   "",
			"address": "",
			"faqs":    []any{},
		},
		KeySocialPage: map[string]any{
			"facebook":  "",
			"instagram": "",
			"twitter":   "",
			"youtube":   "",
		},
		KeyTheme: map[string]any{
			"templateColor": theme.TemplateColor,
			"bannerColor":   theme.BannerColor,
			"fontScale":     theme.FontScale,
		},
		KeyCustomPages: []any{},
	}}
}
