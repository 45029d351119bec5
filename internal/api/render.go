package api

import "github.com/gofiber/fiber/v2"

// Renderer hands a page component and its props to the presentation layer.
type Renderer interface {
	Render(c *fiber.Ctx, component string, props fiber.Map) error
}

// Page is the page object consumed by the frontend.
type Page struct {
	Component string    `json:"component"`
	Props     fiber.Map `json:"props"`
	URL       string    `json:"url"`
	Version   string    `json:"version"`
}

// PageRenderer renders pages as Inertia-style JSON page objects.
type PageRenderer struct {
	version string
}

// NewPageRenderer creates a PageRenderer stamping pages with the asset version.
func NewPageRenderer(version string) *PageRenderer {
	return &PageRenderer{version: version}
}

// Render writes the page object.
func (r *PageRenderer) Render(c *fiber.Ctx, component string, props fiber.Map) error {
	c.Vary("X-Inertia")
	if c.Get("X-Inertia") != "" {
		c.Set("X-Inertia", "true")
	}
	return c.Status(fiber.StatusOK).JSON(Page{
		Component: component,
		Props:     props,
		URL:       c.OriginalURL(),
		Version:   r.version,
	})
}
