package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/Checker-Finance/product-proxy/internal/product"
)

// parseProductInput reads nombre/precio from a JSON or form body. It also
// returns the raw submitted fields for logging.
func parseProductInput(c *fiber.Ctx) (product.Input, map[string]any, error) {
	if c.Is("json") {
		raw := map[string]any{}
		dec := json.NewDecoder(bytes.NewReader(c.Body()))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return product.Input{}, nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		return product.Input{
			Nombre: raw[product.FieldNombre],
			Precio: raw[product.FieldPrecio],
		}, raw, nil
	}

	nombre := utils.CopyString(c.FormValue(product.FieldNombre))
	precio := utils.CopyString(c.FormValue(product.FieldPrecio))
	raw := map[string]any{
		product.FieldNombre: nombre,
		product.FieldPrecio: precio,
	}
	return product.Input{Nombre: nombre, Precio: precio}, raw, nil
}

// wantsJSON reports whether the client asked for JSON only, outside Inertia.
func wantsJSON(c *fiber.Ctx) bool {
	if c.Get("X-Inertia") != "" {
		return false
	}
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}
