package api

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/Checker-Finance/product-proxy/internal/metrics"
	"github.com/Checker-Finance/product-proxy/internal/product"
	"github.com/Checker-Finance/product-proxy/internal/upstream"
	"github.com/Checker-Finance/product-proxy/pkg/model"
)

const (
	homePath     = "/"
	productsPath = "/products"
)

// ProductService defines the product operations used by the handler.
type ProductService interface {
	List(ctx context.Context) (iter.Seq[model.Product], error)
	Create(ctx context.Context, d product.Draft) error
	Update(ctx context.Context, id string, d product.Draft) error
	Delete(ctx context.Context, id string) error
}

// ProductHandler serves the product pages and form actions.
type ProductHandler struct {
	logger   *zap.Logger
	service  ProductService
	flash    FlashStore
	renderer Renderer
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(logger *zap.Logger, service ProductService, flash FlashStore, renderer Renderer) *ProductHandler {
	return &ProductHandler{
		logger:   logger,
		service:  service,
		flash:    flash,
		renderer: renderer,
	}
}

// Home renders the landing page; it is also where "back" lands without a Referer.
func (h *ProductHandler) Home(c *fiber.Ctx) error {
	return h.render(c, "Welcome", fiber.Map{})
}

// Index renders the product list.
func (h *ProductHandler) Index(c *fiber.Ctx) error {
	products, err := h.service.List(c.UserContext())
	if err != nil {
		h.logger.Warn("products.index.failed", zap.Error(err))
		if refersTo(c, productsPath) {
			return h.redirect(c, homePath, errorFlash(product.MsgListFailed))
		}
		return h.back(c, errorFlash(product.MsgListFailed))
	}

	list := []model.Product{}
	for p := range products {
		list = append(list, p)
	}
	return h.render(c, "Products/index", fiber.Map{"products": list})
}

// Store validates a new product and forwards it upstream.
func (h *ProductHandler) Store(c *fiber.Ctx) error {
	in, _, err := parseProductInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	draft, err := product.Validate(in)
	if err != nil {
		return h.invalid(c, "create", err)
	}

	if err := h.service.Create(c.UserContext(), draft); err != nil {
		h.logger.Error("products.create.failed", zap.Error(err))
		return h.back(c, errorFlash(product.MsgCreateFailed))
	}
	return h.toList(c, product.MsgCreated)
}

// Update validates the new state of a product and forwards it upstream.
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id := utils.CopyString(c.Params("id"))
	in, raw, err := parseProductInput(c)

	h.logger.Info("products.update.received",
		zap.String("id", id),
		zap.Any("input", raw))

	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	draft, err := product.Validate(in)
	if err != nil {
		return h.invalid(c, "update", err)
	}

	if err := h.service.Update(c.UserContext(), id, draft); err != nil {
		status := upstream.StatusOf(err)
		h.logger.Error("products.update.failed",
			zap.String("id", id),
			zap.Int("status", status),
			zap.Error(err))
		return h.back(c, errorFlash(fmt.Sprintf(product.MsgUpdateFailed, status)))
	}
	return h.toList(c, product.MsgUpdated)
}

// Destroy deletes a product upstream.
func (h *ProductHandler) Destroy(c *fiber.Ctx) error {
	id := utils.CopyString(c.Params("id"))

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		h.logger.Error("products.delete.failed",
			zap.String("id", id),
			zap.Error(err))
		return h.back(c, errorFlash(product.MsgDeleteFailed))
	}
	return h.toList(c, product.MsgDeleted)
}

// invalid answers a validation failure: 422 JSON for API clients, otherwise
// back to the form with the field errors.
func (h *ProductHandler) invalid(c *fiber.Ctx, operation string, err error) error {
	metrics.IncValidationFailure(operation)

	ve, ok := product.AsValidationError(err)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": ve.Messages()[0],
			"errors":  ve.Fields,
		})
	}
	return h.back(c, Flash{Errors: ve.Fields})
}

// render attaches the pending flash as shared props and renders component.
func (h *ProductHandler) render(c *fiber.Ctx, component string, props fiber.Map) error {
	f, err := h.flash.Pull(c)
	if err != nil {
		h.logger.Warn("flash.pull_failed", zap.Error(err))
	}

	errs := f.Errors
	if errs == nil {
		errs = map[string][]string{}
	}
	props["flash"] = fiber.Map{"success": f.Success}
	props["errors"] = errs

	return h.renderer.Render(c, component, props)
}

// back redirects to the previous page with f.
func (h *ProductHandler) back(c *fiber.Ctx, f Flash) error {
	if err := h.flash.Put(c, f); err != nil {
		h.logger.Warn("flash.put_failed", zap.Error(err))
	}
	return c.RedirectBack(homePath, fiber.StatusSeeOther)
}

// toList redirects to the product list with a success message.
func (h *ProductHandler) toList(c *fiber.Ctx, msg string) error {
	return h.redirect(c, productsPath, successFlash(msg))
}

func (h *ProductHandler) redirect(c *fiber.Ctx, location string, f Flash) error {
	if err := h.flash.Put(c, f); err != nil {
		h.logger.Warn("flash.put_failed", zap.Error(err))
	}
	return c.Redirect(location, fiber.StatusSeeOther)
}

// refersTo reports whether the Referer header points at path.
func refersTo(c *fiber.Ctx, path string) bool {
	ref := c.Get(fiber.HeaderReferer)
	if ref == "" {
		return false
	}
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return strings.TrimRight(u.Path, "/") == path
}
