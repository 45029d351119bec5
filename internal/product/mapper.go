package product

import (
	"iter"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Checker-Finance/product-proxy/pkg/model"
)

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ToLocale lazily renames upstream records to the locale-facing shape,
// preserving id and order.
func ToLocale(records []model.UpstreamProduct) iter.Seq[model.Product] {
	return func(yield func(model.Product) bool) {
		for _, r := range records {
			if !yield(fromUpstream(r)) {
				return
			}
		}
	}
}

func fromUpstream(r model.UpstreamProduct) model.Product {
	return model.Product{
		ID:     r.ID,
		Nombre: r.Name,
		Precio: r.Price,
	}
}

// CreatePayload translates d into the POST body.
func (d Draft) CreatePayload() model.CreatePayload {
	price, _ := d.Precio.Float64()
	return model.CreatePayload{
		Name:  d.Nombre,
		Price: price,
	}
}

// UpdatePayload translates d into the PUT/PATCH body for the product id.
func (d Draft) UpdatePayload(id string) model.UpdatePayload {
	price, _ := d.Precio.Float64()
	return model.UpdatePayload{
		ID:    coerceID(id),
		Name:  d.Nombre,
		Price: price,
	}
}

// coerceID converts a path id to an integer from its leading numeric part,
// truncated toward zero: "12abc" is 12, "7.9" is 7, "abc" is 0.
func coerceID(id string) int {
	prefix := leadingNumber.FindString(strings.TrimLeft(id, " \t\n\r\v\f"))
	if prefix == "" {
		return 0
	}
	d, err := decimal.NewFromString(prefix)
	if err != nil {
		return 0
	}
	return int(d.IntPart())
}
