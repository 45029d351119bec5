package product

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	v10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Input is the locale-facing form exactly as submitted. Values come from a
// JSON body (any JSON type) or a form body (strings).
type Input struct {
	Nombre any `json:"nombre"`
	Precio any `json:"precio"`
}

// Draft is a validated product ready to be translated for the upstream API.
type Draft struct {
	Nombre string
	Precio decimal.Decimal
}

// ValidationError carries one message per violated field.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

// Messages returns every message, nombre first, then precio.
func (e *ValidationError) Messages() []string {
	var out []string
	for _, field := range []string{FieldNombre, FieldPrecio} {
		out = append(out, e.Fields[field]...)
	}
	return out
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// AsValidationError unwraps err into a *ValidationError when possible.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

var minPrice = decimal.RequireFromString("0.01")

var validate = v10.New()

var rules = map[string]string{
	FieldNombre: "required,max=255",
	FieldPrecio: "required",
}

var messages = map[string]map[string]string{
	FieldNombre: {
		"required": MsgNombreRequired,
		"string":   MsgNombreString,
		"max":      MsgNombreMax,
	},
	FieldPrecio: {
		"required": MsgPrecioRequired,
		"numeric":  MsgPrecioNumeric,
		"min":      MsgPrecioMin,
	},
}

// Validate checks in and returns the Draft it describes. Each field reports at
// most its first failing rule, in order required, type, range.
func Validate(in Input) (Draft, error) {
	verr := &ValidationError{}
	var draft Draft

	nombre, isText := text(in.Nombre)
	switch {
	case !isText:
		verr.add(FieldNombre, messages[FieldNombre]["string"])
	default:
		if tag := check(nombre, rules[FieldNombre]); tag != "" {
			verr.add(FieldNombre, messages[FieldNombre][tag])
		} else {
			draft.Nombre = nombre
		}
	}

	// decimal decides what counts as a number: exponents and bare leading or
	// trailing dots are accepted.
	precio := numberText(in.Precio)
	if tag := check(precio, rules[FieldPrecio]); tag != "" {
		verr.add(FieldPrecio, messages[FieldPrecio][tag])
	} else {
		d, err := decimal.NewFromString(precio)
		switch {
		case err != nil:
			verr.add(FieldPrecio, messages[FieldPrecio]["numeric"])
		case d.LessThan(minPrice):
			verr.add(FieldPrecio, messages[FieldPrecio]["min"])
		default:
			draft.Precio = d
		}
	}

	if len(verr.Fields) > 0 {
		return Draft{}, verr
	}
	return draft, nil
}

// check runs the validator tags against v and returns the first failing tag.
func check(v string, tags string) string {
	err := validate.Var(v, tags)
	if err == nil {
		return ""
	}
	var fieldErrs v10.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fieldErrs[0].Tag()
	}
	return strings.SplitN(tags, ",", 2)[0]
}

// text returns the trimmed string value and whether v is textual. A missing
// value counts as empty text so that the required rule reports it.
func text(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return strings.TrimSpace(t), true
	default:
		return "", false
	}
}

// numberText renders v the way the numeric rule should see it.
func numberText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(t)
	}
}
