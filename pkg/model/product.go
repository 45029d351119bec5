package model

import "encoding/json"

// Product is the locale-facing shape handed to the presentation layer.
type Product struct {
	ID     int         `json:"id"`
	Nombre string      `json:"nombre"`
	Precio json.Number `json:"precio"`
}

// UpstreamProduct is a record as returned by GET on the upstream product API.
// Price keeps the upstream literal so translation stays lossless.
type UpstreamProduct struct {
	ID    int         `json:"id"`
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
}

// CreatePayload is the body of POST {baseUrl}.
type CreatePayload struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// UpdatePayload is the body of PUT/PATCH {baseUrl}/{id}.
type UpdatePayload struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}
