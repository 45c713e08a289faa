// Package query provides support for query paging.
package query

import (
	"encoding/json"

	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
)

// Pagination describes where a page of items sits in the full result.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

// Result is the data model used when returning a query result.
type Result[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// NewResult constructs a result value to return query results.
func NewResult[T any](items []T, total int, pg page.Page) Result[T] {
	if items == nil {
		items = []T{}
	}

	return Result[T]{
		Items: items,
		Pagination: Pagination{
			Total: total,
			Page:  pg.Number(),
			Limit: pg.RowsPerPage(),
			Pages: pg.Pages(total),
		},
	}
}

// Encode implements the encoder interface.
func (r Result[T]) Encode() ([]byte, string, error) {
	body := struct {
		Success bool      `json:"success"`
		Message string    `json:"message"`
		Data    Result[T] `json:"data"`
	}{
		Success: true,
		Message: "OK",
		Data:    r,
	}

	data, err := json.Marshal(body)
	return data, "application/json", err
}
