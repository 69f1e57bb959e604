package parsers

import (
	"io"

	"github.com/username/lavametrics/backend/src/models"
)

// SalesParser reads a POS sales export into raw rows. Field values are kept
// as strings exactly as exported; all conversion happens in the normalizer.
type SalesParser interface {
	Parse(file io.Reader) ([]models.RawSaleRow, error)
}

// CustomerParser reads a POS customer registry export into raw rows.
type CustomerParser interface {
	Parse(file io.Reader) ([]models.RawCustomerRow, error)
}
