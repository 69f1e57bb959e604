package parsers

import (
	"errors"
	"fmt"

	"github.com/username/lavametrics/backend/src/parsers/imt"
)

// FileType identifies what kind of export an uploaded file is.
type FileType string

const (
	FileTypeSales     FileType = "sales"
	FileTypeCustomers FileType = "customers"
)

var ErrUnknownFileType = errors.New("unrecognized file type")

// DetectFileType classifies an uploaded export by its header line.
func DetectFileType(data []byte) (FileType, error) {
	switch imt.DetectFileType(data) {
	case imt.FileTypeSales:
		return FileTypeSales, nil
	case imt.FileTypeCustomers:
		return FileTypeCustomers, nil
	default:
		return "", fmt.Errorf("%w: header matches neither a sales nor a customer export", ErrUnknownFileType)
	}
}

func GetSalesParser(source string) (SalesParser, error) {
	switch source {
	case "imt":
		return imt.NewSalesParser(), nil
	default:
		return nil, fmt.Errorf("no sales parser available for source: %s", source)
	}
}

func GetCustomerParser(source string) (CustomerParser, error) {
	switch source {
	case "imt":
		return imt.NewCustomerParser(), nil
	default:
		return nil, fmt.Errorf("no customer parser available for source: %s", source)
	}
}
