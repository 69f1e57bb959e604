package imt

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/username/lavametrics/backend/src/logger"
	"github.com/username/lavametrics/backend/src/models"
)

// File types recognized by DetectFileType.
const (
	FileTypeSales     = "sales"
	FileTypeCustomers = "customers"
	FileTypeUnknown   = "unknown"
)

// The POS occasionally wraps the whole export payload in a length-prefixed
// envelope ("IMTString(1234):...") and may prepend a UTF-8 BOM.
var envelopePrefixRe = regexp.MustCompile(`^IMTString\(\d+\):\s*`)

// CleanPayload strips the BOM and the vendor envelope from the start of the
// export so the first line is the real CSV header.
func CleanPayload(data []byte) []byte {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	data = envelopePrefixRe.ReplaceAll(data, nil)
	return bytes.TrimSpace(data)
}

// DetectDelimiter picks the field separator by counting candidates in the
// header line. The POS exports with semicolons, but hand-edited files show
// up with commas often enough to matter.
func DetectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

// DetectFileType classifies an export by keywords in its header line.
// Sales markers are checked first.
func DetectFileType(data []byte) string {
	data = CleanPayload(data)
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	header := strings.ToLower(string(line))

	if strings.Contains(header, "data_hora") || strings.Contains(header, "maquinas") {
		return FileTypeSales
	}
	if strings.Contains(header, "documento") || strings.Contains(header, "saldo_carteira") {
		return FileTypeCustomers
	}
	return FileTypeUnknown
}

// headerIndex maps lowercased column names to their positions.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

func fieldAt(record []string, idx map[string]int, column string) string {
	i, ok := idx[column]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func newReader(data []byte) *csv.Reader {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = DetectDelimiter(data)
	reader.FieldsPerRecord = -1
	return reader
}

type SalesParser struct{}

func NewSalesParser() *SalesParser {
	return &SalesParser{}
}

// Parse reads a sales export into raw rows. Unreadable lines are skipped and
// logged; conversion and validation of the values happens downstream.
func (p *SalesParser) Parse(file io.Reader) ([]models.RawSaleRow, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read sales export: %w", err)
	}
	data = CleanPayload(data)

	reader := newReader(data)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	idx := headerIndex(header)

	var rows []models.RawSaleRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			logger.L.Warn("Skipping unreadable sales CSV line", "line", line, "error", err)
			continue
		}
		rows = append(rows, models.RawSaleRow{
			DateTime:      fieldAt(record, idx, "data_hora"),
			GrossAmount:   fieldAt(record, idx, "valor_venda"),
			PaidAmount:    fieldAt(record, idx, "valor_pago"),
			PaymentMethod: fieldAt(record, idx, "meio_de_pagamento"),
			Store:         fieldAt(record, idx, "loja"),
			CustomerName:  fieldAt(record, idx, "nome_cliente"),
			CustomerDoc:   fieldAt(record, idx, "doc_cliente"),
			Phone:         fieldAt(record, idx, "telefone"),
			Machines:      fieldAt(record, idx, "maquinas"),
			UsedCoupon:    fieldAt(record, idx, "usou_cupom"),
			CouponCode:    fieldAt(record, idx, "codigo_cupom"),
		})
	}
	return rows, nil
}

type CustomerParser struct{}

func NewCustomerParser() *CustomerParser {
	return &CustomerParser{}
}

// Parse reads a customer registry export into raw rows.
func (p *CustomerParser) Parse(file io.Reader) ([]models.RawCustomerRow, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read customer export: %w", err)
	}
	data = CleanPayload(data)

	reader := newReader(data)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	idx := headerIndex(header)

	var rows []models.RawCustomerRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			logger.L.Warn("Skipping unreadable customer CSV line", "line", line, "error", err)
			continue
		}
		rows = append(rows, models.RawCustomerRow{
			Document:      fieldAt(record, idx, "documento"),
			Name:          fieldAt(record, idx, "nome"),
			Phone:         fieldAt(record, idx, "telefone"),
			Email:         fieldAt(record, idx, "email"),
			RegisteredAt:  fieldAt(record, idx, "data_cadastro"),
			WalletBalance: fieldAt(record, idx, "saldo_carteira"),
			LastPurchase:  fieldAt(record, idx, "data_ultima_compra"),
			PurchaseCount: fieldAt(record, idx, "quantidade_compras"),
			TotalSpent:    fieldAt(record, idx, "total_compras"),
		})
	}
	return rows, nil
}
