package processors

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/username/lavametrics/backend/src/config"
	"github.com/username/lavametrics/backend/src/logger"
	"github.com/username/lavametrics/backend/src/models"
	"github.com/username/lavametrics/backend/src/security/validation"
	"github.com/username/lavametrics/backend/src/utils"
)

type recordNormalizerImpl struct {
	business config.BusinessConfig
}

// NewRecordNormalizer creates a normalizer bound to one site's business
// configuration. Every calendar field it derives resolves against the
// site's timezone, never the host's.
func NewRecordNormalizer(business config.BusinessConfig) RecordNormalizer {
	return &recordNormalizerImpl{business: business}
}

// NormalizeSales converts raw sales rows into canonical transactions. Rows
// with an unparseable date or amount are dropped with a reason; the batch
// itself never fails.
func (n *recordNormalizerImpl) NormalizeSales(rows []models.RawSaleRow) SalesNormalizeResult {
	var result SalesNormalizeResult
	loc := n.business.Location

	for i, row := range rows {
		line := i + 2 // the header occupies line 1

		ts, err := ParseBRDateTime(row.DateTime, loc)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{Line: line, Reason: fmt.Sprintf("invalid date: %v", err)})
			continue
		}
		gross, err := ParseBRNumber(row.GrossAmount)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{Line: line, Reason: fmt.Sprintf("invalid gross amount: %v", err)})
			continue
		}
		paid, err := ParseBRNumber(row.PaidAmount)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{Line: line, Reason: fmt.Sprintf("invalid paid amount: %v", err)})
			continue
		}

		washUnits, dryUnits := CountMachines(row.Machines)
		kind := classifySale(row.Machines, row.PaymentMethod, gross)

		// Cashback is earned on any charged sale from the program start
		// date onward. The net amount is what the business actually keeps.
		cashback := 0.0
		net := paid
		if gross > 0 && !ts.Before(n.business.CashbackStartDate) {
			cashback = utils.Round2(gross * n.business.CashbackPercent / 100)
			net = utils.Round2(paid - cashback)
		}

		tx := models.Transaction{
			Timestamp:      ts,
			GrossAmount:    gross,
			PaidAmount:     paid,
			CashbackAmount: cashback,
			NetAmount:      net,
			DiscountAmount: utils.Round2(gross - net),
			WashUnits:      washUnits,
			DryUnits:       dryUnits,
			CustomerID:     NormalizeCPF(row.CustomerDoc),
			CustomerName:   validation.CleanText(row.CustomerName),
			Phone:          strings.TrimSpace(row.Phone),
			Store:          strings.TrimSpace(row.Store),
			PaymentMethod:  strings.TrimSpace(row.PaymentMethod),
			Machines:       strings.TrimSpace(row.Machines),
			Kind:           kind,
			IsTopUp:        kind == models.KindTopUp,
			UsedCoupon:     strings.EqualFold(strings.TrimSpace(row.UsedCoupon), "sim"),
			CouponCode:     normalizeCouponCode(row.CouponCode),
			HashID:         SaleRowHash(row),
		}
		tx.DeriveCalendar(loc)
		result.Transactions = append(result.Transactions, tx)
	}

	if len(result.Skipped) > 0 {
		logger.L.Warn("Dropped malformed sales rows during normalization",
			"dropped", len(result.Skipped), "kept", len(result.Transactions))
	}
	return result
}

// NormalizeCustomers converts raw registry rows into customer records,
// deduplicated by document (last occurrence wins, first-seen order kept).
// Unparseable dates are tolerated as unset; a missing document or a garbled
// numeric field drops the row.
func (n *recordNormalizerImpl) NormalizeCustomers(rows []models.RawCustomerRow) CustomerNormalizeResult {
	var result CustomerNormalizeResult
	loc := n.business.Location
	indexByDoc := make(map[string]int)

	for i, row := range rows {
		line := i + 2

		doc := NormalizeCPF(row.Document)
		if doc == "" {
			result.Skipped = append(result.Skipped, SkippedRow{Line: line, Reason: "missing customer document"})
			continue
		}

		balance, err := ParseBRNumber(row.WalletBalance)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{Line: line, Reason: fmt.Sprintf("invalid wallet balance: %v", err)})
			continue
		}
		totalSpent, err := ParseBRNumber(row.TotalSpent)
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRow{Line: line, Reason: fmt.Sprintf("invalid total spent: %v", err)})
			continue
		}
		visitCount := 0
		if count := strings.TrimSpace(row.PurchaseCount); count != "" {
			visitCount, err = strconv.Atoi(count)
			if err != nil {
				result.Skipped = append(result.Skipped, SkippedRow{Line: line, Reason: fmt.Sprintf("invalid purchase count %q", row.PurchaseCount)})
				continue
			}
		}

		registeredAt, _ := ParseBRDateTime(row.RegisteredAt, loc)
		lastVisit, _ := ParseBRDateTime(row.LastPurchase, loc)

		record := models.CustomerRecord{
			Document:      doc,
			Name:          validation.CleanText(row.Name),
			Phone:         strings.TrimSpace(row.Phone),
			Email:         strings.TrimSpace(row.Email),
			RegisteredAt:  registeredAt,
			WalletBalance: balance,
			POSVisitCount: visitCount,
			POSTotalSpent: totalSpent,
			POSLastVisit:  lastVisit,
		}

		if at, ok := indexByDoc[doc]; ok {
			result.Customers[at] = record
		} else {
			indexByDoc[doc] = len(result.Customers)
			result.Customers = append(result.Customers, record)
		}
	}

	if len(result.Skipped) > 0 {
		logger.L.Warn("Dropped malformed customer rows during normalization",
			"dropped", len(result.Skipped), "kept", len(result.Customers))
	}
	return result
}

// classifySale applies the POS sale taxonomy. A recharge keyword in the
// machine field marks a wallet top-up. Wallet purchases are recognized by
// the payment method, or by a machine sale that charged nothing at the
// counter. Machine sales with a charged amount are regular purchases.
func classifySale(machines, paymentMethod string, gross float64) models.TransactionKind {
	machineStr := strings.ToLower(strings.TrimSpace(machines))
	payment := strings.ToLower(paymentMethod)

	if strings.Contains(machineStr, "recarga") {
		return models.KindTopUp
	}
	if strings.Contains(payment, "saldo da carteira") {
		return models.KindWalletPurchase
	}
	if gross == 0 && machineStr != "" {
		return models.KindWalletPurchase
	}
	if machineStr != "" && gross > 0 {
		return models.KindPurchase
	}
	return models.KindUnknown
}

func normalizeCouponCode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" || strings.EqualFold(code, "n/d") {
		return ""
	}
	return strings.ToUpper(code)
}

// SaleRowHash fingerprints a raw sales row for deduplication. The hash is
// computed over the source fields exactly as exported, so re-importing the
// same file (or an overlapping export) cannot double-count a sale.
func SaleRowHash(row models.RawSaleRow) string {
	input := fmt.Sprintf("%s|%s|%s|%s", row.DateTime, row.CustomerDoc, row.GrossAmount, row.Machines)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:32]
}
