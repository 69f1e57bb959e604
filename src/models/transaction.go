package models

import "time"

// TransactionKind classifies what a POS sale row actually sold.
type TransactionKind string

const (
	// KindPurchase is a regular machine purchase paid at the counter.
	KindPurchase TransactionKind = "purchase"
	// KindWalletPurchase is machine time paid from the customer's prepaid wallet.
	KindWalletPurchase TransactionKind = "wallet_purchase"
	// KindTopUp is a wallet recharge. It moves money but sells no machine time.
	KindTopUp TransactionKind = "top_up"
	// KindUnknown is a row that matched no classification rule.
	KindUnknown TransactionKind = "unknown"
)

// RawSaleRow represents a single sale line from the POS CSV export before
// normalization. All fields are kept as strings exactly as read.
type RawSaleRow struct {
	DateTime      string `json:"date_time"`      // Data_Hora, "DD/MM/YYYY HH:MM:SS"
	GrossAmount   string `json:"gross_amount"`   // Valor_Venda, Brazilian number format
	PaidAmount    string `json:"paid_amount"`    // Valor_Pago, amount actually charged
	PaymentMethod string `json:"payment_method"` // Meio_de_Pagamento
	Store         string `json:"store"`          // Loja
	CustomerName  string `json:"customer_name"`  // Nome_Cliente
	CustomerDoc   string `json:"customer_doc"`   // Doc_Cliente, CPF in any punctuation
	Phone         string `json:"phone"`          // Telefone
	Machines      string `json:"machines"`       // Maquinas, comma-separated machine list
	UsedCoupon    string `json:"used_coupon"`    // Usou_Cupom
	CouponCode    string `json:"coupon_code"`    // Codigo_Cupom
}

// Transaction is the canonical normalized record every metric is computed
// from. Timestamp carries the business location; the calendar fields are
// decomposed once at normalization time in that same location so downstream
// aggregation never touches timezone logic again.
type Transaction struct {
	ID             int64           `json:"id,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	Year           int             `json:"year"`
	Month          int             `json:"month"`
	Day            int             `json:"day"`
	Hour           int             `json:"hour"`
	Weekday        int             `json:"weekday"` // 0 = Sunday
	IsWeekend      bool            `json:"is_weekend"`
	DayKey         string          `json:"day_key"` // "2006-01-02" in the business timezone
	GrossAmount    float64         `json:"gross_amount"`
	PaidAmount     float64         `json:"paid_amount"`
	CashbackAmount float64         `json:"cashback_amount"`
	NetAmount      float64         `json:"net_amount"`      // paid minus cashback liability
	DiscountAmount float64         `json:"discount_amount"` // gross minus net, coupons plus cashback
	WashUnits      int             `json:"wash_units"`
	DryUnits       int             `json:"dry_units"`
	CustomerID     string          `json:"customer_id,omitempty"` // normalized CPF; empty means unidentified
	CustomerName   string          `json:"customer_name,omitempty"`
	Phone          string          `json:"phone,omitempty"`
	Store          string          `json:"store,omitempty"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	Machines       string          `json:"machines,omitempty"` // raw machine list, kept for diagnostics
	Kind           TransactionKind `json:"kind"`
	IsTopUp        bool            `json:"is_top_up"`
	UsedCoupon     bool            `json:"used_coupon"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	HashID         string          `json:"hash_id"` // dedup fingerprint of the source row
}

// DeriveCalendar rebases Timestamp into loc and fills the calendar fields
// from it. It runs once at normalization time and again whenever a record
// is rehydrated from storage.
func (t *Transaction) DeriveCalendar(loc *time.Location) {
	ts := t.Timestamp.In(loc)
	t.Timestamp = ts
	t.Year = ts.Year()
	t.Month = int(ts.Month())
	t.Day = ts.Day()
	t.Hour = ts.Hour()
	t.Weekday = int(ts.Weekday())
	t.IsWeekend = ts.Weekday() == time.Saturday || ts.Weekday() == time.Sunday
	t.DayKey = ts.Format("2006-01-02")
}

// SellsMachineTime reports whether the transaction occupies machines. Top-ups
// and unclassifiable rows count toward revenue reconciliation but never toward
// service counts or utilization.
func (t *Transaction) SellsMachineTime() bool {
	return t.Kind == KindPurchase || t.Kind == KindWalletPurchase
}

// ServiceUnits returns the number of machine cycles the transaction sold.
func (t *Transaction) ServiceUnits() int {
	return t.WashUnits + t.DryUnits
}
