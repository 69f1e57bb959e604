package models

import "time"

// RawCustomerRow represents a single line from the POS customer registry
// export before normalization.
type RawCustomerRow struct {
	Document      string `json:"document"`       // Documento, CPF
	Name          string `json:"name"`           // Nome
	Phone         string `json:"phone"`          // Telefone
	Email         string `json:"email"`          // Email
	RegisteredAt  string `json:"registered_at"`  // Data_Cadastro
	WalletBalance string `json:"wallet_balance"` // Saldo_Carteira
	LastPurchase  string `json:"last_purchase"`  // Data_Ultima_Compra
	PurchaseCount string `json:"purchase_count"` // Quantidade_Compras
	TotalSpent    string `json:"total_compras"`  // Total_Compras
}

// CustomerRecord is the normalized registry entry for one customer. The
// POS-reported counters are kept for reconciliation; behavioral metrics are
// always recomputed from the transaction history itself.
type CustomerRecord struct {
	ID            int64     `json:"id,omitempty"`
	Document      string    `json:"document"` // normalized CPF, 11 digits
	Name          string    `json:"name"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	RegisteredAt  time.Time `json:"registered_at,omitempty"`
	WalletBalance float64   `json:"wallet_balance"`
	POSVisitCount int       `json:"pos_visit_count"`
	POSTotalSpent float64   `json:"pos_total_spent"`
	POSLastVisit  time.Time `json:"pos_last_visit,omitempty"`
}

// Segment is the loyalty tier a customer currently sits in. Tiers bias the
// churn-risk score: the best tiers dampen it, the fading tiers amplify it.
type Segment string

const (
	SegmentChampion Segment = "champion"
	SegmentLoyal    Segment = "loyal"
	SegmentRegular  Segment = "regular"
	SegmentNew      Segment = "new"
	SegmentCooling  Segment = "cooling"
	SegmentInactive Segment = "inactive"
)

// RiskLevel buckets the 0-100 churn-risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"    // score < 50
	RiskMedium RiskLevel = "medium" // 50 <= score < 80
	RiskHigh   RiskLevel = "high"   // score >= 80
)

// LifecycleLabel is the human-facing state derived from recency and segment.
type LifecycleLabel string

const (
	LifecycleNew      LifecycleLabel = "new"
	LifecycleHealthy  LifecycleLabel = "healthy"
	LifecycleMonitor  LifecycleLabel = "monitor"
	LifecycleAtRisk   LifecycleLabel = "at_risk"
	LifecycleChurning LifecycleLabel = "churning"
	LifecycleLost     LifecycleLabel = "lost"
)

// CustomerProfile is the full behavioral picture of one identified customer,
// computed from their transaction history.
type CustomerProfile struct {
	CustomerID      string         `json:"customer_id"`
	Name            string         `json:"name,omitempty"`
	Phone           string         `json:"phone,omitempty"`
	TotalVisits     int            `json:"total_visits"`
	TotalSpent      float64        `json:"total_spent"`
	AvgTicket       float64        `json:"avg_ticket"`
	FirstVisit      time.Time      `json:"first_visit"`
	LastVisit       time.Time      `json:"last_visit"`
	DaysSinceLast   int            `json:"days_since_last"`
	UniqueVisitDays int            `json:"unique_visit_days"`
	VisitsPerWeek   float64        `json:"visits_per_week"`
	WalletBalance   float64        `json:"wallet_balance"`
	Segment         Segment        `json:"segment"`
	RiskScore       int            `json:"risk_score"`
	RiskLevel       RiskLevel      `json:"risk_level"`
	Lifecycle       LifecycleLabel `json:"lifecycle"`
}
