package services

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/samber/lo"
	"github.com/username/lavametrics/backend/src/database"
	"github.com/username/lavametrics/backend/src/logger"
	"github.com/username/lavametrics/backend/src/parsers"
	"github.com/username/lavametrics/backend/src/processors"
	"github.com/username/lavametrics/backend/src/utils"
)

// sampleErrorLimit caps how many skip reasons travel with a summary; the
// full skipped count is always reported separately.
const sampleErrorLimit = 10

const defaultHistoryLimit = 20

type importServiceImpl struct {
	normalizer  processors.RecordNormalizer
	reportCache *cache.Cache
}

func NewImportService(normalizer processors.RecordNormalizer, reportCache *cache.Cache) ImportService {
	return &importServiceImpl{normalizer: normalizer, reportCache: reportCache}
}

func (s *importServiceImpl) ProcessImport(fileReader io.Reader, fileName string, source string, fileType parsers.FileType) (*ImportSummary, error) {
	overallStartTime := time.Now()
	logger.L.Info("ProcessImport START", "fileName", fileName, "source", source)

	data, err := io.ReadAll(fileReader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading upload: %v", ErrParsingFailed, err)
	}

	if fileType == "" {
		fileType, err = parsers.DetectFileType(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
		}
		logger.L.Info("Detected file type from header", "fileName", fileName, "fileType", fileType)
	}

	summary := &ImportSummary{
		BatchID:  uuid.NewString(),
		FileName: fileName,
		FileType: string(fileType),
		Source:   source,
	}

	switch fileType {
	case parsers.FileTypeSales:
		err = s.importSales(data, source, summary)
	case parsers.FileTypeCustomers:
		err = s.importCustomers(data, source, summary)
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrParsingFailed, fileType)
	}
	if err != nil {
		return nil, err
	}

	summary.Status = "success"
	if summary.SkippedCount > 0 {
		summary.Status = "partial"
	}
	summary.DurationMS = time.Since(overallStartTime).Milliseconds()
	summary.CreatedAt = time.Now()

	// The import itself is already committed; a history bookkeeping failure
	// is logged but does not fail the upload.
	if err := insertUploadHistory(summary); err != nil {
		logger.L.Error("Failed to record upload history", "batchID", summary.BatchID, "error", err)
	}

	// Flushing everything keeps the cache trivially consistent; the next
	// request recomputes from the updated snapshot.
	s.reportCache.Flush()

	logger.L.Info("ProcessImport END",
		"batchID", summary.BatchID, "fileType", summary.FileType, "status", summary.Status,
		"rows", summary.RowCount, "inserted", summary.InsertedCount,
		"duplicates", summary.DuplicateCount, "skipped", summary.SkippedCount,
		"duration", time.Since(overallStartTime))
	return summary, nil
}

func (s *importServiceImpl) importSales(data []byte, source string, summary *ImportSummary) error {
	parser, err := parsers.GetSalesParser(source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	rows, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	summary.RowCount = len(rows)

	result := s.normalizer.NormalizeSales(rows)
	summary.SkippedCount = len(result.Skipped)
	summary.Errors = sampleSkipReasons(result.Skipped)

	if len(result.Transactions) == 0 {
		return nil
	}

	dbTx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("%w: beginning database transaction: %v", ErrProcessingFailed, err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`INSERT INTO transactions (occurred_at, gross_amount, paid_amount, cashback_amount, net_amount, discount_amount, wash_units, dry_units, customer_id, customer_name, phone, store, payment_method, machines, kind, used_coupon, coupon_code, hash_id, batch_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%w: preparing insert statement: %v", ErrProcessingFailed, err)
	}
	defer stmt.Close()

	seen := make(map[string]struct{}, len(result.Transactions))
	for _, tx := range result.Transactions {
		// In-file duplicates and rows already in the store both count as
		// duplicates; overlapping exports are routine.
		if _, dup := seen[tx.HashID]; dup {
			summary.DuplicateCount++
			continue
		}
		seen[tx.HashID] = struct{}{}

		_, err := stmt.Exec(tx.Timestamp.Format(time.RFC3339), tx.GrossAmount, tx.PaidAmount,
			tx.CashbackAmount, tx.NetAmount, tx.DiscountAmount, tx.WashUnits, tx.DryUnits,
			tx.CustomerID, tx.CustomerName, tx.Phone, tx.Store, tx.PaymentMethod, tx.Machines,
			string(tx.Kind), tx.UsedCoupon, tx.CouponCode, tx.HashID, summary.BatchID)
		if err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "unique constraint failed") {
				logger.L.Debug("Skipping already imported transaction", "hash_id", tx.HashID)
				summary.DuplicateCount++
				continue
			}
			return fmt.Errorf("%w: inserting transaction (hash %s): %v", ErrProcessingFailed, tx.HashID, err)
		}
		summary.InsertedCount++
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transactions: %v", ErrProcessingFailed, err)
	}
	return nil
}

func (s *importServiceImpl) importCustomers(data []byte, source string, summary *ImportSummary) error {
	parser, err := parsers.GetCustomerParser(source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	rows, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	summary.RowCount = len(rows)

	result := s.normalizer.NormalizeCustomers(rows)
	summary.SkippedCount = len(result.Skipped)
	summary.Errors = sampleSkipReasons(result.Skipped)

	if len(result.Customers) == 0 {
		return nil
	}

	dbTx, err := database.DB.Begin()
	if err != nil {
		return fmt.Errorf("%w: beginning database transaction: %v", ErrProcessingFailed, err)
	}
	defer dbTx.Rollback()

	// The registry is upserted: a re-exported customer file carries fresher
	// wallet balances and contact data for documents we already know.
	stmt, err := dbTx.Prepare(`INSERT INTO customers (document, name, phone, email, registered_at, wallet_balance, pos_visit_count, pos_total_spent, pos_last_visit, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(document) DO UPDATE SET name=excluded.name, phone=excluded.phone, email=excluded.email, registered_at=excluded.registered_at, wallet_balance=excluded.wallet_balance, pos_visit_count=excluded.pos_visit_count, pos_total_spent=excluded.pos_total_spent, pos_last_visit=excluded.pos_last_visit, updated_at=CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("%w: preparing upsert statement: %v", ErrProcessingFailed, err)
	}
	defer stmt.Close()

	for _, record := range result.Customers {
		var registeredAt, lastVisit interface{}
		if !record.RegisteredAt.IsZero() {
			registeredAt = record.RegisteredAt.Format(time.RFC3339)
		}
		if !record.POSLastVisit.IsZero() {
			lastVisit = record.POSLastVisit.Format(time.RFC3339)
		}
		_, err := stmt.Exec(record.Document, record.Name, record.Phone, record.Email,
			registeredAt, record.WalletBalance, record.POSVisitCount, record.POSTotalSpent, lastVisit)
		if err != nil {
			return fmt.Errorf("%w: upserting customer (document %s): %v", ErrProcessingFailed, record.Document, err)
		}
		summary.InsertedCount++
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("%w: committing customers: %v", ErrProcessingFailed, err)
	}
	return nil
}

func (s *importServiceImpl) History(limit int) ([]ImportSummary, error) {
	if limit < 1 {
		limit = defaultHistoryLimit
	}
	rows, err := database.DB.Query(`SELECT id, file_name, file_type, source, row_count, inserted_count, duplicate_count, skipped_count, errors, status, duration_ms, created_at FROM upload_history ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying upload history: %w", err)
	}
	defer rows.Close()

	summaries := make([]ImportSummary, 0, limit)
	for rows.Next() {
		var entry ImportSummary
		var errorsJSON sql.NullString
		var createdAt string
		if err := rows.Scan(&entry.BatchID, &entry.FileName, &entry.FileType, &entry.Source,
			&entry.RowCount, &entry.InsertedCount, &entry.DuplicateCount, &entry.SkippedCount,
			&errorsJSON, &entry.Status, &entry.DurationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning upload history row: %w", err)
		}
		if errorsJSON.Valid && errorsJSON.String != "" {
			if err := json.Unmarshal([]byte(errorsJSON.String), &entry.Errors); err != nil {
				logger.L.Warn("Unreadable error sample in upload history", "batchID", entry.BatchID, "error", err)
			}
		}
		if parsed, err := time.Parse(time.RFC3339, createdAt); err == nil {
			entry.CreatedAt = parsed
		}
		summaries = append(summaries, entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating over upload history rows: %w", err)
	}
	return summaries, nil
}

func sampleSkipReasons(skipped []processors.SkippedRow) []string {
	sample := skipped[:utils.MinInt(len(skipped), sampleErrorLimit)]
	return lo.Map(sample, func(row processors.SkippedRow, _ int) string {
		return fmt.Sprintf("line %d: %s", row.Line, row.Reason)
	})
}

func insertUploadHistory(summary *ImportSummary) error {
	errorsJSON, err := json.Marshal(summary.Errors)
	if err != nil {
		return fmt.Errorf("marshaling error sample: %w", err)
	}
	_, err = database.DB.Exec(`INSERT INTO upload_history (id, file_name, file_type, source, row_count, inserted_count, duplicate_count, skipped_count, errors, status, duration_ms, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.BatchID, summary.FileName, summary.FileType, summary.Source,
		summary.RowCount, summary.InsertedCount, summary.DuplicateCount, summary.SkippedCount,
		string(errorsJSON), summary.Status, summary.DurationMS, summary.CreatedAt.Format(time.RFC3339))
	return err
}
