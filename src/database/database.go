package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/lavametrics/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateTransactionsTable()
	migrateCustomersTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		occurred_at TEXT NOT NULL,
		gross_amount REAL NOT NULL,
		paid_amount REAL NOT NULL,
		cashback_amount REAL NOT NULL DEFAULT 0,
		net_amount REAL NOT NULL,
		discount_amount REAL NOT NULL DEFAULT 0,
		wash_units INTEGER NOT NULL DEFAULT 0,
		dry_units INTEGER NOT NULL DEFAULT 0,
		customer_id TEXT NOT NULL DEFAULT '',
		customer_name TEXT,
		phone TEXT,
		store TEXT,
		payment_method TEXT,
		machines TEXT,
		kind TEXT NOT NULL,
		used_coupon BOOLEAN DEFAULT FALSE,
		coupon_code TEXT,
		hash_id TEXT NOT NULL UNIQUE,
		batch_id TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_occurred_at ON transactions(occurred_at);
	CREATE INDEX IF NOT EXISTS idx_transactions_customer_id ON transactions(customer_id);

	CREATE TABLE IF NOT EXISTS customers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		document TEXT NOT NULL UNIQUE,
		name TEXT,
		phone TEXT,
		email TEXT,
		registered_at TEXT,
		wallet_balance REAL NOT NULL DEFAULT 0,
		pos_visit_count INTEGER NOT NULL DEFAULT 0,
		pos_total_spent REAL NOT NULL DEFAULT 0,
		pos_last_visit TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS upload_history (
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		file_type TEXT NOT NULL,
		source TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		inserted_count INTEGER NOT NULL,
		duplicate_count INTEGER NOT NULL,
		skipped_count INTEGER NOT NULL,
		errors TEXT,
		status TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// tableColumnSet returns the column names of an existing table, or ok=false
// when the table is absent and creation will handle the schema.
func tableColumnSet(table string) (map[string]bool, bool) {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("table does not exist, no migration needed as table will be created", "table", table)
			} else {
				stdlog.Printf("'%s' table does not exist, no migration needed as table will be created.", table)
			}
			return nil, false
		}
		if logger.L != nil {
			logger.L.Error("Error checking for table", "table", table, "error", err)
		} else {
			stdlog.Printf("Error checking for '%s' table: %v", table, err)
		}
		return nil, false
	}

	rows, err := DB.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema", "table", table, "error", err)
		} else {
			stdlog.Printf("Error querying table schema for '%s': %v", table, err)
		}
		return nil, false
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info", "table", table, "error", err)
			} else {
				stdlog.Printf("Error scanning column info for '%s': %v", table, err)
			}
			return nil, false
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info", "table", table, "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for '%s': %v", table, err)
		}
		return nil, false
	}
	return columnExists, true
}

func migrateTransactionsTable() {
	columnExists, ok := tableColumnSet("transactions")
	if !ok {
		return
	}

	if _, ok := columnExists["batch_id"]; !ok {
		_, err := DB.Exec("ALTER TABLE transactions ADD COLUMN batch_id TEXT")
		if err != nil {
			logger.L.Error("Error adding 'batch_id' column to 'transactions' table", "error", err)
		} else {
			logger.L.Info("Added 'batch_id' column to 'transactions' table")
		}
	}

	if _, ok := columnExists["discount_amount"]; !ok {
		_, err := DB.Exec("ALTER TABLE transactions ADD COLUMN discount_amount REAL NOT NULL DEFAULT 0")
		if err != nil {
			logger.L.Error("Error adding 'discount_amount' column to 'transactions' table", "error", err)
		} else {
			logger.L.Info("Added 'discount_amount' column to 'transactions' table")
			_, errUpdate := DB.Exec("UPDATE transactions SET discount_amount = ROUND(gross_amount - net_amount, 2) WHERE discount_amount = 0 AND gross_amount <> net_amount")
			if errUpdate != nil {
				logger.L.Error("Error backfilling discount_amount for existing rows", "error", errUpdate)
			}
		}
	}

	if _, ok := columnExists["coupon_code"]; !ok {
		_, err := DB.Exec("ALTER TABLE transactions ADD COLUMN coupon_code TEXT")
		if err != nil {
			logger.L.Error("Error adding 'coupon_code' column to 'transactions' table", "error", err)
		} else {
			logger.L.Info("Added 'coupon_code' column to 'transactions' table")
		}
	}
}

func migrateCustomersTable() {
	columnExists, ok := tableColumnSet("customers")
	if !ok {
		return
	}

	if _, ok := columnExists["email"]; !ok {
		_, err := DB.Exec("ALTER TABLE customers ADD COLUMN email TEXT")
		if err != nil {
			logger.L.Error("Error adding 'email' column to 'customers' table", "error", err)
		} else {
			logger.L.Info("Added 'email' column to 'customers' table")
		}
	}

	if _, ok := columnExists["wallet_balance"]; !ok {
		_, err := DB.Exec("ALTER TABLE customers ADD COLUMN wallet_balance REAL NOT NULL DEFAULT 0")
		if err != nil {
			logger.L.Error("Error adding 'wallet_balance' column to 'customers' table", "error", err)
		} else {
			logger.L.Info("Added 'wallet_balance' column to 'customers' table")
		}
	}
}
