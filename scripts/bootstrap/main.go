package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/reservalo/agenda-api/pkg/config"
	"github.com/reservalo/agenda-api/pkg/database"
)

// statements creates every table the API reads and writes. All of them are
// idempotent so the script can run on every deploy.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS schedule_config (
		id INTEGER PRIMARY KEY,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		default_duration_minutes INTEGER NOT NULL,
		working_days INTEGER[] NOT NULL,
		admin_secret_hash TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS blocked_dates (
		date TEXT PRIMARY KEY,
		reason TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		customer_name TEXT NOT NULL,
		contact_phone TEXT,
		service_label TEXT,
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL,
		status TEXT NOT NULL,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_date ON bookings (date)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings (status)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id TEXT PRIMARY KEY,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		resource TEXT NOT NULL,
		resource_id TEXT,
		old_values JSONB,
		new_values JSONB,
		ip_address TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs (action)`,
	`CREATE TABLE IF NOT EXISTS report_jobs (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		params JSONB NOT NULL DEFAULT '{}',
		status TEXT NOT NULL,
		progress INTEGER NOT NULL DEFAULT 0,
		result_url TEXT,
		created_by TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ,
		error_message TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_report_jobs_status ON report_jobs (status, created_at)`,
}

func main() {
	var adminSecret string
	flag.StringVar(&adminSecret, "admin-secret", "", "Initial admin secret, required when the schedule config row does not exist yet")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("failed to apply schema statement: %v\n%s", err, stmt)
		}
	}
	fmt.Println("schema up to date")

	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM schedule_config WHERE id = 1`); err != nil {
		log.Fatalf("failed to inspect schedule config: %v", err)
	}
	if count > 0 {
		fmt.Println("schedule config present, seed skipped")
		return
	}

	if adminSecret == "" {
		log.Fatal("schedule config missing and no -admin-secret provided")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminSecret), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash admin secret: %v", err)
	}

	const seed = `INSERT INTO schedule_config (id, start_time, end_time, default_duration_minutes, working_days, admin_secret_hash, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := db.Exec(seed, 1, "09:00", "17:00", 60, pq.Array([]int64{1, 2, 3, 4, 5}), string(hash), time.Now().UTC()); err != nil {
		log.Fatalf("failed to seed schedule config: %v", err)
	}
	fmt.Println("schedule config seeded with Monday-Friday 09:00-17:00, 60 minute slots")
}
