package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration is one versioned schema change.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns the full schema history, oldest first.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users and grants tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id UUID PRIMARY KEY,
					email VARCHAR(255) NOT NULL UNIQUE,
					full_name VARCHAR(255) NOT NULL,
					password_hash VARCHAR(255) NOT NULL,
					role VARCHAR(50) NOT NULL,
					user_type VARCHAR(20) NOT NULL,
					client_id UUID,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					last_login_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL,
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL
				);

				CREATE INDEX idx_users_email ON users(email);
				CREATE INDEX idx_users_client_id ON users(client_id);

				CREATE TABLE IF NOT EXISTS user_grants (
					user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					module VARCHAR(50) NOT NULL,
					level VARCHAR(20) NOT NULL,
					actions TEXT NOT NULL DEFAULT '[]',
					PRIMARY KEY (user_id, module)
				);
			`,
		},
		{
			Version:     2,
			Description: "Create api_tokens table",
			SQL: `
				CREATE TABLE IF NOT EXISTS api_tokens (
					id UUID PRIMARY KEY,
					user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
					token_hash VARCHAR(64) NOT NULL UNIQUE,
					token_prefix VARCHAR(16) NOT NULL,
					name VARCHAR(255) NOT NULL,
					expires_at TIMESTAMP WITH TIME ZONE,
					last_used_at TIMESTAMP WITH TIME ZONE,
					revoked_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL
				);

				CREATE INDEX idx_api_tokens_user_id ON api_tokens(user_id);
				CREATE INDEX idx_api_tokens_token_hash ON api_tokens(token_hash);
			`,
		},
		{
			Version:     3,
			Description: "Create clients table",
			SQL: `
				CREATE TABLE IF NOT EXISTS clients (
					id UUID PRIMARY KEY,
					company_name VARCHAR(200) NOT NULL,
					contact_name VARCHAR(200),
					email VARCHAR(255),
					phone VARCHAR(40),
					address TEXT,
					status VARCHAR(20) NOT NULL,
					notes TEXT,
					tags JSONB NOT NULL DEFAULT '[]',
					created_by UUID,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL,
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL
				);

				CREATE INDEX idx_clients_status ON clients(status);
				CREATE INDEX idx_clients_company_name ON clients(company_name);
			`,
		},
		{
			Version:     4,
			Description: "Create onboarding_records table",
			SQL: `
				CREATE TABLE IF NOT EXISTS onboarding_records (
					id UUID PRIMARY KEY,
					client_id UUID NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
					business_info JSONB NOT NULL DEFAULT '{}',
					pre_onboarding JSONB NOT NULL DEFAULT '{}',
					needs_assessment JSONB NOT NULL DEFAULT '{}',
					service_proposal JSONB NOT NULL DEFAULT '{}',
					follow_up JSONB NOT NULL DEFAULT '{}',
					feedback JSONB NOT NULL DEFAULT '{}',
					progress INTEGER NOT NULL DEFAULT 0,
					status VARCHAR(20) NOT NULL,
					estimated_completion_date TIMESTAMP WITH TIME ZONE,
					actual_completion_date TIMESTAMP WITH TIME ZONE,
					completed_at TIMESTAMP WITH TIME ZONE,
					assigned_to UUID,
					created_by UUID,
					last_updated_by UUID,
					notes JSONB NOT NULL DEFAULT '[]',
					tags JSONB NOT NULL DEFAULT '[]',
					created_at TIMESTAMP WITH TIME ZONE NOT NULL,
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
					UNIQUE(client_id)
				);

				CREATE INDEX idx_onboarding_records_status ON onboarding_records(status);
				CREATE INDEX idx_onboarding_records_assigned_to ON onboarding_records(assigned_to);
				CREATE INDEX idx_onboarding_records_deadline ON onboarding_records(estimated_completion_date);
			`,
		},
		{
			Version:     5,
			Description: "Create tasks table",
			SQL: `
				CREATE TABLE IF NOT EXISTS tasks (
					id UUID PRIMARY KEY,
					title VARCHAR(200) NOT NULL,
					description TEXT,
					client_id UUID REFERENCES clients(id) ON DELETE SET NULL,
					assigned_to UUID,
					status VARCHAR(20) NOT NULL,
					priority VARCHAR(10) NOT NULL,
					due_date TIMESTAMP WITH TIME ZONE,
					created_by UUID,
					completed_at TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL,
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL
				);

				CREATE INDEX idx_tasks_status ON tasks(status);
				CREATE INDEX idx_tasks_assigned_to ON tasks(assigned_to);
				CREATE INDEX idx_tasks_client_id ON tasks(client_id);
			`,
		},
		{
			Version:     6,
			Description: "Create invoices table",
			SQL: `
				CREATE TABLE IF NOT EXISTS invoices (
					id UUID PRIMARY KEY,
					client_id UUID NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
					number VARCHAR(40) NOT NULL UNIQUE,
					status VARCHAR(20) NOT NULL,
					line_items JSONB NOT NULL DEFAULT '[]',
					amount NUMERIC(12, 2) NOT NULL DEFAULT 0,
					notes TEXT,
					issued_at TIMESTAMP WITH TIME ZONE,
					due_date TIMESTAMP WITH TIME ZONE,
					approved_by UUID,
					approved_at TIMESTAMP WITH TIME ZONE,
					paid_at TIMESTAMP WITH TIME ZONE,
					created_by UUID,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL,
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL
				);

				CREATE INDEX idx_invoices_client_id ON invoices(client_id);
				CREATE INDEX idx_invoices_status ON invoices(status);
			`,
		},
		{
			Version:     7,
			Description: "Create staff_members table",
			SQL: `
				CREATE TABLE IF NOT EXISTS staff_members (
					id UUID PRIMARY KEY,
					user_id UUID REFERENCES users(id) ON DELETE SET NULL,
					full_name VARCHAR(200) NOT NULL,
					title VARCHAR(100),
					email VARCHAR(255),
					phone VARCHAR(40),
					specialties JSONB NOT NULL DEFAULT '[]',
					hire_date TIMESTAMP WITH TIME ZONE,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL,
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL
				);

				CREATE INDEX idx_staff_members_user_id ON staff_members(user_id);
			`,
		},
		{
			Version:     8,
			Description: "Create documents table",
			SQL: `
				CREATE TABLE IF NOT EXISTS documents (
					id UUID PRIMARY KEY,
					client_id UUID REFERENCES clients(id) ON DELETE CASCADE,
					file_name VARCHAR(255) NOT NULL,
					content_type VARCHAR(100) NOT NULL,
					size BIGINT NOT NULL,
					storage_key TEXT NOT NULL,
					backend VARCHAR(20) NOT NULL,
					uploaded_by UUID,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL
				);

				CREATE INDEX idx_documents_client_id ON documents(client_id);
			`,
		},
		{
			Version:     9,
			Description: "Create audit_logs table",
			SQL: `
				CREATE TABLE IF NOT EXISTS audit_logs (
					id UUID PRIMARY KEY,
					timestamp TIMESTAMP WITH TIME ZONE NOT NULL,
					event_type VARCHAR(100) NOT NULL,
					status VARCHAR(20) NOT NULL,
					user_id UUID,
					client_id UUID,
					resource_type VARCHAR(50),
					resource_id VARCHAR(255),
					ip_address VARCHAR(45),
					request_id VARCHAR(100),
					method VARCHAR(10),
					path TEXT,
					status_code INTEGER,
					message TEXT,
					metadata JSONB
				);

				CREATE INDEX idx_audit_logs_timestamp ON audit_logs(timestamp DESC);
				CREATE INDEX idx_audit_logs_user_id ON audit_logs(user_id);
				CREATE INDEX idx_audit_logs_event_type ON audit_logs(event_type);
			`,
		},
	}
}

// RunMigrations applies all pending migrations inside per-migration
// transactions, tracking applied versions in schema_migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate migrations: %w", err)
	}

	for _, migration := range GetMigrations() {
		if applied[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}
	return nil
}
