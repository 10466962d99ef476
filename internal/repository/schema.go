package repository

// Schema definitions for the secureBank risk engine.
// Compatible with both SQLite and PostgreSQL.

const schemaTransactions = `
CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    account_id TEXT NOT NULL,
    recipient_account_id TEXT,
    kind TEXT NOT NULL,
    amount REAL NOT NULL,
    description TEXT,
    location TEXT,
    ip_address TEXT,
    timestamp TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL,
    fraud_score REAL NOT NULL DEFAULT 0,
    flagged INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_transactions_tenant ON transactions(tenant_id);
CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(tenant_id, account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_timestamp ON transactions(tenant_id, account_id, timestamp);
`

const schemaAccounts = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_accounts_tenant ON accounts(tenant_id);
`

const schemaAssessments = `
CREATE TABLE IF NOT EXISTS assessments (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    tx_id TEXT NOT NULL,
    score REAL NOT NULL,
    flagged INTEGER NOT NULL,
    timestamp TIMESTAMP NOT NULL,
    indicators TEXT,
    metadata TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_assessments_tenant ON assessments(tenant_id);
CREATE INDEX IF NOT EXISTS idx_assessments_tx ON assessments(tenant_id, tx_id);
CREATE INDEX IF NOT EXISTS idx_assessments_flagged ON assessments(tenant_id, flagged);
`

const schemaFraudAlerts = `
CREATE TABLE IF NOT EXISTS fraud_alerts (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    tx_id TEXT NOT NULL,
    alert_type TEXT NOT NULL,
    severity TEXT NOT NULL,
    description TEXT NOT NULL,
    resolved INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    resolved_at TIMESTAMP,
    resolved_by TEXT
);

CREATE INDEX IF NOT EXISTS idx_fraud_alerts_tenant ON fraud_alerts(tenant_id);
CREATE INDEX IF NOT EXISTS idx_fraud_alerts_resolved ON fraud_alerts(tenant_id, resolved);
CREATE INDEX IF NOT EXISTS idx_fraud_alerts_created ON fraud_alerts(tenant_id, created_at);
`

const schemaIndicatorRules = `
CREATE TABLE IF NOT EXISTS indicator_rules (
    id TEXT NOT NULL,
    tenant_id TEXT NOT NULL,
    type TEXT NOT NULL,
    severity TEXT NOT NULL,
    expression TEXT NOT NULL,
    description TEXT NOT NULL,
    value_field TEXT,
    enabled INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (id, tenant_id)
);

CREATE INDEX IF NOT EXISTS idx_indicator_rules_tenant ON indicator_rules(tenant_id);
CREATE INDEX IF NOT EXISTS idx_indicator_rules_enabled ON indicator_rules(tenant_id, enabled);
`

const schemaReputation = `
CREATE TABLE IF NOT EXISTS reputation (
    tenant_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    ref_key TEXT NOT NULL,
    risk REAL NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (tenant_id, kind, ref_key)
);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaTransactions,
		schemaAccounts,
		schemaAssessments,
		schemaFraudAlerts,
		schemaIndicatorRules,
		schemaReputation,
	}
}
