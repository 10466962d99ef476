package indicators

import "github.com/asrieldev/secureBank/internal/domain"

// BuiltinRules returns the stock threshold rules that ship with the
// engine. Tenants can layer additional rules on top via the database.
//
// Boundaries are strict: a $1000.00 transaction does not trip
// high_amount, $1000.01 does. Hours 6 and 22 are inside the normal
// window.
func BuiltinRules() []*domain.IndicatorRule {
	return []*domain.IndicatorRule{
		{
			ID:          "builtin.high_amount",
			Type:        "high_amount",
			Severity:    domain.SeverityMedium,
			Expression:  "amount > 1000.0",
			Description: "Transaction amount ($%.2f) is unusually high",
			ValueField:  "amount",
			Enabled:     true,
		},
		{
			ID:          "builtin.unusual_time",
			Type:        "unusual_time",
			Severity:    domain.SeverityLow,
			Expression:  "hour_of_day < 6.0 || hour_of_day > 22.0",
			Description: "Transaction at unusual hour: %.0f:00",
			ValueField:  "hour_of_day",
			Enabled:     true,
		},
		{
			ID:          "builtin.high_location_risk",
			Type:        "high_location_risk",
			Severity:    domain.SeverityHigh,
			Expression:  "location_risk > 0.8",
			Description: "Transaction from high-risk location",
			Enabled:     true,
		},
		{
			ID:          "builtin.high_ip_risk",
			Type:        "high_ip_risk",
			Severity:    domain.SeverityHigh,
			Expression:  "ip_risk > 0.8",
			Description: "Transaction from high-risk IP address",
			Enabled:     true,
		},
		{
			ID:          "builtin.high_frequency",
			Type:        "high_frequency",
			Severity:    domain.SeverityMedium,
			Expression:  "transaction_frequency > 10.0",
			Description: "High transaction frequency: %.0f transactions",
			ValueField:  "transaction_frequency",
			Enabled:     true,
		},
		{
			ID:          "builtin.rapid_transactions",
			Type:        "rapid_transactions",
			Severity:    domain.SeverityMedium,
			Expression:  "time_since_last_transaction < 1.0",
			Description: "Transaction occurred within 1 hour of previous transaction",
			Enabled:     true,
		},
	}
}
