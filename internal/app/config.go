package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/danielcaamal/orders-ms/internal/domain"
)

// Config holds the runtime settings of the service. Every field can be
// overridden through an ORDERS_-prefixed environment variable.
type Config struct {
	// HTTPAddr is the public API listen address.
	HTTPAddr string
	// OpsAddr serves metrics and health endpoints.
	OpsAddr string
	// PostgresDSN selects the Postgres store; empty means in-memory.
	PostgresDSN string
	// KafkaBrokers is a comma-separated broker list; empty disables Kafka.
	KafkaBrokers string
	// ConsumerGroup identifies the payment-notification consumer group.
	ConsumerGroup string
	// ProductServiceURL points at the products service; empty uses a mock.
	ProductServiceURL string
	// PaymentServiceURL points at the payments service; empty uses a mock.
	PaymentServiceURL string
	// Currency is the payment-session currency code.
	Currency string
	// StatusPolicy selects the transition policy: permissive or strict.
	StatusPolicy string
}

// DefaultConfig returns the local-development defaults.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:      ":3000",
		OpsAddr:       ":9090",
		ConsumerGroup: "orders-service",
		Currency:      "usd",
		StatusPolicy:  "permissive",
	}
}

// ConfigFromEnv builds the config from defaults plus environment overrides.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("ORDERS_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("ORDERS_OPS_ADDR"); v != "" {
		cfg.OpsAddr = v
	}
	if v := os.Getenv("ORDERS_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("ORDERS_KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = v
	}
	if v := os.Getenv("ORDERS_CONSUMER_GROUP"); v != "" {
		cfg.ConsumerGroup = v
	}
	if v := os.Getenv("ORDERS_PRODUCT_SERVICE_URL"); v != "" {
		cfg.ProductServiceURL = v
	}
	if v := os.Getenv("ORDERS_PAYMENT_SERVICE_URL"); v != "" {
		cfg.PaymentServiceURL = v
	}
	if v := os.Getenv("ORDERS_CURRENCY"); v != "" {
		cfg.Currency = v
	}
	if v := os.Getenv("ORDERS_STATUS_POLICY"); v != "" {
		cfg.StatusPolicy = v
	}
	return cfg
}

// TransitionPolicy resolves the configured status transition policy.
func (c Config) TransitionPolicy() (domain.StatusTransitionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(c.StatusPolicy)) {
	case "", "permissive":
		return domain.PermissivePolicy{}, nil
	case "strict":
		return domain.StrictPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown status policy %q (use permissive|strict)", c.StatusPolicy)
	}
}

// Brokers splits the configured broker list.
func (c Config) Brokers() []string {
	if c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			brokers = append(brokers, trimmed)
		}
	}
	return brokers
}
