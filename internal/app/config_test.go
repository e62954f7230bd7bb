package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielcaamal/orders-ms/internal/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":3000", cfg.HTTPAddr)
	assert.Equal(t, ":9090", cfg.OpsAddr)
	assert.Equal(t, "orders-service", cfg.ConsumerGroup)
	assert.Equal(t, "usd", cfg.Currency)
	assert.Equal(t, "permissive", cfg.StatusPolicy)
	assert.Empty(t, cfg.PostgresDSN)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("ORDERS_HTTP_ADDR", ":8080")
	t.Setenv("ORDERS_OPS_ADDR", ":8081")
	t.Setenv("ORDERS_POSTGRES_DSN", "postgres://localhost/orders")
	t.Setenv("ORDERS_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("ORDERS_CONSUMER_GROUP", "orders-test")
	t.Setenv("ORDERS_PRODUCT_SERVICE_URL", "http://products:3001")
	t.Setenv("ORDERS_PAYMENT_SERVICE_URL", "http://payments:3003")
	t.Setenv("ORDERS_CURRENCY", "eur")
	t.Setenv("ORDERS_STATUS_POLICY", "strict")

	cfg := ConfigFromEnv()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, ":8081", cfg.OpsAddr)
	assert.Equal(t, "postgres://localhost/orders", cfg.PostgresDSN)
	assert.Equal(t, "orders-test", cfg.ConsumerGroup)
	assert.Equal(t, "http://products:3001", cfg.ProductServiceURL)
	assert.Equal(t, "http://payments:3003", cfg.PaymentServiceURL)
	assert.Equal(t, "eur", cfg.Currency)
	assert.Equal(t, "strict", cfg.StatusPolicy)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers())
}

func TestTransitionPolicy(t *testing.T) {
	tests := []struct {
		name   string
		policy string
		want   domain.StatusTransitionPolicy
		ok     bool
	}{
		{name: "empty defaults to permissive", policy: "", want: domain.PermissivePolicy{}, ok: true},
		{name: "permissive", policy: "permissive", want: domain.PermissivePolicy{}, ok: true},
		{name: "strict", policy: "strict", want: domain.StrictPolicy{}, ok: true},
		{name: "case insensitive", policy: " Strict ", want: domain.StrictPolicy{}, ok: true},
		{name: "unknown", policy: "lenient", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{StatusPolicy: tt.policy}
			got, err := cfg.TransitionPolicy()
			if !tt.ok {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBrokers_Empty(t *testing.T) {
	cfg := Config{}
	assert.Nil(t, cfg.Brokers())
}
