package initializer

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	infra_eventbus "github.com/amirasaad/donation/infra/eventbus"
	"github.com/amirasaad/donation/infra/provider/azampay"
	"github.com/amirasaad/donation/infra/provider/mockpayment"
	"github.com/amirasaad/donation/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitEventBus_DefaultsToMemory(t *testing.T) {
	bus, err := initEventBus(&config.App{}, discard())
	require.NoError(t, err)
	require.IsType(t, &infra_eventbus.MemoryEventBus{}, bus)
}

func TestInitEventBus_RedisConnectionErrorFallsBackToMemory(t *testing.T) {
	cfg := &config.App{Redis: &config.Redis{URL: "redis://127.0.0.1:1/0"}}

	bus, err := initEventBus(cfg, discard())
	require.NoError(t, err)
	require.IsType(t, &infra_eventbus.MemoryEventBus{}, bus)
}

func TestInitEventBus_KafkaConnectionErrorFallsBackToMemory(t *testing.T) {
	cfg := &config.App{Kafka: &config.Kafka{Brokers: "127.0.0.1:1"}}

	bus, err := initEventBus(cfg, discard())
	require.NoError(t, err)
	require.IsType(t, &infra_eventbus.MemoryEventBus{}, bus)
}

func TestInitGateway(t *testing.T) {
	assert.IsType(t, &mockpayment.MockPaymentProvider{}, initGateway(&config.App{}, discard()))
	assert.IsType(t, &mockpayment.MockPaymentProvider{},
		initGateway(&config.App{Gateway: &config.Gateway{Mock: true}}, discard()))
	assert.IsType(t, &azampay.Client{},
		initGateway(&config.App{Gateway: &config.Gateway{Environment: "sandbox"}}, discard()))
}

func TestNewLogger_JSONFormat(t *testing.T) {
	defer slog.SetDefault(slog.Default())
	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Log{Format: "json", Prefix: "[donation]"})
	logger.Info("hello", "donation_id", "abc")

	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"donation_id":"abc"`)
}
