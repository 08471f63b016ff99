// Package config loads and validates the dispatcher configuration from the
// environment. Every key is read with the ORACLE_ prefix, eg. ORACLE_SEED.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/tdex-network/oracle-dispatcher/internal/core/application"
	"github.com/tdex-network/oracle-dispatcher/internal/core/application/pricefetcher"
	"github.com/tdex-network/oracle-dispatcher/internal/core/domain"
	pricefeeder "github.com/tdex-network/oracle-dispatcher/pkg/price-feeder"
	"github.com/tdex-network/oracle-dispatcher/pkg/signer"
)

const (
	EnvPrefix = "ORACLE"

	// LedgerURLKey is the http(s) or ws(s) endpoint of the ledger node
	LedgerURLKey = "LEDGER_URL"
	// SeedKey is the operator private key as 64 hex chars, or a secret phrase
	SeedKey = "SEED"
	// SymbolsKey is the comma separated list of BASE/QUOTE symbols to read
	SymbolsKey = "SYMBOLS"
	// ExchangesKeyPrefix prefixes the per symbol list of price sources, eg.
	// EXCHANGES_BTC_USD=CryptoCompare,Kraken,Coinbase
	ExchangesKeyPrefix = "EXCHANGES_"
	// IntervalKey is the polling interval, either a duration (5m) or
	// milliseconds
	IntervalKey = "INTERVAL"
	// PortKey is the port of the health interface
	PortKey = "PORT"
	// OracleNameKey is the on-ledger oracle instance to feed, ie. ORACLE_NAME
	OracleNameKey = "NAME"
	// CurrenciesKey maps symbol base assets to ledger currencies, eg. BTC:XBTC
	CurrenciesKey = "CURRENCIES"
	// MinValidSourcesKey is the min number of sources a median is computed on
	MinValidSourcesKey = "MIN_VALID_SOURCES"
	// QuorumKey, if greater than zero, requires that many agreeing sources
	QuorumKey = "QUORUM"
	// QuorumToleranceKey is the relative distance from the median within
	// which sources agree
	QuorumToleranceKey = "QUORUM_TOLERANCE"
	// SourceTimeoutKey bounds every price source request
	SourceTimeoutKey = "SOURCE_TIMEOUT"
	// SourceRateLimitKey is the max number of requests per second per source
	SourceRateLimitKey = "SOURCE_RATE_LIMIT"
	// SubmitTimeoutKey bounds every oracle feed and swap submission
	SubmitTimeoutKey = "SUBMIT_TIMEOUT"
	// HeartbeatMultiplierKey sets task dead periods to interval * multiplier
	HeartbeatMultiplierKey = "HEARTBEAT_MULTIPLIER"
	// EnableArbitrageKey enables pool rebalancing
	EnableArbitrageKey = "ENABLE_ARBITRAGE"
	// BaseCurrencyKey is the currency every pool is paired with
	BaseCurrencyKey = "BASE_CURRENCY"
	// ArbitrageThresholdKey is the relative price gap that triggers a swap
	ArbitrageThresholdKey = "ARBITRAGE_THRESHOLD"
	// SlippageToleranceKey is the accepted shortfall of swap outputs
	SlippageToleranceKey = "SLIPPAGE_TOLERANCE"
	// NoiseIntervalKey, if greater than zero, enables synthetic refreshes of
	// the last batch between reads
	NoiseIntervalKey = "NOISE_INTERVAL"
	// NoiseBpsKey is the max jitter of synthetic refreshes in basis points
	NoiseBpsKey = "NOISE_BPS"
	// CryptoCompareAPIKeyKey is required if any symbol uses CryptoCompare
	CryptoCompareAPIKeyKey = "CRYPTO_COMPARE_API_KEY"
	// AlphaVantageAPIKeyKey is required if any symbol uses AlphaVantage
	AlphaVantageAPIKeyKey = "ALPHA_VANTAGE_API_KEY"
	// AlertWebhookKey is the endpoint where error logs are posted
	AlertWebhookKey = "ALERT_WEBHOOK"
	// AlertWebhookSecretKey signs alert requests with a JWT
	AlertWebhookSecretKey = "ALERT_WEBHOOK_SECRET"
	// LogLevelKey is a logrus level name or number. For reference on the
	// values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// LogFilterKey is a comma separated list of modules whose debug and info
	// logs are shown, the others only show warnings and errors
	LogFilterKey = "LOG_FILTER"
	// LogFileKey, if set, is a file where logs are also written and rotated
	LogFileKey = "LOG_FILE"
	// EnvKey is either development or production
	EnvKey = "ENV"
	// StatsIntervalKey, if greater than zero, is the interval for printing
	// runtime statistics
	StatsIntervalKey = "STATS_INTERVAL"

	EnvDevelopment = "development"
	EnvProduction  = "production"

	defaultEnvFile = ".env"
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Z0-9]+`)

// Config is the validated configuration of the dispatcher.
type Config struct {
	LedgerURL  string
	Signer     *signer.Signer
	OracleName string
	Port       int

	Symbols         []application.SymbolConfig
	Interval        time.Duration
	MinValidSources int
	Quorum          int
	QuorumTolerance decimal.Decimal
	SourceTimeout   time.Duration
	SourceRateLimit float64

	SubmitTimeout       time.Duration
	HeartbeatMultiplier int

	EnableArbitrage    bool
	BaseCurrency       domain.Currency
	ArbitrageThreshold float64
	SlippageTolerance  float64

	NoiseInterval time.Duration
	NoiseBps      int

	CryptoCompareAPIKey string
	AlphaVantageAPIKey  string

	AlertWebhook       string
	AlertWebhookSecret string

	LogLevel      log.Level
	LogFilter     []string
	LogFile       string
	Env           string
	StatsInterval time.Duration
}

// Load reads the .env file of the working directory, if any, and then the
// environment. Variables already set in the environment take precedence
// over the .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(defaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", defaultEnvFile, err)
	}
	return load(newViper())
}

func newViper() *viper.Viper {
	vip := viper.New()
	vip.SetEnvPrefix(EnvPrefix)
	vip.AutomaticEnv()

	vip.SetDefault(IntervalKey, "5m")
	vip.SetDefault(PortKey, 3000)
	vip.SetDefault(OracleNameKey, "oracle")
	vip.SetDefault(MinValidSourcesKey, 1)
	vip.SetDefault(QuorumKey, 0)
	vip.SetDefault(QuorumToleranceKey, "0.01")
	vip.SetDefault(SourceTimeoutKey, "10s")
	vip.SetDefault(SourceRateLimitKey, 5)
	vip.SetDefault(SubmitTimeoutKey, "2m")
	vip.SetDefault(HeartbeatMultiplierKey, application.DefaultHeartbeatMultiplier)
	vip.SetDefault(EnableArbitrageKey, true)
	vip.SetDefault(BaseCurrencyKey, "AUSD")
	vip.SetDefault(ArbitrageThresholdKey, 0.03)
	vip.SetDefault(SlippageToleranceKey, 0.01)
	vip.SetDefault(NoiseIntervalKey, "0")
	vip.SetDefault(NoiseBpsKey, 1)
	vip.SetDefault(LogLevelKey, "info")
	vip.SetDefault(EnvKey, EnvDevelopment)
	vip.SetDefault(StatsIntervalKey, "0")

	return vip
}

func load(vip *viper.Viper) (*Config, error) {
	cfg := &Config{
		OracleName:          strings.TrimSpace(vip.GetString(OracleNameKey)),
		Port:                vip.GetInt(PortKey),
		MinValidSources:     vip.GetInt(MinValidSourcesKey),
		Quorum:              vip.GetInt(QuorumKey),
		SourceRateLimit:     vip.GetFloat64(SourceRateLimitKey),
		HeartbeatMultiplier: vip.GetInt(HeartbeatMultiplierKey),
		EnableArbitrage:     vip.GetBool(EnableArbitrageKey),
		BaseCurrency:        domain.Currency(strings.TrimSpace(vip.GetString(BaseCurrencyKey))),
		ArbitrageThreshold:  vip.GetFloat64(ArbitrageThresholdKey),
		SlippageTolerance:   vip.GetFloat64(SlippageToleranceKey),
		NoiseBps:            vip.GetInt(NoiseBpsKey),
		CryptoCompareAPIKey: vip.GetString(CryptoCompareAPIKeyKey),
		AlphaVantageAPIKey:  vip.GetString(AlphaVantageAPIKeyKey),
		AlertWebhook:        vip.GetString(AlertWebhookKey),
		AlertWebhookSecret:  vip.GetString(AlertWebhookSecretKey),
		LogFilter:           splitList(vip.GetString(LogFilterKey)),
		LogFile:             vip.GetString(LogFileKey),
		Env:                 strings.ToLower(vip.GetString(EnvKey)),
	}

	var err error
	if cfg.LedgerURL, err = parseLedgerURL(vip.GetString(LedgerURLKey)); err != nil {
		return nil, err
	}
	seed := vip.GetString(SeedKey)
	if seed == "" {
		return nil, missingKey(SeedKey)
	}
	if cfg.Signer, err = signer.NewFromSeed(seed); err != nil {
		return nil, invalidKey(SeedKey, err)
	}
	if cfg.OracleName == "" {
		return nil, missingKey(OracleNameKey)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, invalidKey(PortKey, fmt.Errorf("%d out of range", cfg.Port))
	}

	durations := []struct {
		key      string
		dst      *time.Duration
		positive bool
	}{
		{IntervalKey, &cfg.Interval, true},
		{SourceTimeoutKey, &cfg.SourceTimeout, true},
		{SubmitTimeoutKey, &cfg.SubmitTimeout, true},
		{NoiseIntervalKey, &cfg.NoiseInterval, false},
		{StatsIntervalKey, &cfg.StatsInterval, false},
	}
	for _, d := range durations {
		v, err := parseDuration(vip.GetString(d.key))
		if err != nil {
			return nil, invalidKey(d.key, err)
		}
		if v < 0 || (d.positive && v == 0) {
			return nil, invalidKey(d.key, fmt.Errorf("%s out of range", v))
		}
		*d.dst = v
	}

	if cfg.Symbols, err = parseSymbols(vip); err != nil {
		return nil, err
	}
	if err := cfg.validateSources(); err != nil {
		return nil, err
	}

	if cfg.MinValidSources < 1 {
		return nil, invalidKey(MinValidSourcesKey, fmt.Errorf("must be at least 1"))
	}
	if cfg.Quorum < 0 {
		return nil, invalidKey(QuorumKey, fmt.Errorf("must not be negative"))
	}
	if cfg.QuorumTolerance, err = decimal.NewFromString(vip.GetString(QuorumToleranceKey)); err != nil {
		return nil, invalidKey(QuorumToleranceKey, err)
	}
	if cfg.QuorumTolerance.IsNegative() || cfg.QuorumTolerance.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, invalidKey(QuorumToleranceKey, fmt.Errorf("must be in range [0, 1)"))
	}
	if cfg.SourceRateLimit <= 0 {
		return nil, invalidKey(SourceRateLimitKey, fmt.Errorf("must be greater than zero"))
	}
	if cfg.HeartbeatMultiplier < 1 {
		return nil, invalidKey(HeartbeatMultiplierKey, fmt.Errorf("must be at least 1"))
	}

	if cfg.EnableArbitrage {
		if cfg.BaseCurrency == "" {
			return nil, missingKey(BaseCurrencyKey)
		}
		if cfg.ArbitrageThreshold <= 0 || cfg.ArbitrageThreshold >= 1 {
			return nil, invalidKey(ArbitrageThresholdKey, fmt.Errorf("must be in range (0, 1)"))
		}
		if cfg.SlippageTolerance < 0 || cfg.SlippageTolerance >= 1 {
			return nil, invalidKey(SlippageToleranceKey, fmt.Errorf("must be in range [0, 1)"))
		}
	}
	if cfg.NoiseInterval > 0 && cfg.NoiseBps <= 0 {
		return nil, invalidKey(NoiseBpsKey, fmt.Errorf("must be greater than zero"))
	}

	if cfg.AlertWebhook != "" {
		if u, err := url.ParseRequestURI(cfg.AlertWebhook); err != nil || u.Host == "" {
			return nil, invalidKey(AlertWebhookKey, fmt.Errorf("must be a valid URL"))
		}
	}
	if cfg.LogLevel, err = parseLogLevel(vip.GetString(LogLevelKey)); err != nil {
		return nil, invalidKey(LogLevelKey, err)
	}
	if cfg.Env != EnvDevelopment && cfg.Env != EnvProduction {
		return nil, invalidKey(EnvKey, fmt.Errorf("must be either %s or %s", EnvDevelopment, EnvProduction))
	}

	return cfg, nil
}

// Policy returns the policy combining the quotes of the sources of a symbol.
func (c *Config) Policy() pricefeeder.Policy {
	if c.Quorum > 0 {
		return pricefeeder.Quorum{K: c.Quorum, Tolerance: c.QuorumTolerance}
	}
	return pricefeeder.Median{MinValid: c.MinValidSources}
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// ListeningAddress is the address of the health interface.
func (c *Config) ListeningAddress() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) validateSources() error {
	for _, s := range c.Symbols {
		for _, name := range s.Exchanges {
			source, err := pricefetcher.NormalizeSourceName(name)
			if err != nil {
				return invalidKey(ExchangesKey(s.Symbol), err)
			}
			if source == pricefetcher.SourceCryptoCompare && c.CryptoCompareAPIKey == "" {
				return missingKey(CryptoCompareAPIKeyKey)
			}
			if source == pricefetcher.SourceAlphaVantage && c.AlphaVantageAPIKey == "" {
				return missingKey(AlphaVantageAPIKeyKey)
			}
		}
	}
	return nil
}

// ExchangesKey returns the key listing the sources of the given symbol.
func ExchangesKey(s domain.Symbol) string {
	return ExchangesKeyPrefix + nonAlphanumeric.ReplaceAllString(s.Base(), "_") +
		"_" + nonAlphanumeric.ReplaceAllString(s.Quote(), "_")
}

func parseSymbols(vip *viper.Viper) ([]application.SymbolConfig, error) {
	entries := splitList(vip.GetString(SymbolsKey))
	if len(entries) == 0 {
		return nil, missingKey(SymbolsKey)
	}
	currencies, err := domain.ParseCurrencyMap(splitList(vip.GetString(CurrenciesKey)))
	if err != nil {
		return nil, invalidKey(CurrenciesKey, err)
	}

	seen := make(map[domain.Symbol]bool, len(entries))
	symbols := make([]application.SymbolConfig, 0, len(entries))
	for _, e := range entries {
		symbol, err := domain.ParseSymbol(e)
		if err != nil {
			return nil, invalidKey(SymbolsKey, err)
		}
		if seen[symbol] {
			return nil, invalidKey(SymbolsKey, fmt.Errorf("duplicated symbol %s", symbol))
		}
		seen[symbol] = true

		key := ExchangesKey(symbol)
		exchanges := splitList(vip.GetString(key))
		if len(exchanges) == 0 {
			return nil, missingKey(key)
		}
		symbols = append(symbols, application.SymbolConfig{
			Symbol:    symbol,
			Currency:  currencies.CurrencyOf(symbol),
			Exchanges: exchanges,
		})
	}
	return symbols, nil
}

func parseLedgerURL(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", missingKey(LedgerURLKey)
	}
	u, err := url.Parse(v)
	if err != nil {
		return "", invalidKey(LedgerURLKey, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "ws", "wss":
	default:
		return "", invalidKey(LedgerURLKey, fmt.Errorf("unsupported scheme %q", u.Scheme))
	}
	if u.Host == "" {
		return "", invalidKey(LedgerURLKey, fmt.Errorf("missing host"))
	}
	return v, nil
}

// parseDuration accepts Go durations or a number of milliseconds.
func parseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(v)
}

func parseLogLevel(v string) (log.Level, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		if n < int(log.PanicLevel) || n > int(log.TraceLevel) {
			return 0, fmt.Errorf("level %d out of range", n)
		}
		return log.Level(n), nil
	}
	return log.ParseLevel(v)
}

func splitList(v string) []string {
	list := make([]string, 0)
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}
	return list
}

func missingKey(key string) error {
	return fmt.Errorf("%w: %s_%s", ErrMissingKey, EnvPrefix, key)
}

func invalidKey(key string, err error) error {
	return fmt.Errorf("%w %s_%s: %s", ErrInvalidKey, EnvPrefix, key, err)
}
