package config

import (
	"os"
	"strconv"
	"time"
)

type Slack struct {
	SigningSecret   string        // shared secret for request signing; empty means reject everything
	SignatureHeader string        // HTTP header carrying the request signature
	TimestampHeader string        // HTTP header carrying the request timestamp
	ReplayLeeway    time.Duration // max allowed |now - timestamp|
}

type Arco struct {
	StaticToken string // static credential exchanged for a short-lived token
	TokenURL    string // token endpoint
	OrdersURL   string // order query endpoint
}

type Retry struct {
	MaxAttempts    int           // max attempts per outbound call
	AttemptTimeout time.Duration // per-attempt HTTP timeout
	BackoffBase    time.Duration // first backoff interval
	BackoffCap     time.Duration // upper bound on any backoff interval
}

type Defaults struct {
	Brand       string // brand when the command omits it
	ProjectYear int    // project year when omitted or non-numeric
	AgingDays   int    // aging window when omitted
}

type FakeArco struct {
	FailFirstN      int           // number of requests to fail initially
	ResponseDelayMS int           // simulated response delay in milliseconds
	Port            string        // server listen port
	ReadTimeout     time.Duration // HTTP read timeout
	WriteTimeout    time.Duration // HTTP write timeout
	IdleTimeout     time.Duration // HTTP idle timeout
}

type Config struct {
	AppName  string
	HTTPPort string // :8080
	Slack    Slack
	Arco     Arco
	Retry    Retry
	Defaults Defaults
	FakeArco FakeArco
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func FromEnv() Config {
	return Config{
		AppName:  getenv("APP_NAME", "arcorelay"),
		HTTPPort: getenv("HTTP_PORT", ":8080"),
		Slack: Slack{
			SigningSecret:   getenv("SLACK_SIGNING_SECRET", ""),
			SignatureHeader: getenv("SLACK_SIGNATURE_HEADER", "X-Signature"),
			TimestampHeader: getenv("SLACK_TIMESTAMP_HEADER", "X-Request-Timestamp"),
			ReplayLeeway:    getenvDuration("SLACK_REPLAY_LEEWAY", 300*time.Second),
		},
		Arco: Arco{
			StaticToken: getenv("ARCO_STATIC_TOKEN", ""),
			TokenURL:    getenv("ARCO_TOKEN_URL", "https://webservice.raizessolucoes.com.br/arco/gerartoken"),
			OrdersURL:   getenv("ARCO_ORDERS_URL", "https://webservice.raizessolucoes.com.br/arco/pedidos"),
		},
		Retry: Retry{
			MaxAttempts:    getenvInt("MAX_ATTEMPTS", 5),
			AttemptTimeout: getenvDuration("ATTEMPT_TIMEOUT", 15*time.Second),
			BackoffBase:    getenvDuration("BACKOFF_BASE", 1*time.Second),
			BackoffCap:     getenvDuration("BACKOFF_CAP", 60*time.Second),
		},
		Defaults: Defaults{
			Brand:       getenv("DEFAULT_BRAND", "nave"),
			ProjectYear: getenvInt("DEFAULT_PROJECT_YEAR", 2024),
			AgingDays:   getenvInt("DEFAULT_AGING_DAYS", 7),
		},
		FakeArco: FakeArco{
			FailFirstN:      getenvInt("FAIL_FIRST_N", 0),
			ResponseDelayMS: getenvInt("RESPONSE_DELAY_MS", 0),
			Port:            getenv("FAKE_ARCO_PORT", ":8091"),
			ReadTimeout:     getenvDuration("FAKE_ARCO_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getenvDuration("FAKE_ARCO_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getenvDuration("FAKE_ARCO_IDLE_TIMEOUT", 60*time.Second),
		},
	}
}
