package config

import (
	"io"
	"time"
)

// TimeConfig defines helpers for retrieving time-based configuration values.
type TimeConfig interface {
	// GetSecond retrieves the value for key as a number of seconds.
	GetSecond(key string) time.Duration

	// GetMinute retrieves the value for key as a number of minutes.
	GetMinute(key string) time.Duration
}

// Config defines the read-only view of application settings.
//
// Missing keys resolve to the registered default or to the zero value. Every
// key can be overridden by an environment variable: the key upper-cased, dots
// replaced by underscores and prefixed with the env prefix, for example
// modules.verification.otp.ttl -> CONTACTGATE_MODULES_VERIFICATION_OTP_TTL.
type Config interface {
	io.Closer
	TimeConfig

	// GetInt retrieves the value for key as an int.
	GetInt(key string) int

	// GetInt64 retrieves the value for key as an int64.
	GetInt64(key string) int64

	// GetFloat64 retrieves the value for key as a float64.
	GetFloat64(key string) float64

	// GetBool retrieves the value for key as a bool.
	GetBool(key string) bool

	// GetString retrieves the value for key as a string.
	GetString(key string) string

	// GetArray retrieves the value for key as a list. Both YAML sequences and
	// comma separated strings are accepted; blanks are dropped.
	GetArray(key string) []string

	// GetMap retrieves the value for key parsed from "k:v,k:v" pairs.
	GetMap(key string) map[string]string
}

// Defaults are the fallback values applied before the file is read.
var Defaults = map[string]any{
	"app.name":                    "contactgate",
	"app.env":                     "development",
	"app.version":                 "dev",
	"app.node_id":                 1,
	"app.server.address":          ":8080",
	"app.server.trust_proxy":      false,
	"app.server.timeout.read":     10,
	"app.server.timeout.write":    10,
	"app.server.timeout.idle":     60,
	"app.server.timeout.shutdown": 15,
	"app.server.rate_limit.rps":   1.0,
	"app.server.rate_limit.burst": 5,
	"app.server.cors.origins":     "*",
	"app.server.cors.headers":     "authorization,x-client-info,apikey,content-type,x-supabase-client-platform,x-supabase-client-platform-version,x-supabase-client-runtime,x-supabase-client-runtime-version",
	"app.goroutine.max":           64,

	"instrument.enabled":           false,
	"instrument.otlp_endpoint":     "localhost:4317",
	"instrument.otlp_secure":       false,
	"instrument.log_level":         "info",
	"instrument.trace_sample_rate": 1.0,
	"instrument.metrics_interval":  15,
	"instrument.mask_fields":       "otp,code,verification_token,verificationToken,password,authorization",

	"hash.hmac.secret":   "",
	"hash.hmac.previous": "",

	"database.url":                              "",
	"database.pool.max_conns":                   10,
	"database.pool.min_conns":                   1,
	"database.pool.max_conn_lifetime_seconds":   3600,
	"database.pool.max_conn_idle_seconds":       300,
	"database.pool.health_check_period_seconds": 30,

	"redis.url":                "",
	"redis.idempotency_prefix": "contactgate:idempotency:",

	"aws.region":            "us-east-1",
	"aws.endpoint":          "",
	"aws.access_key_id":     "",
	"aws.secret_access_key": "",

	"mail.driver":   "log",
	"mail.host":     "localhost",
	"mail.port":     1025,
	"mail.username": "",
	"mail.password": "",
	"mail.from":     "no-reply@contactgate.local",

	"messaging.driver":                       "memory",
	"messaging.memory.buffer":                128,
	"messaging.kafka.brokers":                "localhost:9092",
	"messaging.kafka.dial_timeout_seconds":   10,
	"messaging.nats.url":                     "nats://localhost:4222",
	"messaging.nats.max_reconnects":          60,
	"messaging.nats.timeout_seconds":         5,
	"messaging.nats.reconnect_wait_seconds":  2,
	"messaging.nats.retry_on_failed_connect": true,

	"modules.verification.otp.ttl":              300,
	"modules.verification.otp.cooldown":         60,
	"modules.verification.otp.max_attempts":     3,
	"modules.verification.store.driver":         "memory",
	"modules.verification.store.dynamodb.table": "otp_records",
	"modules.verification.delivery.async":       true,
	"modules.verification.serialize_per_email":  true,
	"modules.verification.credential.secret":    "",
	"modules.verification.credential.ttl":       30,
	"modules.verification.credential.issuer":    "contactgate",
	"modules.verification.credential.audiences": "contact",

	"modules.contact.enabled":              false,
	"modules.contact.owner_email":          "",
	"modules.contact.consumer_names":       "contact_message_submitted_owner_notification",
	"modules.contact.consumer_concurrency": 4,
	"modules.contact.db.auto_migrate":      true,
}
