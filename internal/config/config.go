// Package config loads service configuration from the environment.
// Every binary builds the one struct it needs at startup; a bad value is
// a startup failure, never a runtime surprise.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Redis holds the KV store connection settings.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Mongo holds the document store connection settings.
type Mongo struct {
	URI    string
	DBName string
}

// Influx holds the time-series store connection settings.
type Influx struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// Ingest holds the collector pipeline tuning knobs.
type Ingest struct {
	MetricBatchSize     int
	MetricFlushInterval time.Duration
	LogBatchSize        int
	LogFlushInterval    time.Duration
	QueueCapacity       int
}

// Gateway holds the proxy's auth and timeout settings.
type Gateway struct {
	SecretKey      string
	Algorithm      string
	RequestTimeout time.Duration
}

// Server holds the HTTP listener settings shared by every binary.
type Server struct {
	Port     string
	LogLevel string
}

// LoadRedis reads the Redis settings.
func LoadRedis() Redis {
	return Redis{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}
}

// LoadMongo reads the Mongo settings.
func LoadMongo() Mongo {
	return Mongo{
		URI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName: getEnv("MONGO_DB_NAME", "moniflow"),
	}
}

// LoadInflux reads the InfluxDB settings.
func LoadInflux() Influx {
	return Influx{
		URL:    getEnv("INFLUXDB_URL", "http://localhost:8086"),
		Token:  getEnv("INFLUXDB_TOKEN", ""),
		Org:    getEnv("INFLUXDB_ORG", "my-org"),
		Bucket: getEnv("INFLUXDB_BUCKET", "moniflow"),
	}
}

// LoadIngest reads the batching parameters.
func LoadIngest() Ingest {
	return Ingest{
		MetricBatchSize:     getEnvInt("METRIC_BATCH_SIZE", 10),
		MetricFlushInterval: time.Duration(getEnvInt("METRIC_FLUSH_INTERVAL", 5)) * time.Second,
		LogBatchSize:        getEnvInt("LOG_BATCH_SIZE", 10),
		LogFlushInterval:    time.Duration(getEnvInt("LOG_FLUSH_INTERVAL", 5)) * time.Second,
		QueueCapacity:       getEnvInt("INGEST_QUEUE_CAPACITY", 1024),
	}
}

// LoadGateway reads the gateway settings. The signing secret has no
// default; a missing one is a configuration error.
func LoadGateway() (Gateway, error) {
	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		return Gateway{}, fmt.Errorf("SECRET_KEY is required")
	}
	return Gateway{
		SecretKey:      secret,
		Algorithm:      getEnv("ALGORITHM", "HS256"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 5)) * time.Second,
	}, nil
}

// Tracing holds the OTLP exporter settings. Tracing is off unless an
// endpoint is configured.
type Tracing struct {
	Endpoint    string
	Environment string
	Enabled     bool
}

// LoadTracing reads the tracing settings.
func LoadTracing() Tracing {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	return Tracing{
		Endpoint:    endpoint,
		Environment: getEnv("ENVIRONMENT", "development"),
		Enabled:     endpoint != "",
	}
}

// LoadServer reads the listener settings with the given default port.
func LoadServer(defaultPort string) Server {
	return Server{
		Port:     getEnv("PORT", defaultPort),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}
