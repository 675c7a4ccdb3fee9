package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "vouch-graph/backend/pkg/errors"
)

// Data source names accepted by DATA_SOURCE
const (
	DataSourceMock  = "mock"
	DataSourceNeo4j = "neo4j"
)

// Config holds all application configuration
type Config struct {
	// App
	Port      string
	Env       string
	LogFile   string // Log destination for the terminal viewer
	PublicURL string // Base URL advertised in frame responses

	// Graph data
	DataSource string // mock or neo4j (server)
	DataURL    string // Where the viewer fetches GraphData from
	MockNodes  int
	MockLinks  int

	// Neo4j
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string

	// Name resolution
	RPCURL             string // Ethereum JSON-RPC endpoint, empty disables reverse lookups
	ENSRegistry        string
	ResolveTimeout     time.Duration
	ResolveConcurrency int
	RPCRateLimit       float64 // Requests per second against RPCURL
	ProfileURLTemplate string  // fmt template taking a handle, empty disables avatar discovery

	// Identity
	CurrentUser string

	// Layout
	LinkDistance   float64
	ChargeStrength float64
	TickInterval   time.Duration
	CanvasWidth    float64
	CanvasHeight   float64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogFile:            getEnv("LOG_FILE", "vouchgraph.log"),
		PublicURL:          strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:8080"), "/"),
		DataSource:         strings.ToLower(getEnv("DATA_SOURCE", DataSourceMock)),
		DataURL:            getEnv("DATA_URL", "http://localhost:8080/api/vouching-data"),
		MockNodes:          getEnvInt("MOCK_NODES", 50),
		MockLinks:          getEnvInt("MOCK_LINKS", 100),
		Neo4jURI:           getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:          getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:      getEnv("NEO4J_PASSWORD", ""),
		RPCURL:             getEnv("RPC_URL", ""),
		ENSRegistry:        getEnv("ENS_REGISTRY", "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"),
		ResolveTimeout:     time.Duration(getEnvInt("RESOLVE_TIMEOUT_MS", 3000)) * time.Millisecond,
		ResolveConcurrency: getEnvInt("RESOLVE_CONCURRENCY", 8),
		RPCRateLimit:       getEnvFloat("RPC_RATE_LIMIT", 10),
		ProfileURLTemplate: getEnv("PROFILE_URL_TEMPLATE", ""),
		CurrentUser:        getEnv("CURRENT_USER", ""),
		LinkDistance:       getEnvFloat("LINK_DISTANCE", 100),
		ChargeStrength:     getEnvFloat("CHARGE_STRENGTH", -200),
		TickInterval:       time.Duration(getEnvInt("TICK_INTERVAL_MS", 16)) * time.Millisecond,
		CanvasWidth:        getEnvFloat("CANVAS_WIDTH", 800),
		CanvasHeight:       getEnvFloat("CANVAS_HEIGHT", 600),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	switch c.DataSource {
	case DataSourceMock:
	case DataSourceNeo4j:
		if c.Neo4jURI == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_URI")
		}
		if c.Neo4jUser == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_USER")
		}
		if c.Neo4jPassword == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
		}
	default:
		return apperrors.NewConfigValidationFailed("DATA_SOURCE", fmt.Sprintf("unknown source %q", c.DataSource))
	}
	if c.ResolveTimeout <= 0 {
		return apperrors.NewConfigValidationFailed("RESOLVE_TIMEOUT_MS", "must be positive")
	}
	if c.ResolveConcurrency < 1 {
		return apperrors.NewConfigValidationFailed("RESOLVE_CONCURRENCY", "must be at least 1")
	}
	if c.RPCRateLimit <= 0 {
		return apperrors.NewConfigValidationFailed("RPC_RATE_LIMIT", "must be positive")
	}
	if c.LinkDistance <= 0 {
		return apperrors.NewConfigValidationFailed("LINK_DISTANCE", "must be positive")
	}
	if c.TickInterval <= 0 {
		return apperrors.NewConfigValidationFailed("TICK_INTERVAL_MS", "must be positive")
	}
	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		return apperrors.NewConfigValidationFailed("CANVAS_WIDTH/CANVAS_HEIGHT", "must be positive")
	}
	if c.MockNodes < 2 && c.MockLinks > 0 {
		return apperrors.NewConfigValidationFailed("MOCK_NODES", "links need at least two nodes")
	}
	// RPC URL and current user are optional; their absence is a normal setup
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LookupsEnabled reports whether a naming provider endpoint is configured
func (c *Config) LookupsEnabled() bool {
	return c.RPCURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
