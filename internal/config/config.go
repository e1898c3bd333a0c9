package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all configuration for our application
type Config struct {
	Port                      string
	Origin                    string
	Environment               string
	JWTSecret                 string
	JWTRefreshSecret          string
	Database                  DatabaseConfig
	Stripe                    StripeConfig
	JWTExpirationMinutes      int
	JWTRefreshExpirationHours int
	AppURL                    string
}

// DatabaseConfig holds database connection details
type DatabaseConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Name     string
	DSN      string
}

// StripeConfig holds the billing provider credentials.
type StripeConfig struct {
	SecretKey          string
	WebhookSecret      string
	EssentialPriceID   string
	CheckoutSuccessURL string
	CheckoutCancelURL  string
}

// Enabled reports whether billing is configured at all.
func (s StripeConfig) Enabled() bool {
	return s.SecretKey != ""
}

// Validate rejects a partially configured billing setup. An empty webhook
// secret would make every delivery unverifiable, so startup fails fast
// instead of silently degrading.
func (s StripeConfig) Validate() error {
	if !s.Enabled() {
		return nil
	}
	if s.WebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required when STRIPE_SECRET_KEY is set")
	}
	if s.EssentialPriceID == "" {
		return fmt.Errorf("STRIPE_ESSENTIAL_PLAN_PRICE_ID is required when STRIPE_SECRET_KEY is set")
	}
	return nil
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load database configuration
	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "3306"),
		Username: getEnv("DB_USERNAME", "root"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "clinic_agenda"),
	}

	// Build DSN (Data Source Name) for MySQL connection
	dbConfig.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		dbConfig.Username, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name)

	appURL := getEnv("APP_URL", "http://localhost:3001")

	stripeConfig := StripeConfig{
		SecretKey:          getEnv("STRIPE_SECRET_KEY", ""),
		WebhookSecret:      getEnv("STRIPE_WEBHOOK_SECRET", ""),
		EssentialPriceID:   getEnv("STRIPE_ESSENTIAL_PLAN_PRICE_ID", ""),
		CheckoutSuccessURL: getEnv("STRIPE_SUCCESS_URL", appURL+"/dashboard?success=true"),
		CheckoutCancelURL:  getEnv("STRIPE_CANCEL_URL", appURL+"/dashboard?canceled=true"),
	}
	if err := stripeConfig.Validate(); err != nil {
		return nil, err
	}

	jwtExpMinutes, err := strconv.Atoi(getEnv("JWT_EXPIRATION_MINUTES", "15"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRATION_MINUTES: %w", err)
	}

	jwtRefreshExpHours, err := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168")) // 7 days
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_REFRESH_EXPIRATION_HOURS: %w", err)
	}

	// Return complete configuration
	return &Config{
		Port:                      getEnv("PORT", "3001"),
		Origin:                    getEnv("ORIGIN", "http://localhost:4200"),
		Environment:               getEnv("APP_ENV", "development"),
		JWTSecret:                 getEnv("JWT_SECRET", "default_jwt_secret"),
		JWTRefreshSecret:          getEnv("JWT_REFRESH_SECRET", "default_refresh_secret"),
		Database:                  dbConfig,
		Stripe:                    stripeConfig,
		JWTExpirationMinutes:      jwtExpMinutes,
		JWTRefreshExpirationHours: jwtRefreshExpHours,
		AppURL:                    appURL,
	}, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
