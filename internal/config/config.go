package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DBUrl              string
	JWTSecret          string
	SupabaseURL        string
	SupabaseBucket     string
	SupabaseServiceKey string
	AppEnv             string

	VAPIDPublicKey  string
	VAPIDPrivateKey string
	PushSubscriber  string

	AdminPrincipalPassword   string
	AdminTeacherPassword     string
	AdminCoordinatorPassword string
	AdminParentRepPassword   string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &Config{
		Port:               getEnv("PORT", "8080"),
		DBUrl:              getEnv("DB_URL", ""),
		JWTSecret:          jwtSecret,
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseBucket:     getEnv("SUPABASE_BUCKET", "chat-attachments"),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
		AppEnv:             normalizeEnv(getEnv("APP_ENV", "production")),

		VAPIDPublicKey:  getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: getEnv("VAPID_PRIVATE_KEY", ""),
		PushSubscriber:  getEnv("PUSH_SUBSCRIBER", "mailto:push@edu-harmony.local"),

		// school-issued defaults, meant to be overridden per deployment
		AdminPrincipalPassword:   getEnv("ADMIN_PRINCIPAL_PASSWORD", "ST2024PRIN"),
		AdminTeacherPassword:     getEnv("ADMIN_TEACHER_PASSWORD", "ST2024TEACH"),
		AdminCoordinatorPassword: getEnv("ADMIN_COORDINATOR_PASSWORD", "ST2024COORD"),
		AdminParentRepPassword:   getEnv("ADMIN_PARENT_REP_PASSWORD", "ST2024PARENT"),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
