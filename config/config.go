package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string

	// Store is "postgres" or "memory". Memory keeps everything in-process
	// and is meant for tests and throwaway deployments.
	Store      string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RabbitURL string
	RedisAddr string

	// ReservationWindow is how long an unpaid reservation holds its seats.
	ReservationWindow time.Duration
	// SweepInterval is how often the expiration sweeper polls.
	SweepInterval time.Duration
	// NotifyQueueDepth bounds the fire-and-forget notification queue.
	NotifyQueueDepth int
	// PaymentInstruction is the bank-transfer instruction template sent
	// with payment.created notifications; it receives the amount and the
	// booking id.
	PaymentInstruction string
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		Store:              getEnv("STORE", "postgres"),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "postgres"),
		DBPassword:         getEnv("DB_PASSWORD", "postgres"),
		DBName:             getEnv("DB_NAME", "banket"),
		DBSSLMode:          getEnv("DB_SSLMODE", "disable"),
		RabbitURL:          getEnv("RABBITMQ_URL", ""),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		ReservationWindow:  getDuration("RESERVATION_WINDOW", 15*time.Minute),
		SweepInterval:      getDuration("SWEEP_INTERVAL", time.Minute),
		NotifyQueueDepth:   getInt("NOTIFY_QUEUE_DEPTH", 256),
		PaymentInstruction: getEnv("PAYMENT_INSTRUCTION", "Pay %d by bank transfer and quote booking %s in the reference."),
	}
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
