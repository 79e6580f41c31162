package config

import (
	"os"
	"strconv"
	"strings"
)

// applyEnv overrides file-provided values from the environment.
// Falls back to whatever is already set if a variable is absent or malformed.
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("MEMORACT_ADDR")); v != "" {
		c.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("MEMORACT_DATA_DIR")); v != "" {
		c.Storage.DataDir = v
	}
	if v := getEnvInt64("MEMORACT_VERIFY_SEED"); v != 0 {
		c.Verification.Seed = v
	}
	if v := getEnvInt("MEMORACT_RESULT_DISPLAY_MS"); v > 0 {
		c.Verification.ResultDisplayMS = v
	}
	if v := getEnvFloat("MEMORACT_PHOTO_SUCCESS_RATE"); v > 0 && v <= 1 {
		c.Verification.Photo.SuccessRate = v
	}
	if v := getEnvFloat("MEMORACT_FACE_SUCCESS_RATE"); v > 0 && v <= 1 {
		c.Verification.Face.SuccessRate = v
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("MEMORACT_NOTIFICATIONS"))) {
	case "1", "true", "yes":
		c.Notifications.Enabled = true
	case "0", "false", "no":
		c.Notifications.Enabled = false
	}
}

func getEnvInt(key string) int {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return num
}

func getEnvInt64(key string) int64 {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return num
}

func getEnvFloat(key string) float64 {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0
	}
	return num
}
