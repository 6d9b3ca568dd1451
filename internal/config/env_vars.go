package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	backendURLVar = "BACKEND_URL"
	folderEnvVar  = "FOLDER"
	redisAddrVar  = "REDIS_ADDR"
)

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBackendURL() string
	GetDataFolder() string
	GetRedisAddr() string
	GetEnv() string
}

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8090")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "SGC Portal")
}

// GetBackendURL returns the clinic REST base URL, API prefix included.
func (EnvVars) GetBackendURL() string {
	return GetEnv(backendURLVar, "http://localhost:8000/api/v1")
}

// GetDataFolder is where the persisted session blob lives.
func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

// GetRedisAddr, when non-empty, switches session persistence from the data
// folder to Redis.
func (EnvVars) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
