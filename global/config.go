package global

import (
	"os"
	"strconv"
	"sync"
	"time"

	ids "TMProject/tools/ids"
)

// 存储驱动：memory 便于本地/测试；postgres 为默认生产引擎；mongo 为可选引擎
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type AppConfig struct {
	HTTPAddr string

	StoreDriver string

	PgDSN string

	MongoURI string
	MongoDB  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JwtSecret string
	TokenTTL  time.Duration
}

var (
	cfgOnce sync.Once
	appCfg  *AppConfig
)

func Config() *AppConfig {
	cfgOnce.Do(func() {
		appCfg = &AppConfig{
			HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
			StoreDriver:   getenv("CHAT_STORE_DRIVER", DriverMemory),
			PgDSN:         getenv("PG_DSN", ""),
			MongoURI:      getenv("MONGO_URI", "mongodb://localhost:27017"),
			MongoDB:       getenv("MONGO_DB", "taskchat"),
			RedisAddr:     getenv("REDIS_ADDR", ""),
			RedisPassword: getenv("REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("REDIS_DB", 0),
			JwtSecret:     getenv("JWT_SECRET", "mN9b1f8zPq+W2xjX/45sKcVd0TfyoG+3Hp5Z8q9Rj1o="),
			TokenTTL:      time.Duration(getenvInt("TOKEN_TTL_MINUTES", 120)) * time.Minute,
		}
	})
	return appCfg
}

func GetJwtSecret() []byte {
	return []byte(Config().JwtSecret)
}

func ConfigIds() {
	ids.SetNodeID(int64(getenvInt("NODE_ID", 100)))
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
