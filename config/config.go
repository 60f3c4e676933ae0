package config

import (
	"fmt"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDB opens the database selected by DB_DRIVER. MySQL is the
// production backend; anything else falls back to a local SQLite file
// so the service runs without extra setup.
func InitDB() (*gorm.DB, error) {
	if os.Getenv("DB_DRIVER") == "mysql" {
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			getenv("DB_HOST", "127.0.0.1"),
			getenv("DB_PORT", "3306"),
			getenv("DB_NAME", "cakeshop"),
		)
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	}

	path := getenv("DB_PATH", "cakeshop.db")
	return gorm.Open(sqlite.Open(path), &gorm.Config{})
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
