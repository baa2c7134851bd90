package main

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"jobboard/internal/auth"
	"jobboard/internal/config"
	"jobboard/internal/database"
)

// admin 创建一个需要首次改密的审核管理员账号，初始密码只打印一次。
func main() {
	var (
		username = flag.String("username", "", "管理员用户名（必填）")
		email    = flag.String("email", "", "管理员邮箱（可选）")
		dbHost   = flag.String("db-host", "", "数据库 Host（默认读 DATABASE_HOST）")
		dbPort   = flag.Int("db-port", 0, "数据库 Port（默认读 DATABASE_PORT）")
		dbName   = flag.String("db-name", "", "数据库名（默认读 POSTGRES_DB）")
		dbUser   = flag.String("db-user", "", "数据库用户（默认读 POSTGRES_USER）")
		dbPass   = flag.String("db-password", "", "数据库密码（默认读 POSTGRES_PASSWORD）")
		sslMode  = flag.String("db-sslmode", "", "数据库 SSLMODE（默认读 DATABASE_SSLMODE）")
	)
	flag.Parse()

	name := strings.TrimSpace(*username)
	if name == "" {
		log.Fatal("missing required flag: --username")
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Fatalf("load .env: %v", err)
	}

	dbCfg, err := databaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	var existing database.Admin
	switch err := db.Where("username = ?", name).First(&existing).Error; {
	case err == nil:
		log.Fatalf("admin %q already exists", name)
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		log.Fatalf("query admin: %v", err)
	}

	password, err := randomPassword(24)
	if err != nil {
		log.Fatalf("generate password: %v", err)
	}
	hashed, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	admin := database.Admin{
		Username:           name,
		Email:              strings.TrimSpace(*email),
		PasswordHash:       hashed,
		MustChangePassword: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatalf("create admin: %v", err)
	}

	fmt.Printf("Admin account created (password change required on first login)\n")
	fmt.Printf("username: %s\n", name)
	fmt.Printf("password: %s\n", password)
	fmt.Printf("The password is shown only once.\n")
}

// databaseConfig 以命令行参数优先，其次读取环境变量。
func databaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	if port <= 0 {
		if raw := strings.TrimSpace(os.Getenv("DATABASE_PORT")); raw != "" {
			p, err := strconv.Atoi(raw)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		} else {
			port = 5432
		}
	}

	cfg := config.DatabaseConfig{
		Host:     firstNonEmpty(host, os.Getenv("DATABASE_HOST"), "localhost"),
		Port:     port,
		Name:     firstNonEmpty(name, os.Getenv("POSTGRES_DB")),
		User:     firstNonEmpty(user, os.Getenv("POSTGRES_USER")),
		Password: firstNonEmpty(password, os.Getenv("POSTGRES_PASSWORD")),
		SSLMode:  firstNonEmpty(sslmode, os.Getenv("DATABASE_SSLMODE"), "disable"),
	}
	switch {
	case cfg.Name == "":
		return cfg, errors.New("database name is required (POSTGRES_DB)")
	case cfg.User == "":
		return cfg, errors.New("database user is required (POSTGRES_USER)")
	case cfg.Password == "":
		return cfg, errors.New("database password is required (POSTGRES_PASSWORD)")
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func randomPassword(bytesLen int) (string, error) {
	buf := make([]byte, bytesLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
