// Aplica as migrations SQL (sqlite ou postgres, conforme DB_DRIVER) com
// controle de versão na tabela schema_migrations.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/mattn/go-sqlite3"

	"github.com/zapify/zapify/internal/config"
)

func main() {
	pgDir := flag.String("migrations", "db/migrations/postgres", "Diretório de migrations PostgreSQL")
	sqliteDir := flag.String("migrations-sqlite", "db/migrations/sqlite", "Diretório de migrations SQLite")
	flag.Parse()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch cfg.Storage.Driver {
	case "sqlite", "":
		log.Println("migrate: usando SQLite")
		runSQLite(ctx, cfg, *sqliteDir)
	case "postgres":
		log.Println("migrate: usando PostgreSQL")
		runPostgres(ctx, cfg, *pgDir)
	default:
		log.Fatalf("migrate: driver desconhecido: %s", cfg.Storage.Driver)
	}
}

func runSQLite(ctx context.Context, cfg config.Config, dir string) {
	if err := os.MkdirAll(cfg.Storage.DataDir, 0755); err != nil {
		log.Fatalf("migrate: erro ao criar diretório: %v", err)
	}

	dbPath := filepath.Join(cfg.Storage.DataDir, "zapify.db")
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", dbPath))
	if err != nil {
		log.Fatalf("migrate: falha ao abrir SQLite: %v", err)
	}
	defer db.Close()

	log.Printf("migrate: conectado ao SQLite em %s", dbPath)

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		log.Fatalf("migrate: falha ao preparar schema_migrations: %v", err)
	}

	files, err := listSQLFiles(dir, ".up.sql")
	if err != nil {
		log.Fatalf("migrate: listar migrations: %v", err)
	}

	for _, file := range files {
		version := filepath.Base(file)

		var count int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&count); err != nil {
			log.Fatalf("migrate: verificar %s: %v", version, err)
		}
		if count > 0 {
			continue
		}

		log.Printf("migrate: aplicando %s ...", version)
		stmts, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("migrate: ler %s: %v", version, err)
		}

		// O driver sqlite3 não executa múltiplos statements de uma vez.
		for _, stmt := range strings.Split(string(stmts), ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				log.Fatalf("migrate: executar %s: %v", version, err)
			}
		}

		if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			log.Fatalf("migrate: registrar %s: %v", version, err)
		}
		log.Printf("migrate: %s aplicado.", version)
	}

	log.Println("migrate: concluído com sucesso.")
}

func runPostgres(ctx context.Context, cfg config.Config, dir string) {
	pool, err := pgxpool.New(ctx, cfg.DB.DSN())
	if err != nil {
		log.Fatalf("migrate: falha ao conectar no banco: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`); err != nil {
		log.Fatalf("migrate: falha ao preparar schema_migrations: %v", err)
	}

	files, err := listSQLFiles(dir, ".up.sql")
	if err != nil {
		log.Fatalf("migrate: listar migrations: %v", err)
	}

	for _, file := range files {
		version := filepath.Base(file)

		var exists bool
		if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, version).Scan(&exists); err != nil {
			log.Fatalf("migrate: verificar %s: %v", version, err)
		}
		if exists {
			continue
		}

		log.Printf("migrate: aplicando %s ...", version)
		stmts, err := os.ReadFile(file)
		if err != nil {
			log.Fatalf("migrate: ler %s: %v", version, err)
		}
		if _, err := pool.Exec(ctx, string(stmts)); err != nil {
			log.Fatalf("migrate: executar %s: %v", version, err)
		}
		if _, err := pool.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			log.Fatalf("migrate: registrar %s: %v", version, err)
		}
		log.Printf("migrate: %s aplicado.", version)
	}

	log.Println("migrate: concluído com sucesso.")
}

func listSQLFiles(dir, suffix string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
