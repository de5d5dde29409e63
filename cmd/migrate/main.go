// migrate aplica en orden lexicográfico los archivos .sql de
// internal/infrastructure/postgres/migrations contra la base configurada.
//
// Uso: go run ./cmd/migrate [ruta/migrations]
// La conexión se toma de DATABASE_URL o de las variables DB_* habituales.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/stock-ledger-api/pkg/config"
)

func main() {
	dir := "internal/infrastructure/postgres/migrations"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer directorio de migraciones: %v\n", err)
		os.Exit(1)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "Sin archivos .sql en %s\n", dir)
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.DB.ConnectionString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conectar a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	for _, name := range files {
		sql, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Leer %s: %v\n", name, err)
			os.Exit(1)
		}
		if _, err := conn.Exec(ctx, string(sql)); err != nil {
			fmt.Fprintf(os.Stderr, "Aplicar %s: %v\n", name, err)
			os.Exit(1)
		}
		fmt.Printf("Aplicada %s\n", name)
	}
	fmt.Println("Migraciones completas")
}
