// seed_access crea las tablas del colaborador de identidad/tenant y carga el catálogo
// inicial de features por plan. Opcionalmente asigna rol y PIN a un usuario.
//
// Uso: go run ./cmd/seed_access [-user <id> -role <rol> -pin <pin>]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/restopos-api/internal/domain/entity"
	"github.com/jhoicas/restopos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/restopos-api/pkg/config"
)

func main() {
	userID := flag.String("user", "", "usuario al que asignar rol/PIN")
	role := flag.String("role", "", "rol a asignar (super_admin, admin, manager, cashier, viewer, employee)")
	pin := flag.String("pin", "", "PIN de desbloqueo del terminal")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conexión a PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "Crear tablas: %v\n", err)
		os.Exit(1)
	}

	parsedRole, ok := entity.ParseRole(*role)
	if *role != "" && !ok {
		fmt.Fprintf(os.Stderr, "Rol desconocido: %s\n", *role)
		os.Exit(1)
	}
	if (*role != "" || *pin != "") && *userID == "" {
		fmt.Fprintln(os.Stderr, "-user es obligatorio con -role o -pin")
		os.Exit(1)
	}

	err = postgres.NewTxRunner(pool).Run(ctx, func(repos postgres.SeedRepos) error {
		for plan, flags := range entity.DefaultFeatureCatalog() {
			if err := repos.Features.UpsertFeatureFlags(ctx, plan, flags); err != nil {
				return fmt.Errorf("features %s: %w", plan, err)
			}
		}
		if *role != "" {
			if err := repos.Roles.SetRole(ctx, *userID, parsedRole); err != nil {
				return err
			}
		}
		if *pin != "" {
			if err := repos.Pins.SetPin(ctx, *userID, *pin); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Seed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Catálogo de features cargado (%d planes)\n", len(entity.DefaultFeatureCatalog()))
	if *userID != "" {
		fmt.Printf("Usuario %s actualizado\n", *userID)
	}
}
