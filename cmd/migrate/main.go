package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"schoolyard.org/internal/auth"
	"schoolyard.org/internal/migrate"
	"schoolyard.org/internal/school"
	"schoolyard.org/internal/store/pg"
)

func main() {
	log.SetFlags(0)
	var (
		dsn            = flag.String("dsn", os.Getenv("SCHOOLYARD_PG_DSN"), "PostgreSQL DSN")
		migrationsPath = flag.String("migrations", "ops/migrations/sql", "Path to SQL migrations")
		seedsPath      = flag.String("seeds", "ops/migrations/seeds", "Path to SQL seeds")

		// bootstrap-only flags
		orgID    = flag.String("org", "", "Organization id for bootstrap")
		email    = flag.String("email", "", "Admin email for bootstrap")
		name     = flag.String("name", "Administrator", "Admin full name for bootstrap")
		password = flag.String("password", "", "Initial admin password for bootstrap")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("missing DSN: provide via -dsn or SCHOOLYARD_PG_DSN")
	}
	if len(flag.Args()) == 0 {
		log.Fatal("usage: migrate [up|down|seed|status|bootstrap]")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", *dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	mgr := migrate.NewManager(db, *migrationsPath, *seedsPath)

	switch flag.Arg(0) {
	case "up":
		err = mgr.Up(ctx)
	case "down":
		err = mgr.Down(ctx)
	case "seed":
		err = mgr.Seed(ctx)
	case "status":
		var history []string
		history, err = mgr.Status(ctx)
		if err == nil {
			for _, item := range history {
				fmt.Println(item)
			}
		}
	case "bootstrap":
		err = bootstrap(ctx, *dsn, *orgID, *email, *name, *password)
	default:
		log.Fatalf("unknown command %q", flag.Arg(0))
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
}

// bootstrap creates the first admin of an organization with a properly
// hashed password. The account must change it on first login.
func bootstrap(ctx context.Context, dsn, orgID, email, name, password string) error {
	if orgID == "" || email == "" || password == "" {
		return fmt.Errorf("bootstrap requires -org, -email and -password")
	}
	store, err := pg.Open(dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin, err := store.CreateStaff(ctx, school.StaffMember{
		OrganizationID:     orgID,
		Email:              strings.ToLower(strings.TrimSpace(email)),
		FullName:           name,
		Roles:              []string{"admin"},
		MustChangePassword: true,
	}, hash)
	if err != nil {
		return err
	}
	fmt.Printf("created admin %s (%s)\n", admin.ID, admin.Email)
	return nil
}
