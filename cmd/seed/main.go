package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/enterprise/user-service/config"
	"github.com/enterprise/user-service/pkg/validation"
)

type seedUser struct {
	Name  string `json:"name" binding:"required,min=2,max=50"`
	Email string `json:"email" binding:"required,email,max=255"`
}

var demoUsers = []seedUser{
	{Name: "John Doe", Email: "john.doe@example.com"},
	{Name: "Jane Smith", Email: "jane.smith@example.com"},
	{Name: "Alex Kim", Email: "alex.kim@example.com"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	validation.Init()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, u := range demoUsers {
		if errs := validation.Validate(u); len(errs) > 0 {
			log.Fatalf("invalid seed user %s: %v", u.Email, errs)
		}
		res, err := db.Exec(`
			INSERT INTO users (name, email, is_active)
			VALUES ($1, $2, TRUE)
			ON CONFLICT (email) DO NOTHING
		`, u.Name, u.Email)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", u.Email, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			fmt.Printf("exists: %s\n", u.Email)
			continue
		}
		fmt.Printf("seeded: %s (%s)\n", u.Email, u.Name)
	}
}
