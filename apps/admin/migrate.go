package main

import (
	"database/sql"

	"github.com/trezcool/admissions/storage/database"
)

func runMigration(db *sql.DB, command string, args ...string) error {
	m, err := database.NewMigrator(db)
	if err != nil {
		return err
	}
	return database.RunMigration(m, command, args...)
}
