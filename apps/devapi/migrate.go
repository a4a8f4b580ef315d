package main

import (
	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/storage/database"
)

var migrateFunc = runMigrations // mockable

func (cli *commandLine) migrate(args []string) error {
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return migrateFunc(cli.conf, args[0], arguments...)
}

func runMigrations(conf *core.Config, command string, args ...string) error {
	if err := database.CreateIfNotExist(conf); err != nil {
		return err
	}
	db, err := database.Open(conf)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return database.RunMigrations(db.DB, command, args...)
}
