package main

import (
	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/storage/database"
)

var (
	gooseRunFunc = database.RunMigration // mockable

	errNoDatabase = errors.New("migrations need a postgres database")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	return gooseRunFunc(cli.db, args[0], args[1:]...)
}
