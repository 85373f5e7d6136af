package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/user"
	emailsvc "github.com/trezcool/admissions/services/email"
	logsvc "github.com/trezcool/admissions/services/logger"
	"github.com/trezcool/admissions/storage/database"
	inmemdb "github.com/trezcool/admissions/storage/database/inmem"
	sqlxrepos "github.com/trezcool/admissions/storage/database/sqlx"
)

func main() {
	os.Exit(run())
}

func run() int {
	conf := core.NewConfig()
	logger, err := logsvc.NewLogger(conf, "admin")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logger.Sync()

	cli := commandLine{conf: conf}

	// browsing goes through the API
	if len(os.Args) < 2 || os.Args[1] != "browse" {
		if conf.Database.InMemory {
			db := inmemdb.Open()
			cli.setRepos(inmemdb.NewUserRepository(db), inmemdb.NewUniversityRepository(db))
		} else {
			db, err := database.Open(conf)
			if err != nil {
				logger.Error("opening database", err)
				return 1
			}
			defer db.Close()
			if err := db.Ping(); err != nil {
				logger.Error("pinging database", err)
				return 1
			}
			cli.db = db.DB
			cli.setRepos(sqlxrepos.NewUserRepository(db), sqlxrepos.NewUniversityRepository(db))
		}

		validate := validator.New()
		translator := core.NewTranslator()
		core.InitValidators(validate, translator, conf)
		user.RegisterValidators(validate, translator)
		cli.validate = validate
		cli.usrSvc = user.NewService(cli.usrRepo, emailsvc.NewConsoleService(conf, os.Stdout, logger), conf)
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("%s failed", os.Args[1]), err)
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		return 1
	}
	return 0
}
