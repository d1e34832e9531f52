package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/agreement"
	"github.com/Junosprite007/mod-equipmentcheckout/core/course"
	"github.com/Junosprite007/mod-equipmentcheckout/core/family"
	"github.com/Junosprite007/mod-equipmentcheckout/core/profile"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
	emailsvc "github.com/Junosprite007/mod-equipmentcheckout/services/email"
	logsvc "github.com/Junosprite007/mod-equipmentcheckout/services/logger"
	"github.com/Junosprite007/mod-equipmentcheckout/services/messaging"
	"github.com/Junosprite007/mod-equipmentcheckout/storage/database"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	// set up DB
	repos, err := database.Setup(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}

	cli, cleanup, err := newCommandLine(conf, logger, repos)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up CLI: %v", err), err)
	}

	err = cli.run(os.Args)
	cleanup()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("\nerror: %s\n", err), err)
		}
		os.Exit(1)
	}
}

func newCommandLine(conf *core.Config, logger core.Logger, repos database.Repositories) (*commandLine, func(), error) {
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)
	agreement.InitValidators(validate, translator)

	var mailer core.EmailService
	if conf.Debug {
		mailer = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailer = emailsvc.NewSendgridService(conf, logger)
	}

	cleanup := func() {
		if err := repos.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}

	var publisher family.Publisher
	if conf.AMQP.URL != "" {
		pub, err := messaging.NewPublisher(conf.AMQP, logger)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		publisher = pub
		closeDB := cleanup
		cleanup = func() {
			if err := pub.Close(); err != nil {
				logger.Error(fmt.Sprintf("closing rabbitmq publisher: %v", err), err)
			}
			closeDB()
		}
	}

	usrSvc := user.NewService(repos.Users, translator)
	profiles := profile.NewService(repos.Profiles)
	importer, err := family.NewImporter(family.Deps{
		Users:      usrSvc,
		Enroller:   course.NewEnroller(repos.Courses, translator),
		Profiles:   profiles,
		Validate:   validate,
		Translator: translator,
		Logger:     logger,
		Conf:       conf,
		Mailer:     mailer,
		Publisher:  publisher,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	cli := &commandLine{
		conf:     conf,
		usrSvc:   usrSvc,
		importer: importer,
		profiles: profiles,
		out:      os.Stdout,
	}
	if db := repos.DB(); db != nil {
		cli.db = db.DB
	}
	return cli, cleanup, nil
}
