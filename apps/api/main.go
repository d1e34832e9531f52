package main

import (
	"context"
	"fmt"
	"log"

	dig_container "github.com/Junosprite007/mod-equipmentcheckout/apps/api/di/dig"
	echoapi "github.com/Junosprite007/mod-equipmentcheckout/apps/api/echo"
	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/services/messaging"
	"github.com/Junosprite007/mod-equipmentcheckout/storage/database"
)

func main() {
	c := dig_container.New(core.NewConfig)

	must(c.Invoke(func(
		conf *core.Config,
		apiLogger core.Logger,
		dbLoggerParam dig_container.DBLoggerParam,
		repos database.Repositories,
		publisher *messaging.Publisher,
		server *echoapi.Server,
	) {
		// =========================================================================
		// Initialize App

		apiLogger.Info(fmt.Sprintf("Application initializing : version %q, storage %q", conf.Build, conf.Database.Engine))

		dbLogger := dbLoggerParam.Logger
		defer func() {
			if err := repos.Close(); err != nil {
				dbLogger.Fatal("Failed to close", err)
			}
		}()
		if publisher != nil {
			defer func() {
				if err := publisher.Close(); err != nil {
					apiLogger.Error(fmt.Sprintf("closing rabbitmq publisher: %v", err), err)
				}
			}()
		}
		defer apiLogger.Info("Application stopped")

		// =========================================================================
		// Start API Service

		go func() {
			server.Start()
		}()

		// =========================================================================
		// Shutdown

		select {
		case err := <-server.Errors():
			apiLogger.Fatal(fmt.Sprintf("server error: %v", err), err)

		case sig := <-server.ShutdownSignal():
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

			// give outstanding requests a deadline for completion
			ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
			defer cancel()

			// asking listener to shut down and shed load
			if err := server.Shutdown(ctx); err != nil {
				apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

				if err = server.Close(); err != nil {
					apiLogger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
				}
			}
		}
	}))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
