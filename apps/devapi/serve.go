package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	echoapi "github.com/trezcool/schoolportal/apps/devapi/echo"
	"github.com/trezcool/schoolportal/core"
	"github.com/trezcool/schoolportal/core/gradebook"
	"github.com/trezcool/schoolportal/core/records"
	emailsvc "github.com/trezcool/schoolportal/services/email"
	logsvc "github.com/trezcool/schoolportal/services/logger"
	"github.com/trezcool/schoolportal/storage/database"
	inmemdb "github.com/trezcool/schoolportal/storage/database/inmem"
	pgrepos "github.com/trezcool/schoolportal/storage/database/postgres"
)

var serveFunc = serve // mockable

type repositories struct {
	records   records.Repository
	gradebook gradebook.Repository
	close     func() error
}

func serve(conf *core.Config, seedFile string) error {
	// =========================================================================
	// Set up Dependencies

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up storage
	repos, err := setUpRepositories(conf)
	if err != nil {
		return errors.Wrap(err, "setting up storage")
	}
	defer func() {
		if err := repos.close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	if seedFile != "" {
		n, err := seedFromFile(context.Background(), repos.records, seedFile)
		if err != nil {
			return errors.Wrap(err, "seeding records")
		}
		logger.Info(fmt.Sprintf("Seeded %d records from %s", n, seedFile))
	}

	// set up services
	validate, translator := core.NewValidator()
	terms := gradebook.TermsFromConfig(conf.Terms)
	recordSvc := records.NewService(repos.records)
	gradebookSvc := gradebook.NewService(repos.gradebook, terms, validate, translator)

	var mailSvc core.EmailService
	if conf.SendgridAPIKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, os.Stdout, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:         conf,
		Logger:       logger,
		RecordSvc:    recordSvc,
		GradebookSvc: gradebookSvc,
		Mailer:       mailSvc,
	})

	go func() {
		logger.Info(fmt.Sprintf("Listening on %s", conf.DevAPI.Address))
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		return errors.Wrap(err, "server error")

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.DevAPI.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				return errors.Wrap(err, "could not force stop server")
			}
		}
	}
	return nil
}

// setUpRepositories returns the in-memory store, or postgres when database.inMemory is off.
func setUpRepositories(conf *core.Config) (repositories, error) {
	if conf.Database.InMemory {
		db := inmemdb.Open()
		return repositories{
			records:   inmemdb.NewRecordRepository(db),
			gradebook: inmemdb.NewGradebookRepository(db),
			close:     func() error { return nil },
		}, nil
	}

	db, err := setUpDB(conf)
	if err != nil {
		return repositories{}, err
	}
	return repositories{
		records:   pgrepos.NewRecordRepository(db),
		gradebook: pgrepos.NewGradebookRepository(db),
		close:     db.Close,
	}, nil
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
