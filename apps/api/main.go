package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	echoapi "github.com/raphco/materia/apps/api/echo"
	"github.com/raphco/materia/core"
	"github.com/raphco/materia/core/course"
	"github.com/raphco/materia/core/event"
	"github.com/raphco/materia/core/link"
	"github.com/raphco/materia/core/user"
	emailsvc "github.com/raphco/materia/services/email"
	logsvc "github.com/raphco/materia/services/logger"
	"github.com/raphco/materia/storage/blob"
	"github.com/raphco/materia/storage/database"
	inmemdb "github.com/raphco/materia/storage/database/inmem"
	sqlxrepos "github.com/raphco/materia/storage/database/sqlx"
)

func main() {
	conf := core.Conf

	logger := newLogger(conf)

	var (
		usrRepo    user.Repository
		courseRepo course.Repository
		linkRepo   link.Repository
		eventRepo  event.Repository
	)

	// set up DB; fall back to the in-memory store when none is reachable
	if db, err := database.Open(conf); err == nil && database.Ping(db) == nil {
		defer db.Close()
		if err = database.Migrate(db); err != nil {
			logger.Fatal("migrating database", err)
		}
		usrRepo = sqlxrepos.NewUserRepository(db)
		courseRepo = sqlxrepos.NewCourseRepository(db)
		linkRepo = sqlxrepos.NewSidebarLinkRepository(db)
		eventRepo = sqlxrepos.NewCalendarEventRepository(db)
	} else {
		logger.Warn("database unreachable, using in-memory store")
		mem, _ := inmemdb.Open()
		usrRepo = inmemdb.NewUserRepository(mem)
		courseRepo = inmemdb.NewCourseRepository(mem)
		linkRepo = inmemdb.NewSidebarLinkRepository(mem)
		eventRepo = inmemdb.NewCalendarEventRepository(mem)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	blobStore := blob.NewFilesystemStore(conf.MediaRoot, "/media")

	usrSvc := user.NewService(usrRepo, mailSvc)
	courseSvc := course.NewService(courseRepo, blobStore)
	linkSvc := link.NewService(linkRepo)
	eventSvc := event.NewService(eventRepo)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Address:   conf.Server.Addr,
			Logger:    logger,
			UserSvc:   usrSvc,
			CourseSvc: courseSvc,
			LinkSvc:   linkSvc,
			EventSvc:  eventSvc,
		},
	)
	go app.Start()
	logger.Info("server started on " + conf.Server.Addr)

	// block until shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case <-app.ShutdownSignal():
		logger.Error("unrecoverable error, shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		logger.Error("stopping server", err)
	}
}

func newLogger(conf *core.Config) core.Logger {
	if conf.Debug || conf.RollbarToken == "" {
		return logsvc.NewZerologLogger(conf)
	}
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(std, conf)
}
