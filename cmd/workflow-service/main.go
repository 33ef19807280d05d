/*
Copyright 2025 Jordi Gil.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command workflow-service runs the HTTP front-end for the workflow
// orchestration engine: it wires the engine core to its Postgres
// snapshot store, Redis operator registry, NATS task mailbox, and
// Prometheus metrics, then serves the REST API.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/jordigilh/workflowengine/internal/config"
	"github.com/jordigilh/workflowengine/pkg/workflow/engine"
	"github.com/jordigilh/workflowengine/pkg/workflow/mailbox"
	"github.com/jordigilh/workflowengine/pkg/workflow/metrics"
	"github.com/jordigilh/workflowengine/pkg/workflow/persistence"
	"github.com/jordigilh/workflowengine/pkg/workflow/registry/redisregistry"
	"github.com/jordigilh/workflowengine/pkg/workflow/server"

	"github.com/redis/go-redis/v9"
)

// deferredEventSink discards events until target is set, bridging the
// construction-order cycle between an Engine and the sinks that need a
// reference back to it.
type deferredEventSink struct {
	target engine.EventSink
}

func (d *deferredEventSink) Emit(e engine.Event) {
	if d.target != nil {
		d.target.Emit(e)
	}
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the service configuration file")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load configuration")
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.WithError(err).Fatal("invalid logging level")
	}
	log.SetLevel(level)

	admin, err := engine.ParsePrincipal(cfg.Engine.AdminPrincipal)
	if err != nil {
		log.WithError(err).Fatal("invalid engine.admin_principal")
	}
	var selfIdentity engine.Principal
	if cfg.Engine.SelfIdentity != "" {
		selfIdentity, err = engine.ParsePrincipal(cfg.Engine.SelfIdentity)
		if err != nil {
			log.WithError(err).Fatal("invalid engine.self_identity")
		}
	}

	dbCfg := &persistence.Config{
		Host: cfg.Persistence.Host, Port: cfg.Persistence.Port, User: cfg.Persistence.User,
		Password: cfg.Persistence.Password, Database: cfg.Persistence.Database, SSLMode: cfg.Persistence.SSLMode,
		MaxOpenConns: 25, MaxIdleConns: 5, ConnMaxLifetime: 5 * time.Minute, ConnMaxIdleTime: 5 * time.Minute,
	}
	db, err := persistence.Connect(dbCfg)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to postgres")
	}
	defer db.Close()
	if err := persistence.Migrate(db.DB); err != nil {
		log.WithError(err).Fatal("failed to apply migrations")
	}
	snapshotStore := persistence.NewSnapshotStore(db)
	feeSink := persistence.NewFeeSink(db)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	operatorRegistry := redisregistry.New(redisClient, cfg.Redis.FailureThreshold, cfg.Redis.ResetTimeout)

	natsMailbox, err := mailbox.New(mailbox.Config{URL: cfg.NATS.URL, RequestTimeout: cfg.NATS.RequestTimeout, Logger: log})
	if err != nil {
		log.WithError(err).Fatal("failed to connect to nats")
	}
	defer natsMailbox.Close()

	// metrics.Sink and persistence.Sink both look up live workflow/execution
	// state through the Engine they're attached to, so they can only be
	// built after New returns; deferredEvents discards emission until then.
	deferredEvents := &deferredEventSink{}
	eng := engine.New(engine.Config{
		Admin:            admin,
		SelfIdentity:     selfIdentity,
		Mailbox:          natsMailbox,
		OperatorRegistry: operatorRegistry,
		FeeSink:          feeSink,
		Events:           deferredEvents,
		Now:              time.Now,
	})
	deferredEvents.target = engine.NewFanOutSink(
		metrics.NewSink(eng),
		persistence.NewSink(snapshotStore, eng),
	)

	handler := server.NewHandler(eng, server.WithLogger(log))

	httpServer := &http.Server{Addr: ":" + cfg.Server.Port, Handler: handler.Routes()}
	metricsServer := &http.Server{Addr: ":" + cfg.Server.MetricsPort, Handler: promhttp.Handler()}

	go func() {
		log.WithField("port", cfg.Server.Port).Info("starting workflow service")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("workflow service failed")
		}
	}()
	go func() {
		log.WithField("port", cfg.Server.MetricsPort).Info("starting metrics endpoint")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics endpoint failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	_ = metricsServer.Shutdown(ctx)
}
