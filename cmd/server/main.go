package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pongsakornd/comic-secretary/internal/api"
	"github.com/pongsakornd/comic-secretary/internal/blob"
	"github.com/pongsakornd/comic-secretary/internal/chat"
	"github.com/pongsakornd/comic-secretary/internal/config"
	"github.com/pongsakornd/comic-secretary/internal/database"
	"github.com/pongsakornd/comic-secretary/internal/digest"
	"github.com/pongsakornd/comic-secretary/internal/hub"
	"github.com/pongsakornd/comic-secretary/internal/jobs"
	"github.com/pongsakornd/comic-secretary/internal/notify"
	"github.com/pongsakornd/comic-secretary/internal/push"
	"github.com/pongsakornd/comic-secretary/internal/stats"
	"github.com/pongsakornd/comic-secretary/internal/telegram"
)

const defaultSigningKey = "c2VjcmV0LXNpZ25pbmcta2V5LWZvci1sb2NhbC1kZXY="

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	addr           string
	dsn            string
	signingKey     string
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&addr, "addr", "localhost:8000", "server address")
	flag.StringVar(&dsn, "dsn", "host=localhost user=postgres password=postgres dbname=postgres sslmode=disable", "database connection string")
	flag.StringVar(&signingKey, "signing-key", defaultSigningKey, "base64 encoded signing key")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for CORS")
	flag.Parse()

	logger := log.New(os.Stderr, "[comic-secretary] ", log.LstdFlags)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Fatal("load .env:", err)
	}

	cfg, err := config.NewConfig(addr, dsn, signingKey, allowedOrigins)
	if err != nil {
		logger.Fatal("config:", err)
	}

	dbConn, err := database.NewPgRepository(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("db open:", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Fatal("db close:", err)
		}
	}()

	if err := dbConn.Migrate(); err != nil {
		logger.Fatal("db migrate:", err)
	}

	blobs, err := blob.NewLocalStore(cfg.BlobDir)
	if err != nil {
		logger.Fatal("blob store:", err)
	}

	mux := http.NewServeMux()

	statsUpdater := stats.NewStatsUpdater(mux, logger)
	statsUpdater.RegisterMetric(stats.MetricChatConnections)
	statsUpdater.RegisterMetric(stats.MetricNotifyConnections)
	statsUpdater.RegisterMetric(stats.MetricMessagesPosted)
	statsUpdater.RegisterMetric(stats.MetricJobsCreated)
	statsUpdater.RegisterMetric(stats.MetricNotificationsSent)

	roomHub := hub.NewHub("rooms", logger)
	userHub := hub.NewHub("users", logger)

	tgClient := telegram.NewClient(cfg.TelegramBaseURL, cfg.TelegramNotifyToken, cfg.TelegramReportToken, logger)
	pushClient := push.NewClient(cfg.FCMEndpoint, cfg.FCMServerKey, logger)
	dispatcher := notify.NewDispatcher(userHub, dbConn, pushClient, tgClient, statsUpdater, logger)

	jobSvc := jobs.NewService(dbConn, blobs, dispatcher, logger)
	chatSvc := chat.NewService(dbConn, roomHub, blobs, dispatcher, logger)

	srv := api.NewApp(cfg, api.Deps{
		Logger:   logger,
		DB:       dbConn,
		ChatSvc:  chatSvc,
		JobSvc:   jobSvc,
		RoomHub:  roomHub,
		UserHub:  userHub,
		Blobs:    blobs,
		Stats:    statsUpdater,
		StatsMux: mux,
	})

	statsUpdater.Run()
	defer statsUpdater.Stop()

	nightly := digest.New(dbConn, tgClient, cfg.DigestSchedule, logger)
	if err := nightly.Start(); err != nil {
		logger.Fatal("digest:", err)
	}
	defer nightly.Stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		logger.Printf("received signal: %s\n", sig)
	case err := <-errCh:
		logger.Println("server:", err)
	}

	shutDownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutDownCtx); err != nil {
		logger.Fatalln("HTTP server shutdown:", err)
	}

	logger.Println("shutdown complete")
}
