package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/robfig/cron/v3"
	"github.com/spf13/pflag"
	"github.com/tcriess/lightspeed-rooms/api"
	"github.com/tcriess/lightspeed-rooms/config"
	"github.com/tcriess/lightspeed-rooms/globals"
	"github.com/tcriess/lightspeed-rooms/history"
	"github.com/tcriess/lightspeed-rooms/registry"
	"github.com/tcriess/lightspeed-rooms/session"
	"github.com/tcriess/lightspeed-rooms/ws"
)

var (
	configPath = pflag.StringP("config", "c", "", "path to config file or directory")
	addr       = pflag.String("addr", "localhost:8000", "service address (including port)")
	sslCert    = pflag.String("ssl-cert", "", "SSL cert (optional)")
	sslKey     = pflag.String("ssl-key", "", "SSL key (optional)")
)

func main() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		<-c
		log.Fatal("interrupted!")
	}()

	flagSet := config.GetFlagSet()
	pflag.CommandLine.AddFlagSet(flagSet)
	pflag.Parse()
	log.SetFlags(0)

	globalConfig, err := config.ReadConfiguration(*configPath, flagSet)
	if err != nil {
		panic(err)
	}
	if globalConfig.LogLevel != "" {
		globals.AppLogger.SetLevel(hclog.LevelFromString(globalConfig.LogLevel))
	}

	messageLog := history.NewLog(globalConfig.HistoryConfig.HistorySize)
	roomRegistry := registry.NewRegistry(globalConfig.RoomConfig.IdLength, globalConfig.RoomConfig.EvictionGrace, messageLog)
	sessionStore := session.NewStore(globalConfig.SessionConfig.TTL)
	hub := ws.NewHub(roomRegistry)
	wsServer := ws.NewServer(hub, roomRegistry, sessionStore, messageLog, globalConfig.HistoryConfig.ReplaySize)

	cronRunner := cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if schedule := globalConfig.SessionConfig.SweepSchedule; schedule != "" {
		if _, err := cronRunner.AddFunc(schedule, func() { sessionStore.SweepExpired() }); err != nil {
			panic(err)
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	router := api.NewRouter(roomRegistry, sessionStore, messageLog, hub, wsServer)

	globals.AppLogger.Info("listening", "addr", *addr)
	if *sslCert != "" && *sslKey != "" {
		err = http.ListenAndServeTLS(*addr, *sslCert, *sslKey, router)
	} else {
		err = http.ListenAndServe(*addr, router)
	}
	globals.AppLogger.Error("stopped listening", "error", err)
}
