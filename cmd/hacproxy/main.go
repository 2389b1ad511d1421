package main

import (
	"context"
	"os"

	"hacproxy/lib/configutil"
	"hacproxy/lib/restyutil"
	"hacproxy/lib/scrapers/homeaccess"
	"hacproxy/lib/serviceutil"
	"hacproxy/lib/telemetry"
	"hacproxy/services/hac"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	godotenv.Load()

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	telemetry.InitSlog(config.Verbose)

	ctx := serviceutil.SignalContext()

	t, err := telemetry.SetupFromEnv(ctx, "hacproxy")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer t.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	store, err := openStore(ctx, config.Store)
	if err != nil {
		serviceutil.Fatal("failed to open session store", err)
	}

	if config.Verbose {
		homeaccess.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/homeaccess"))
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := hac.NewRouter(hac.NewService(store, config.Portal))

	port := config.Port
	if port == 0 {
		port = 8000
	}
	serviceutil.StartHttpServer(ctx, port, router)
}
