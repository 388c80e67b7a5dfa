package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/annel0/voxelkit/internal/config"
	"github.com/annel0/voxelkit/internal/logging"
	"github.com/annel0/voxelkit/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (default: $VOXELKIT_CONFIG)")
		command    = flag.String("cmd", "info", "Command: info, import, export, region")
		file       = flag.String("file", "", "Region file for info")
		dir        = flag.String("dir", "", "Region directory for import (default: region.dir)")
		minCorner  = flag.String("min", "", "Export box corner x,y,z")
		maxCorner  = flag.String("max", "", "Export box corner x,y,z")
		out        = flag.String("out", "", "Output file")
		rx         = flag.Int("rx", 0, "Region X for region command")
		rz         = flag.Int("rz", 0, "Region Z for region command")
		budget     = flag.Int("budget", -1, "Export stage budget (default: export.stage_budget)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	level, err := logging.ParseLevel(cfg.Log.GetLevel())
	if err != nil {
		log.Fatalf("❌ Bad log level: %v", err)
	}
	logging.Configure(cfg.Log.GetDir(), level)
	if err := logging.InitDefaultLogger("voxelkit"); err != nil {
		log.Printf("⚠️ Файловый лог недоступен: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	collector := metrics.New()
	if addr := cfg.Metrics.GetAddr(); addr != "" {
		reg := prometheus.NewRegistry()
		if err := collector.Register(reg); err != nil {
			log.Fatalf("❌ Failed to register metrics: %v", err)
		}
		go func() {
			if err := metrics.Serve(ctx, addr, reg); err != nil {
				logging.Warn("⚠️ Сервер метрик остановлен: %v", err)
			}
		}()
	}

	if *budget < 0 {
		*budget = cfg.Export.GetStageBudget()
	}
	if *dir == "" {
		*dir = cfg.Region.GetDir()
	}

	app := &app{cfg: cfg, metrics: collector}

	switch *command {
	case "info":
		err = app.info(*file)
	case "import":
		err = app.importDir(ctx, *dir)
	case "export":
		err = app.export(*minCorner, *maxCorner, *out, *budget)
	case "region":
		err = app.region(*rx, *rz, *out)
	default:
		log.Fatalf("❌ Unknown command: %s", *command)
	}
	if err != nil {
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}
