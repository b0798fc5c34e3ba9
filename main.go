package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"powertrain-service/powertrain"
)

var (
	version     = flag.Bool("version", false, "Print version info")
	help        = flag.Bool("help", false, "Print help")
	logLevel    = flag.Int("log", 3, "Log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG)")
	redisServer = flag.String("redis_server", "127.0.0.1", "Redis server address")
	redisPort   = flag.Int("redis_port", 6379, "Redis server port")
	canDevice   = flag.String("can_device", "can0", "CAN device name")
	wsBase      = flag.Uint("ws_base", powertrain.WsDefaultBaseID, "WaveSculptor base CAN identifier")
	bmuBase     = flag.Uint("bmu_base", 0x620, "BMU base CAN identifier")
	dcBase      = flag.Uint("dc_base", powertrain.DcDefaultBaseID, "Driver controls base CAN identifier")
)

const (
	ProjectName    = "powertrain-service"
	ProjectVersion = "1.0.0"
)

func printVersion() {
	fmt.Printf("%s v%s\n", ProjectName, ProjectVersion)
}

func printHelp() {
	printVersion()
	flag.PrintDefaults()
}

func main() {
	flag.Parse()

	if *version {
		printVersion()
		os.Exit(0)
	}

	if *help {
		printHelp()
		os.Exit(0)
	}

	// Validate log level
	if *logLevel < 0 || *logLevel > 4 {
		log.Fatalf("invalid log level %d", *logLevel)
	}

	// Validate base identifiers
	for name, base := range map[string]uint{"ws_base": *wsBase, "bmu_base": *bmuBase, "dc_base": *dcBase} {
		if base > powertrain.MaxStandardID {
			log.Fatalf("invalid %s 0x%X (must fit in 11 bits)", name, base)
		}
	}

	opts := &Options{
		LogLevel:        LogLevel(*logLevel),
		RedisServerAddr: *redisServer,
		RedisServerPort: uint16(*redisPort),
		CANDevice:       *canDevice,
		WsBaseID:        uint16(*wsBase),
		BmuBaseID:       uint16(*bmuBase),
		DcBaseID:        uint16(*dcBase),
	}

	app, err := NewPowertrainApp(opts)
	if err != nil {
		log.Fatalf("failed to create powertrain app: %v", err)
	}
	defer app.Destroy()

	// Handle SIGINT and SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Run until signal received
	<-sigChan
}
