package main

import (
	"dsss-steganography/config"
	"dsss-steganography/handlers"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var configFile = flag.String("config", "", "YAML config file (defaults are used when empty)")

func main() {
	flag.Usage = usage
	flag.Parse()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	switch args[0] {
	case "serve":
		serve(cfg)
	case "embed":
		err = runEmbed(cfg, args[1:], os.Stdout)
	case "extract":
		err = runExtract(cfg, args[1:], os.Stdout)
	case "capacity":
		err = runCapacity(cfg, args[1:], os.Stdout)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: %s [-config file] <command> [args]

commands:
  serve                                              run the HTTP API
  embed    [-seed N] [-sf N] [-weight W] <in> <out.wav> <message>
  extract  [-seed N] [-sf N] <in>
  capacity [-sf N] <in>

Input audio may be WAV, MP3 or FLAC. Stego output is always WAV.
`, os.Args[0])
	flag.PrintDefaults()
}

func serve(cfg *config.Config) {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.Server.AllowOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	corsConfig.ExposeHeaders = []string{"X-Stego-ID", "X-Stego-PSNR", "X-Stego-Strength", "X-Stego-Capacity", "X-Stego-Message", "Content-Disposition"}
	router.Use(cors.New(corsConfig))

	router.MaxMultipartMemory = cfg.MaxUploadBytes()

	handlers.NewStegoHandler(cfg).Register(router)

	port := cfg.Server.Port
	log.Printf("Server starting on port %s", port)
	log.Printf("API endpoints:")
	log.Printf("  POST /api/v1/stego/embed    - Hide a text message in WAV/MP3/FLAC audio (returns stego WAV)")
	log.Printf("  POST /api/v1/stego/extract  - Recover a hidden message from stego audio")
	log.Printf("  POST /api/v1/stego/capacity - Report how much text a carrier can hold")
	log.Printf("  GET  /api/v1/health         - Health check")
	log.Printf("")
	log.Printf("DSSS: spreading factor %d, strength weight %v", cfg.DSSS.SpreadingFactor, cfg.DSSS.StrengthWeight)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
