package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/ecoscan/recyclelens"
	"github.com/ecoscan/recyclelens/internal/config"
	"github.com/ecoscan/recyclelens/internal/logger"
	"github.com/ecoscan/recyclelens/internal/utils"
	"github.com/ecoscan/recyclelens/pkg/capture"
	"github.com/ecoscan/recyclelens/pkg/classify"
	"github.com/ecoscan/recyclelens/pkg/geo"
	"github.com/ecoscan/recyclelens/pkg/present"
)

func main() {
	var in, location, model, url, nominatim, cfgPath string
	var lat, lon float64
	var showMarkup bool

	flag.StringVar(&in, "in", "", "input image path (jpg/png/webp), stands in for the camera")
	flag.StringVar(&location, "location", "", "location override, e.g. \"Springfield, Illinois, USA\" (skips resolution)")
	flag.StringVar(&model, "model", "", "model name (default from config)")
	flag.StringVar(&url, "url", "", "Ollama server URL (default from config)")
	flag.StringVar(&nominatim, "nominatim", "", "Nominatim server URL (default from config)")
	flag.Float64Var(&lat, "lat", 0, "latitude for location resolution")
	flag.Float64Var(&lon, "lon", 0, "longitude for location resolution")
	flag.StringVar(&cfgPath, "config", "", "config file path")
	flag.BoolVar(&showMarkup, "markup", false, "print rendered HTML instead of raw text")
	flag.Parse()

	if in == "" {
		log.Fatalf("usage: %s -in object.jpg [-location \"City, State, Country\" | -lat .. -lon ..] [-url server_url] [-model name]", filepath.Base(os.Args[0]))
	}
	if !utils.FileExists(in) {
		log.Fatalf("input image not found: %s", in)
	}

	// .env is optional; flags and config still apply without it.
	_ = godotenv.Load()
	logger.Setup()

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.LoadFromFile(cfgPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}
	if url != "" {
		cfg.Classify.OllamaURL = url
	}
	if model != "" {
		cfg.Classify.Model = model
	}
	if nominatim != "" {
		cfg.Geo.NominatimURL = nominatim
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	opts := classify.Options{
		Temperature: cfg.Classify.Temperature,
		TopP:        cfg.Classify.TopP,
		MaxDuration: time.Duration(cfg.Classify.MaxDurationSeconds) * time.Second,
	}
	classifier, err := classify.NewClassifier(cfg.Classify.OllamaURL, cfg.Classify.Model, opts)
	if err != nil {
		log.Fatalf("failed to create classifier: %v", err)
	}

	var resolver *geo.Resolver
	if location == "" && (lat != 0 || lon != 0) {
		geocoder, err := geo.NewNominatimClient(cfg.Geo.NominatimURL)
		if err != nil {
			log.Fatalf("failed to create geocoder: %v", err)
		}
		var rc *redis.Client
		if cfg.Geo.RedisAddr != "" {
			rc = redis.NewClient(&redis.Options{Addr: cfg.Geo.RedisAddr})
		}
		cached := geo.NewCachedGeocoder(geocoder, rc, time.Duration(cfg.Geo.CacheTTLSeconds)*time.Second)
		resolver = geo.NewResolver(geo.FixedPositionSource{Position: geo.Position{Latitude: lat, Longitude: lon}}, cached)
	}

	// Echo raw text to stdout as deltas arrive; the hook fires after every
	// applied delta.
	var session *recyclelens.Session
	var printed int
	onUpdate := func(output string, signal present.Signal) {
		text := session.Text()
		if len(text) > printed {
			fmt.Print(text[printed:])
			printed = len(text)
		}
	}

	session = recyclelens.NewWithConfig(recyclelens.SessionConfig{
		Camera: &capture.FileCamera{Path: in},
		Encode: capture.EncodeConfig{
			Format:   cfg.Capture.Format,
			Quality:  cfg.Capture.Quality,
			Lossless: cfg.Capture.Lossless,
			MaxEdge:  cfg.Capture.MaxEdge,
		},
		Classifier: classifier,
		Resolver:   resolver,
		OnUpdate:   onUpdate,
	})

	ctx := context.Background()
	session.Start(ctx)

	if location != "" {
		session.SetLocation(location)
	} else if resolver != nil {
		// Give the background resolution a moment; an unresolved location is
		// fine, the model is told about empty locations through the prompt.
		waitForLocation(session, 10*time.Second)
	}
	log.Printf("location=%q model=%s", session.Location(), cfg.Classify.Model)

	if err := session.StartPreview(ctx); err != nil {
		log.Fatal(err)
	}
	frame, err := session.Capture()
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("captured %s %dx%d (%d base64 bytes)", frame.MIMEType, frame.Width, frame.Height, len(frame.Data))

	err = session.Submit(ctx)
	if printed > 0 {
		fmt.Println()
	}
	if err != nil {
		log.Fatalf("classification failed: %v", err)
	}

	if showMarkup {
		fmt.Println(session.Output())
	}
	fmt.Printf("signal: %s\n", session.Signal())
}

func waitForLocation(session *recyclelens.Session, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if session.Location() != "" {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
}
