package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"route-planner-service/internal/adapters/maps"
	"route-planner-service/internal/adapters/repositories"
	"route-planner-service/internal/config"
	"route-planner-service/internal/domain"
	"route-planner-service/internal/ports"
	"route-planner-service/internal/services"
	"time"

	"gopkg.in/yaml.v3"
)

// planFile is the YAML planning input. Locations are only used with -mock.
type planFile struct {
	Days               int      `yaml:"days"`
	DistanceLimit      *float64 `yaml:"distance_limit"`
	DurationLimit      *float64 `yaml:"duration_limit"`
	Preferences        string   `yaml:"preferences"`
	AvoidTolls         bool     `yaml:"avoid_tolls"`
	DepotAddress       string   `yaml:"depot_address"`
	SemiDepotAddresses []string `yaml:"semi_depot_addresses"`
	Addresses          []string `yaml:"addresses"`
	Priorities         []int    `yaml:"priorities"`

	Locations map[string]struct {
		Lat float64 `yaml:"lat"`
		Lng float64 `yaml:"lng"`
	} `yaml:"locations"`
}

// plan computes routes for a YAML request and prints the route document as JSON.
// Nothing is persisted.
func main() {
	config.LoadDotEnv()

	file := flag.String("file", "plan.yaml", "YAML planning request")
	mock := flag.Bool("mock", false, "use the offline provider with the file's locations")
	seed := flag.Int64("seed", services.DefaultClusterSeed, "k-means seed")
	flag.Parse()

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read %q: %v", *file, err)
	}

	var in planFile
	if err := yaml.Unmarshal(raw, &in); err != nil {
		log.Fatalf("parse %q: %v", *file, err)
	}

	provider, err := newProvider(in, *mock)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	plan, err := services.NewPlanner(provider, *seed).Plan(ctx, services.PlanRequest{
		Days:               in.Days,
		DistanceLimit:      in.DistanceLimit,
		DurationLimit:      in.DurationLimit,
		Preference:         in.Preferences,
		AvoidTolls:         in.AvoidTolls,
		DepotAddress:       in.DepotAddress,
		SemiDepotAddresses: in.SemiDepotAddresses,
		Addresses:          in.Addresses,
		Priorities:         in.Priorities,
	})
	if err != nil {
		log.Fatalf("plan: %v", err)
	}

	routes, err := services.NewDocumentBuilder(provider).Build(ctx, plan)
	if err != nil {
		log.Fatalf("build routes: %v", err)
	}

	doc := repositories.NewRouteSetDocument(&domain.RouteSet{
		Params:      plan.Params,
		Routes:      routes,
		GeneratedAt: time.Now().UTC(),
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		log.Fatal(err)
	}
	log.Printf("candidates evaluated=%d", plan.Evaluated)
}

func newProvider(in planFile, mock bool) (ports.MappingProvider, error) {
	if mock {
		locations := make(map[string]domain.Coordinates, len(in.Locations))
		for name, l := range in.Locations {
			locations[name] = domain.Coordinates{Lat: l.Lat, Lng: l.Lng}
		}
		return maps.NewMockProvider(locations), nil
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.GoogleMapsAPIKey == "" {
		return nil, fmt.Errorf("GOOGLE_MAPS_API_KEY is required without -mock")
	}
	return maps.NewGoogleProvider(cfg.GoogleMapsAPIKey, cfg.MapsRateLimit, maps.Caches{})
}
