package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/proworkshop/internal/config"
	"github.com/ukydev/proworkshop/internal/models"
	"github.com/ukydev/proworkshop/internal/mqtt"
)

// Sensor ranges. Vibration is mm/s RMS, temperature degrees Celsius.
const (
	minVibration   = 0.5
	maxVibration   = 15.0
	minTemperature = 15.0
	maxTemperature = 120.0
)

// SensorState is the drifting baseline of one asset's sensors.
type SensorState struct {
	AssetID     int64
	Vibration   float64
	Temperature float64
}

// Settings configure a simulation run.
type Settings struct {
	AssetIDs    []int64
	Interval    time.Duration
	SpikeChance float64
}

func newSensorState(assetID int64, rng *rand.Rand) *SensorState {
	return &SensorState{
		AssetID:     assetID,
		Vibration:   2 + rng.Float64()*2,
		Temperature: 40 + rng.Float64()*20,
	}
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}

// nextReading drifts the baseline and returns a reading. With probability
// spikeChance the reading carries a transient spike on top of the baseline.
func nextReading(s *SensorState, rng *rand.Rand, spikeChance float64, now time.Time) models.ConditionReading {
	s.Vibration = clamp(s.Vibration+(rng.Float64()*2-1)*0.3, minVibration, maxVibration)
	s.Temperature = clamp(s.Temperature+(rng.Float64()*2-1)*1.0, minTemperature, maxTemperature)

	vibration, temperature := s.Vibration, s.Temperature
	if rng.Float64() < spikeChance {
		vibration = clamp(vibration+3+rng.Float64()*3, minVibration, maxVibration)
		temperature = clamp(temperature+15+rng.Float64()*10, minTemperature, maxTemperature)
	}

	return models.ConditionReading{
		AssetID:     s.AssetID,
		Vibration:   round1(vibration),
		Temperature: round1(temperature),
		RecordedAt:  now.UTC(),
	}
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}

// parseAssetIDs reads a comma separated list of positive ids.
func parseAssetIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid asset id %q", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no asset ids in %q", raw)
	}
	return ids, nil
}

// loadSettings reads SIM_ASSET_IDS, SIM_TICK_SECONDS and SIM_SPIKE_CHANCE.
func loadSettings(getenv func(string) string) (Settings, error) {
	s := Settings{Interval: 2 * time.Second, SpikeChance: 0.05}

	raw := getenv("SIM_ASSET_IDS")
	if raw == "" {
		raw = "1,2,3"
	}
	ids, err := parseAssetIDs(raw)
	if err != nil {
		return s, err
	}
	s.AssetIDs = ids

	if v := getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			s.Interval = time.Duration(n) * time.Second
		}
	}
	if v := getenv("SIM_SPIKE_CHANCE"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil && p >= 0 && p <= 1 {
			s.SpikeChance = p
		}
	}
	return s, nil
}

type readingPublisher interface {
	Publish(ctx context.Context, reading models.ConditionReading) error
}

func simulateSensor(ctx context.Context, pub readingPublisher, s *SensorState, settings Settings, rng *rand.Rand) {
	tick := time.NewTicker(settings.Interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-tick.C:
			reading := nextReading(s, rng, settings.SpikeChance, now)
			if err := pub.Publish(ctx, reading); err != nil {
				log.WithError(err).WithField("asset_id", s.AssetID).Error("Failed to publish reading")
				continue
			}
			log.WithFields(log.Fields{
				"asset_id":    reading.AssetID,
				"vibration":   reading.Vibration,
				"temperature": reading.Temperature,
			}).Debug("Published reading")
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	log.SetLevel(cfg.NewLogger().GetLevel())

	settings, err := loadSettings(os.Getenv)
	if err != nil {
		log.WithError(err).Fatal("Invalid simulator settings")
	}

	brokerCfg := cfg.MQTT
	brokerCfg.ClientID = "proworkshop-simulator"
	if id := os.Getenv("SIM_CLIENT_ID"); id != "" {
		brokerCfg.ClientID = id
	}

	client, err := mqtt.Connect(brokerCfg, log.StandardLogger())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to broker")
	}
	defer client.Disconnect(250)

	log.WithFields(log.Fields{
		"assets":       settings.AssetIDs,
		"broker":       brokerCfg.Broker,
		"interval":     settings.Interval,
		"spike_chance": settings.SpikeChance,
	}).Info("Starting condition simulation")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pub := mqtt.NewReadingPublisher(client, brokerCfg.TopicPrefix)
	var wg sync.WaitGroup
	for _, id := range settings.AssetIDs {
		rng := rand.New(rand.NewPCG(uint64(id), uint64(time.Now().UnixNano())))
		state := newSensorState(id, rng)
		wg.Add(1)
		go func() {
			defer wg.Done()
			simulateSensor(ctx, pub, state, settings, rng)
		}()
	}

	wg.Wait()
	log.Info("Simulation stopped")
}
