// Command macagotchi grows a virtual creature from nearby BLE advertisement
// traffic and physical handling, publishing its life to MQTT and HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/macagotchi/internal/bloom"
	"github.com/sweeney/macagotchi/internal/buttons"
	"github.com/sweeney/macagotchi/internal/config"
	"github.com/sweeney/macagotchi/internal/egg"
	"github.com/sweeney/macagotchi/internal/hunger"
	"github.com/sweeney/macagotchi/internal/mood"
	"github.com/sweeney/macagotchi/internal/motion"
	"github.com/sweeney/macagotchi/internal/mqtt"
	"github.com/sweeney/macagotchi/internal/recency"
	"github.com/sweeney/macagotchi/internal/scan"
	"github.com/sweeney/macagotchi/internal/sensor"
	"github.com/sweeney/macagotchi/internal/status"
	"github.com/sweeney/macagotchi/internal/store"
	"github.com/sweeney/macagotchi/internal/web"
)

// Membership filter sizing, carried over from the device tuning.
const (
	bloomCapacity = 10000
	bloomFPRate   = 0.01
)

// Persist the bloom filter every N completed scans.
const scansPerFlush = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	broker := flag.String("broker", cfg.Broker, "MQTT broker address")
	httpAddr := flag.String("http", cfg.HTTPAddr, "HTTP status address (empty to disable)")
	statePath := flag.String("state", cfg.StatePath, "Persisted state file")
	poll := flag.Duration("poll", cfg.Poll, "Tick interval")
	heartbeat := flag.Duration("heartbeat", cfg.Heartbeat, "Heartbeat interval (0 to disable)")
	persist := flag.Duration("persist", cfg.Persist, "State persist interval")
	iioDir := flag.String("iio-dir", cfg.IIODir, "Accelerometer IIO sysfs directory")
	iioScale := flag.Float64("iio-scale", cfg.IIOScale, "Accelerometer raw-to-16384/g scale")
	pinBtn1 := flag.Int("pin-btn1", cfg.PinBtn1, "BCM pin number for button 1")
	pinBtn2 := flag.Int("pin-btn2", cfg.PinBtn2, "BCM pin number for button 2")
	scanReplay := flag.String("scan-replay", cfg.ScanReplay, "MAC replay file (runs without a radio)")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level (trace..error)")
	flag.Parse()

	setupLogger(*logLevel)

	if err := run(*broker, *httpAddr, *statePath, *poll, *heartbeat, *persist,
		*iioDir, *iioScale, *pinBtn1, *pinBtn2, *scanReplay); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}

func setupLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Logger()
}

func run(broker, httpAddr, statePath string, poll, heartbeat, persist time.Duration,
	iioDir string, iioScale float64, pinBtn1, pinBtn2 int, scanReplay string) error {
	st, err := store.Open(statePath)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer st.Close()

	// Membership filter, restored from the last flush when possible.
	filter, err := bloom.New(bloomCapacity, bloomFPRate)
	if err != nil {
		return fmt.Errorf("init filter: %w", err)
	}
	if data, ok := st.Bloom(); ok {
		if err := filter.Restore(data); err != nil {
			log.Warn().Err(err).Msg("persisted filter unusable, starting fresh")
		}
	}

	recent := recency.NewTracker()
	dedup := scan.NewDedup(filter, recent)

	start := time.Now()
	tickMs := func() uint32 { return uint32(time.Since(start).Milliseconds()) }

	var scanner scan.Scanner
	if scanReplay != "" {
		scanner, err = scan.NewReplay(scanReplay, dedup, tickMs)
		if err != nil {
			return fmt.Errorf("scan replay: %w", err)
		}
		log.Info().Str("file", scanReplay).Msg("scanning from replay file")
	} else {
		log.Warn().Msg("no scan source configured, scans will find nothing")
		scanner = scan.NewFake(dedup, tickMs)
	}
	defer scanner.Close()

	// Accelerometer, with first-boot zero-point calibration.
	offsets, haveOffsets := st.AccelOffsets()
	accel, err := sensor.NewIIOReader(iioDir, iioScale, offsets)
	if err != nil {
		return fmt.Errorf("init accelerometer: %w", err)
	}
	defer accel.Close()

	tracker := status.NewTracker(start, status.Config{
		PollMs:      poll.Milliseconds(),
		HeartbeatMs: heartbeat.Milliseconds(),
		Broker:      broker,
		HTTPAddr:    httpAddr,
		StatePath:   statePath,
	})

	if !haveOffsets {
		log.Info().Msg("first boot: calibrating accelerometer, keep the device still")
		off, err := sensor.Calibrate(accel, 64, 50*time.Millisecond)
		if err != nil {
			return fmt.Errorf("accelerometer calibration: %w", err)
		}
		accel.SetOffsets(off)
		st.SetAccelOffsets(off)
		if err := st.Flush(); err != nil {
			return fmt.Errorf("persist calibration: %w", err)
		}
		log.Info().Int32("x", off.X).Int32("y", off.Y).Int32("z", off.Z).Msg("accelerometer calibrated")
	}

	btns, err := buttons.NewRealReader(pinBtn1, pinBtn2)
	if err != nil {
		return fmt.Errorf("init buttons: %w", err)
	}
	defer btns.Close()

	publisher, err := mqtt.NewRealPublisher(broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Engines, seeded from persisted state.
	eggCtl := egg.NewController(st)
	d := &daemon{
		store:     st,
		filter:    filter,
		recent:    recent,
		motion:    motion.NewClassifier(),
		hunger:    hunger.New(st.Hunger(), rand.New(rand.NewSource(time.Now().UnixNano()))),
		mood:      mood.NewEngine(mood.FromOrdinal(st.MoodOrdinal())),
		egg:       eggCtl,
		decoder:   buttons.NewDecoder(),
		btns:      btns,
		sensor:    accel,
		scanner:   scanner,
		publisher: publisher,
		mqttConn:  publisher,
		tracker:   tracker,

		start:          start,
		lastDay:        start.YearDay(),
		macTotal:       st.MacTotal(),
		heartbeatEvery: heartbeat,
		persistEvery:   persist,
		lastPersist:    start,
		lastHeartbeat:  start,
	}

	if !st.Hatched() {
		eggCtl.Begin(time.Now().UnixMilli())
		d.phase = status.PhaseEgg
		log.Info().Int("progress", eggCtl.ProgressPercent(time.Now().UnixMilli())).Msg("egg phase")
	} else {
		d.phase = status.PhaseNormal
	}
	tracker.SetPhase(d.phase)
	d.lastMood = d.mood.Current(tickMs())

	// Startup event with the full status snapshot.
	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Warn().Err(err).Msg("startup event publish failed")
	}

	if httpAddr != "" {
		srv := web.New(httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("http server")
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info().Str("addr", httpAddr).Msg("http status server listening")
	}

	log.Info().
		Str("broker", broker).
		Dur("poll", poll).
		Str("phase", string(d.phase)).
		Msg("started")

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(d, time.Now, ticker.C, sigCh)
}

// daemon carries the wired engines and the loop's scheduling state.
type daemon struct {
	store     *store.Store
	filter    *bloom.Filter
	recent    *recency.Tracker
	motion    *motion.Classifier
	hunger    *hunger.Model
	mood      *mood.Engine
	egg       *egg.Controller
	decoder   *buttons.Decoder
	btns      buttons.Reader
	sensor    sensor.Reader
	scanner   scan.Scanner
	publisher mqtt.Publisher
	mqttConn  mqtt.ConnectionStatus
	tracker   *status.Tracker

	phase           status.Phase
	start           time.Time
	lastMood        mood.Mood
	lastScanMS      uint32
	lastScan        scan.Result
	scansSinceFlush int
	macToday        uint32
	macTotal        uint32
	noveltyScore    int
	lastDay         int

	heartbeatEvery time.Duration
	persistEvery   time.Duration
	lastHeartbeat  time.Time
	lastPersist    time.Time
}

func (d *daemon) tickMs(t time.Time) uint32 {
	return uint32(t.Sub(d.start).Milliseconds())
}

func runLoop(d *daemon, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Info().Str("signal", s.String()).Msg("shutting down")
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}

			d.persist(d.tickMs(now()))

			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if d.tracker != nil {
				if d.mqttConn != nil {
					d.tracker.SetMQTTConnected(d.mqttConn.IsConnected())
				}
				snap := d.tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Warn().Err(err).Msg("shutdown event publish failed")
			}
			return nil

		case <-tick:
			d.step(now())
		}
	}
}

// step runs one tick: buttons, motion, phase work, status, housekeeping.
func (d *daemon) step(t time.Time) {
	nowMs := d.tickMs(t)

	if day := t.YearDay(); day != d.lastDay {
		d.lastDay = day
		d.macToday = 0
	}

	raw1, raw2, err := d.btns.Read()
	if err != nil {
		log.Warn().Err(err).Msg("button read failed")
	} else if ev := d.decoder.Poll(raw1, raw2, nowMs); ev != buttons.None {
		d.handleButton(ev, t, nowMs)
	}

	state := d.motion.State()
	if mag, err := d.sensor.Magnitude(); err != nil {
		log.Warn().Err(err).Msg("accelerometer read failed")
	} else {
		state = d.motion.Sample(mag)
	}

	switch d.phase {
	case status.PhaseEgg:
		d.stepEgg(t, nowMs)
	case status.PhaseNormal:
		d.stepNormal(t, nowMs, state)
	}

	cur := d.mood.Current(nowMs)
	d.tracker.UpdateCreature(cur, d.hunger.Get(), state)
	if d.mqttConn != nil {
		d.tracker.SetMQTTConnected(d.mqttConn.IsConnected())
	}

	if d.phase == status.PhaseNormal && cur != d.lastMood {
		log.Info().Str("from", string(d.lastMood)).Str("to", string(cur)).Msg("mood change")
		d.publishEvent(mqtt.EventMoodChange, t, cur, state)
		d.lastMood = cur
	}

	if d.persistEvery > 0 && t.Sub(d.lastPersist) >= d.persistEvery {
		d.persist(nowMs)
		d.lastPersist = t
	}

	if d.heartbeatEvery > 0 && t.Sub(d.lastHeartbeat) >= d.heartbeatEvery {
		d.publishHeartbeat()
		d.lastHeartbeat = t
	}
}

func (d *daemon) stepEgg(t time.Time, nowMs uint32) {
	if nowMs-d.lastScanMS >= uint32(scan.NormalInterval.Milliseconds()) {
		d.lastScanMS = nowMs
		res, err := d.scanner.Scan(context.Background(), scan.Duration)
		if err != nil {
			log.Warn().Err(err).Msg("scan failed")
		} else {
			for i := uint32(0); i < res.NewStable; i++ {
				d.egg.OnMacDiscovered(true)
			}
			for i := uint32(0); i < res.NewRandom; i++ {
				d.egg.OnMacDiscovered(false)
			}
			d.lastScan = res
		}
	}

	wallMs := t.UnixMilli()
	d.tracker.UpdateEgg(status.Egg{
		ProgressPercent: d.egg.ProgressPercent(wallMs),
		RemainingMs:     d.egg.RemainingMs(wallMs),
		MacCount:        d.egg.MacTotal(),
		RandRatio:       d.egg.RandRatio(),
	})

	if d.egg.IsComplete(wallMs) {
		d.egg.Lock()
		if err := d.store.Flush(); err != nil {
			log.Error().Err(err).Msg("persist hatch failed")
		}
		d.phase = status.PhaseNormal
		d.tracker.SetPhase(status.PhaseNormal)
		log.Info().
			Uint32("macs", d.egg.MacTotal()).
			Float64("rand_ratio", d.egg.RandRatio()).
			Msg("hatched")
		d.publishEvent(mqtt.EventHatched, t, d.mood.Current(d.tickMs(t)), d.motion.State())
	}
}

func (d *daemon) stepNormal(t time.Time, nowMs uint32, state motion.State) {
	interval := scan.ChooseInterval(state, d.hunger.Get(), false)
	if nowMs-d.lastScanMS >= uint32(interval.Milliseconds()) {
		d.doScan(t, nowMs)
	}

	d.hunger.DecayTick(state, nowMs)

	stable, random := d.recent.CountBreakdown(nowMs, scan.NoveltyWindowMS)
	d.mood.Update(d.hunger.Get(), state, int(d.lastScan.New()), stable+random, nowMs)
}

func (d *daemon) doScan(t time.Time, nowMs uint32) {
	d.lastScanMS = nowMs
	res, err := d.scanner.Scan(context.Background(), scan.Duration)
	if err != nil {
		log.Warn().Err(err).Msg("scan failed")
		return
	}
	d.lastScan = res

	for i := uint32(0); i < res.NewStable; i++ {
		d.hunger.Feed(true)
	}
	for i := uint32(0); i < res.NewRandom; i++ {
		d.hunger.Feed(false)
	}
	d.macToday += res.New()
	d.macTotal += res.New()

	d.scansSinceFlush++
	if d.scansSinceFlush >= scansPerFlush {
		d.store.SetBloom(d.filter.Bytes())
		d.store.SetMacTotal(d.macTotal)
		d.store.SetHunger(d.hunger.Get())
		if err := d.store.Flush(); err != nil {
			log.Error().Err(err).Msg("persist scan state failed")
		}
		d.scansSinceFlush = 0
	}

	stable, random := d.recent.CountBreakdown(nowMs, scan.NoveltyWindowMS)
	d.noveltyScore = scan.NoveltyScore(stable, random)
	d.recent.Expire(nowMs, scan.NoveltyWindowMS)

	d.tracker.UpdateScan(res.New(), stable+random, d.noveltyScore, d.macToday, d.macTotal)

	log.Debug().
		Uint32("new_stable", res.NewStable).
		Uint32("new_random", res.NewRandom).
		Uint32("total_seen", res.TotalSeen).
		Int("novelty", d.noveltyScore).
		Msg("scan complete")

	if res.New() > 0 {
		d.publishEvent(mqtt.EventScan, t, d.mood.Current(nowMs), d.motion.State())
	}
}

func (d *daemon) handleButton(ev buttons.Event, t time.Time, nowMs uint32) {
	switch ev {
	case buttons.Btn1Short:
		log.Info().
			Int("hunger", d.hunger.Get()).
			Uint32("macs_today", d.macToday).
			Uint32("macs_total", d.macTotal).
			Msg("status")

	case buttons.Btn1Hold:
		log.Info().Int("novelty", d.noveltyScore).Msg("novelty score")

	case buttons.Btn2Short:
		// Pet the creature.
		d.mood.ForceTransient(mood.Happy, 2000, nowMs)
		log.Debug().Msg("petted")

	case buttons.BothHoldLong:
		if d.phase == status.PhaseEgg {
			log.Info().Int64("remaining_ms", d.egg.RemainingMs(t.UnixMilli())).Msg("egg countdown")
			return
		}
		snap := d.tracker.Snapshot()
		diag := mqtt.SystemEvent{
			Timestamp:  t,
			Event:      "DIAGNOSTIC",
			RawPayload: status.FormatStatusEvent(snap, "DIAGNOSTIC", ""),
		}
		if err := d.publisher.PublishSystem(diag); err != nil {
			log.Warn().Err(err).Msg("diagnostic publish failed")
		}
	}
}

func (d *daemon) publishEvent(tp mqtt.EventType, t time.Time, m mood.Mood, state motion.State) {
	event := mqtt.Event{
		Timestamp:    t,
		Type:         tp,
		Mood:         m,
		Hunger:       d.hunger.Get(),
		Motion:       state,
		NoveltyScore: d.noveltyScore,
		NewStable:    d.lastScan.NewStable,
		NewRandom:    d.lastScan.NewRandom,
	}
	if err := d.publisher.Publish(event); err != nil {
		log.Warn().Err(err).Str("type", string(tp)).Msg("event publish failed")
	}
}

func (d *daemon) publishHeartbeat() {
	if d.mqttConn != nil {
		d.tracker.SetMQTTConnected(d.mqttConn.IsConnected())
	}
	snap := d.tracker.Snapshot()
	hb := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "HEARTBEAT",
		RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
	}
	if err := d.publisher.PublishSystem(hb); err != nil {
		log.Warn().Err(err).Msg("heartbeat publish failed")
	}
}

func (d *daemon) persist(nowMs uint32) {
	d.store.SetHunger(d.hunger.Get())
	d.store.SetMoodOrdinal(mood.Ordinal(d.mood.Current(nowMs)))
	d.store.SetMacTotal(d.macTotal)
	d.store.SetBloom(d.filter.Bytes())
	if err := d.store.Flush(); err != nil {
		log.Error().Err(err).Msg("persist failed")
	}
}
