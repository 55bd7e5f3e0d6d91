// Command ladder-game runs the light-ladder reaction game on a Raspberry Pi.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/sweeney/ladder-game/internal/config"
	"github.com/sweeney/ladder-game/internal/game"
	"github.com/sweeney/ladder-game/internal/gpio"
	"github.com/sweeney/ladder-game/internal/loop"
	"github.com/sweeney/ladder-game/internal/mqtt"
	"github.com/sweeney/ladder-game/internal/score"
	"github.com/sweeney/ladder-game/internal/status"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults are used if empty)")
	player := flag.String("player", "", "Player name recorded with scores")
	broker := flag.String("broker", "", "MQTT broker address (empty to disable)")
	redisAddr := flag.String("redis", "", "Redis address for highscores (empty to disable)")
	scoreFile := flag.String("score-file", "", "Append scores to this JSON-lines file")
	tick := flag.Duration("tick", 0, "Loop tick period")
	heartbeat := flag.Duration("heartbeat", -1, "Heartbeat interval (0 to disable)")
	printState := flag.Bool("print-state", false, "Print current bank state and exit")

	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("fatal: %v", err)
		}
	}
	applyFlags(&cfg, flagValues{
		player:    *player,
		broker:    *broker,
		redis:     *redisAddr,
		scoreFile: *scoreFile,
		tick:      *tick,
		heartbeat: *heartbeat,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: %v", err)
	}

	if err := run(cfg, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// flagValues holds command-line overrides. Zero values (and a negative
// heartbeat) leave the config unchanged.
type flagValues struct {
	player    string
	broker    string
	redis     string
	scoreFile string
	tick      time.Duration
	heartbeat time.Duration
}

func applyFlags(cfg *config.Config, f flagValues) {
	if f.player != "" {
		cfg.Player = f.player
	}
	if f.broker != "" {
		cfg.MQTT.Broker = f.broker
	}
	if f.redis != "" {
		cfg.Redis.Addr = f.redis
	}
	if f.scoreFile != "" {
		cfg.ScoreFile = f.scoreFile
	}
	if f.tick > 0 {
		cfg.Tick = f.tick
	}
	if f.heartbeat >= 0 {
		cfg.Heartbeat = f.heartbeat
	}
}

func run(cfg config.Config, printState bool) error {
	port, err := gpio.NewRealPort(cfg.GPIO)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer port.Close()

	if printState {
		return printBanks(port, cfg.GPIO)
	}

	session := uuid.NewString()
	writers := []score.Writer{score.LogWriter{}}

	if cfg.ScoreFile != "" {
		fw, err := score.NewFileWriter(cfg.ScoreFile)
		if err != nil {
			return err
		}
		defer fw.Close()
		writers = append(writers, fw)
	}

	if cfg.Redis.Addr != "" {
		store, err := score.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Key, cfg.Redis.Timeout)
		if err != nil {
			return err
		}
		defer store.Close()
		writers = append(writers, store)
		logHighscores(store)
	}

	// A nil *RealPublisher must not end up inside the interfaces.
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		pub := mqtt.NewRealPublisher(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.ConnectTimeout, time.Now)
		defer pub.Close()
		publisher, mqttStatus = pub, pub
		writers = append(writers, score.WriterFunc(pub.PublishScore))
	}

	recorder := score.NewRecorder(session, time.Now, writers...)
	l := loop.New(cfg.Tick, time.Now)

	g, err := game.New(cfg.GameConfig(), l, port, recorder, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		return fmt.Errorf("init game: %w", err)
	}

	tracker := status.NewTracker(session, cfg.Player, status.Config{
		TickMs:      cfg.Tick.Milliseconds(),
		HeartbeatMs: cfg.Heartbeat.Milliseconds(),
		Levels:      cfg.Game.Levels,
		Broker:      cfg.MQTT.Broker,
		Redis:       cfg.Redis.Addr,
		ScoreFile:   cfg.ScoreFile,
	}, time.Now)

	log.Printf("started: session=%s tick=%v heartbeat=%v broker=%q", session, cfg.Tick, cfg.Heartbeat, cfg.MQTT.Broker)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runGame(l, g, publisher, mqttStatus, tracker, cfg.Heartbeat, l.Run, sigCh)
}

// runGame drives l with drive until a signal arrives or a tick fails fatally.
// drive is l.Run outside of tests. Lifecycle events go to publisher when it
// is non-nil.
func runGame(l *loop.Loop, g *game.Game, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, drive func(context.Context) error, sig <-chan os.Signal) error {
	refresh := func() status.Snapshot {
		tracker.Update(g.Snapshot(), l.Stats())
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
		return tracker.Snapshot()
	}

	publishStatus := func(event, reason string, retained bool) {
		if publisher == nil {
			return
		}
		snap := refresh()
		err := publisher.PublishSystem(mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      event,
			Reason:     reason,
			Retained:   retained,
			RawPayload: status.FormatStatusEvent(snap, event, reason),
		})
		if err != nil {
			log.Printf("failed to publish %s event: %v", event, err)
		}
	}

	publishStatus("STARTUP", "", true)

	if publisher != nil && heartbeat > 0 {
		_, err := l.ScheduleEvery(heartbeat, func() error {
			s := g.Snapshot()
			log.Printf("heartbeat: level=%d best=%d wins=%d losses=%d", s.Level, s.BestLevel, s.Wins, s.Losses)
			publishStatus("HEARTBEAT", "", false)
			return nil
		})
		if err != nil {
			return fmt.Errorf("schedule heartbeat: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reasonCh := make(chan string, 1)
	go func() {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			reasonCh <- signalName(s)
			cancel()
		case <-ctx.Done():
			reasonCh <- "ERROR"
		}
	}()

	runErr := drive(ctx)
	cancel()
	reason := <-reasonCh

	snap := refresh()
	log.Printf("stopped: reason=%s ticks=%d actions fired=%d", reason, snap.Loop.Ticks, snap.Loop.Fired)
	publishStatus("SHUTDOWN", reason, true)

	return runErr
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// printBanks writes the input and output pattern of every configured bank.
func printBanks(port gpio.Port, cfg gpio.Config) error {
	banks := make([]string, 0, len(cfg.Banks))
	for b := range cfg.Banks {
		banks = append(banks, string(b))
	}
	sort.Strings(banks)

	for _, name := range banks {
		bank := gpio.Bank(name)
		in, err := port.ReadInputs(bank)
		if err != nil {
			return fmt.Errorf("read bank %s inputs: %w", bank, err)
		}
		out, err := port.ReadOutputs(bank)
		if err != nil {
			return fmt.Errorf("read bank %s outputs: %w", bank, err)
		}
		fmt.Printf("bank %s: inputs=%08b outputs=%08b\n", bank, in, out)
	}
	return nil
}

func logHighscores(store *score.RedisStore) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	top, err := store.Top(ctx, 5)
	if err != nil {
		log.Printf("highscores: %v", err)
		return
	}
	for i, e := range top {
		log.Printf("highscore %d: %s level %d (%s)", i+1, e.Player, e.Level, e.Timestamp)
	}
}
