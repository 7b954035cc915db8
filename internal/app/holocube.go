package app

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/holocube/internal/config"
	"github.com/relabs-tech/holocube/internal/frames"
	"github.com/relabs-tech/holocube/internal/gesture"
	"github.com/relabs-tech/holocube/internal/gui"
	"github.com/relabs-tech/holocube/internal/imu"
	"github.com/relabs-tech/holocube/internal/preview"
	"github.com/relabs-tech/holocube/internal/render"
	"github.com/relabs-tech/holocube/internal/sensors"
	"github.com/relabs-tech/holocube/internal/telemetry"
)

// Version is shown on the splash screen.
var Version = "dev"

// loopPeriod paces the main loop; the translator and animation keep their
// own cadence on top of it.
const loopPeriod = 5 * time.Millisecond

// reportEvery paces the optional status callback of runHoloCube.
const reportEvery = time.Second

// RunHoloCube brings the device up in dependency order and runs the main loop
// until SIGINT/SIGTERM.
func RunHoloCube() error {
	return runHoloCube(config.Get(), nil)
}

func runHoloCube(cfg *config.Config, report func(telemetry.PlaybackStatus)) error {
	log.Printf("holocube: starting %s", Version)

	// 1) display + backlight
	pipe, err := render.Open(cfg)
	if err != nil {
		return err
	}
	g := gui.New(pipe)
	g.ShowSplash(Version)
	g.ServiceQueue()

	// 2) input device, registered before any sample can be produced
	tr := gesture.New(gesture.ConfigFrom(cfg))
	g.RegisterInputDevice(tr)

	// 3) sensor
	var sampler imu.Sampler
	if s, err := sensors.Open(cfg); err != nil {
		log.Printf("holocube: sensor unavailable, gestures disabled: %v", err)
	} else {
		sampler = s
		log.Printf("holocube: sensor %s ready", cfg.IMUDriver)
	}

	// 4) storage
	if _, err := os.Stat(cfg.FrameDir); err != nil {
		log.Printf("holocube: frame directory: %v", err)
	}
	src := frames.NewSource(frames.DirStorage{}, frames.OptionsFrom(cfg))

	o := NewOrchestrator(g, pipe, sampler, tr, src, Options{
		FrameInterval:     time.Duration(cfg.FrameInterval) * time.Millisecond,
		RetryLimit:        cfg.FrameRetryLimit,
		TelemetryInterval: time.Duration(cfg.TelemetryInterval) * time.Millisecond,
	})

	if cfg.MQTTBroker != "" {
		pub, err := telemetry.Connect(cfg)
		if err != nil {
			log.Printf("holocube: telemetry disabled: %v", err)
		} else {
			defer pub.Close()
			g.OnEvent(pub.PublishEvent)
			o.SetPublisher(pub)
		}
	}

	if cfg.PreviewAddr != "" {
		srv := preview.New(pipe, o.Status, time.Duration(cfg.PreviewInterval)*time.Millisecond)
		go func() {
			if err := srv.ListenAndServe(cfg.PreviewAddr); err != nil {
				log.Printf("holocube: preview server stopped: %v", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(loopPeriod)
	defer ticker.Stop()

	log.Println("holocube: main loop running")
	var lastReport time.Time
	for {
		select {
		case <-sigCh:
			log.Println("holocube: shutting down")
			return nil
		case now := <-ticker.C:
			o.Tick(now)
			if report != nil && now.Sub(lastReport) >= reportEvery {
				lastReport = now
				report(o.Status())
			}
		}
	}
}
