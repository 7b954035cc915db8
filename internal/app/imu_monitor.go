package app

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/holocube/internal/config"
	"github.com/relabs-tech/holocube/internal/gesture"
	"github.com/relabs-tech/holocube/internal/imu"
	"github.com/relabs-tech/holocube/internal/input"
	"github.com/relabs-tech/holocube/internal/sensors"
	"github.com/relabs-tech/holocube/internal/telemetry"
)

// monitorLine formats one sample with the translator state for threshold
// tuning.
func monitorLine(s imu.Sample, ev input.EncoderEvent, armed bool) string {
	mark := ""
	if ev.RotationDelta != 0 {
		mark = fmt.Sprintf("  <-- rotate %+d", ev.RotationDelta)
	}
	return fmt.Sprintf(
		"[IMU ] ax=%6d ay=%6d az=%6d  gx=%6d gy=%6d gz=%6d  armed=%-5t button=%-8s%s",
		s.Ax, s.Ay, s.Az, s.Gx, s.Gy, s.Gz, armed, ev.Button, mark,
	)
}

// samplePublisher receives evaluated samples; *telemetry.Publisher
// implements it.
type samplePublisher interface {
	PublishIMU(imu.Sample, input.EncoderEvent, bool)
}

// evaluate feeds one sample to the translator. When the sample was evaluated
// it returns the console line and forwards the sample to pub, if set.
func evaluate(tr *gesture.Translator, s imu.Sample, elapsedMS int, pub samplePublisher) (string, bool) {
	if !tr.Update(s, elapsedMS) {
		return "", false
	}
	ev, armed := tr.Consume(), tr.Armed()
	if pub != nil {
		pub.PublishIMU(s, ev, armed)
	}
	return monitorLine(s, ev, armed), true
}

// RunIMUMonitor samples the sensor at the gesture interval and prints every
// evaluated sample along with the encoder events it produced. With
// MQTT_BROKER set the samples are also published on TOPIC_IMU.
func RunIMUMonitor() error {
	cfg := config.Get()
	log.Printf("imu_monitor: driver=%s interval=%dms T=%d P=%d", cfg.IMUDriver,
		cfg.GestureSampleInterval, cfg.GestureRotateThreshold, cfg.GesturePressThreshold)

	sampler, err := sensors.Open(cfg)
	if err != nil {
		return err
	}
	tr := gesture.New(gesture.ConfigFrom(cfg))

	var pub samplePublisher
	if cfg.MQTTBroker != "" {
		p, err := telemetry.Connect(cfg)
		if err != nil {
			log.Printf("imu_monitor: telemetry disabled: %v", err)
		} else {
			defer p.Close()
			pub = p
			log.Printf("imu_monitor: publishing samples on %s", cfg.TopicIMU)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	interval := time.Duration(cfg.GestureSampleInterval) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last time.Time
	for {
		select {
		case <-sigCh:
			log.Println("imu_monitor: shutting down")
			return nil
		case now := <-ticker.C:
			s, err := sampler.Poll()
			if err != nil {
				log.Printf("imu_monitor: read error: %v", err)
				s = imu.Neutral(now.UnixMilli())
			}
			elapsed := int(interval / time.Millisecond)
			if !last.IsZero() {
				elapsed = int(now.Sub(last).Milliseconds())
			}
			last = now
			if line, ok := evaluate(tr, s, elapsed, pub); ok {
				fmt.Println(line)
			}
		}
	}
}
