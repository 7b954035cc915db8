package app

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/relabs-tech/holocube/internal/config"
	"github.com/relabs-tech/holocube/internal/imu"
	"github.com/relabs-tech/holocube/internal/sensors"
)

// Stillness heuristics, in raw accelerometer counts.
const (
	restSigma = 4.0 // rest band = |mean| + restSigma*stddev
	poseSigma = 2.0 // pose level = |mean| - poseSigma*stddev
)

// AxisStats summarises one accelerometer axis over a pose.
type AxisStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// PoseStats is what the sensor reported while the cube was held in one pose.
type PoseStats struct {
	Name    string    `json:"name"`
	Samples int       `json:"samples"`
	Ax      AxisStats `json:"ax"`
	Ay      AxisStats `json:"ay"`
}

// ThresholdSuggestion holds gesture thresholds derived from guided poses.
// Margins are the distance from each threshold to the nearest pose level.
type ThresholdSuggestion struct {
	Rotate       int     `json:"rotate"`
	Press        int     `json:"press"`
	RotateMargin float64 `json:"rotate_margin"`
	PressMargin  float64 `json:"press_margin"`
}

// ConfigLines renders the suggestion as config file lines.
func (s ThresholdSuggestion) ConfigLines() string {
	return fmt.Sprintf("GESTURE_ROTATE_THRESHOLD=%d\nGESTURE_PRESS_THRESHOLD=%d\n", s.Rotate, s.Press)
}

func mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

func stddev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	m := mean(data)
	variance := 0.0
	for _, v := range data {
		diff := v - m
		variance += diff * diff
	}
	variance /= float64(len(data))
	return math.Sqrt(variance)
}

func poseStats(name string, samples []imu.Sample) PoseStats {
	ax := make([]float64, len(samples))
	ay := make([]float64, len(samples))
	for i, s := range samples {
		ax[i] = float64(s.Ax)
		ay[i] = float64(s.Ay)
	}
	return PoseStats{
		Name:    name,
		Samples: len(samples),
		Ax:      AxisStats{Mean: mean(ax), StdDev: stddev(ax)},
		Ay:      AxisStats{Mean: mean(ay), StdDev: stddev(ay)},
	}
}

// SuggestThresholds places each threshold halfway between the rest band and
// the weakest deliberate pose on that axis.
func SuggestThresholds(rest, right, left, forward PoseStats) (ThresholdSuggestion, error) {
	if right.Ay.Mean*left.Ay.Mean >= 0 {
		return ThresholdSuggestion{}, errors.New("left and right tilts must move the lateral axis in opposite directions")
	}
	if forward.Ax.Mean <= rest.Ax.Mean {
		return ThresholdSuggestion{}, errors.New("forward tilt must raise the forward axis")
	}

	restY := math.Abs(rest.Ay.Mean) + restSigma*rest.Ay.StdDev
	tiltY := math.Min(
		math.Abs(right.Ay.Mean)-poseSigma*right.Ay.StdDev,
		math.Abs(left.Ay.Mean)-poseSigma*left.Ay.StdDev,
	)
	if tiltY <= restY {
		return ThresholdSuggestion{}, fmt.Errorf("tilt level %.0f does not clear rest band %.0f", tiltY, restY)
	}

	restX := rest.Ax.Mean + restSigma*rest.Ax.StdDev
	pressX := forward.Ax.Mean - poseSigma*forward.Ax.StdDev
	if pressX <= restX {
		return ThresholdSuggestion{}, fmt.Errorf("forward level %.0f does not clear rest band %.0f", pressX, restX)
	}

	return ThresholdSuggestion{
		Rotate:       int(math.Round((restY + tiltY) / 2)),
		Press:        int(math.Round((restX + pressX) / 2)),
		RotateMargin: (tiltY - restY) / 2,
		PressMargin:  (pressX - restX) / 2,
	}, nil
}

// collectPose polls sampler for d, skipping failed reads.
func collectPose(sampler imu.Sampler, name string, d, interval time.Duration) (PoseStats, error) {
	var samples []imu.Sample
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if s, err := sampler.Poll(); err == nil {
			samples = append(samples, s)
		}
		time.Sleep(interval)
	}
	if len(samples) == 0 {
		return PoseStats{}, fmt.Errorf("%s: %w: no samples", name, imu.ErrSensorUnavailable)
	}
	return poseStats(name, samples), nil
}

// RunCalibration guides the user through four poses and prints suggested
// gesture thresholds.
func RunCalibration(poseDuration time.Duration) error {
	cfg := config.Get()
	sampler, err := sensors.Open(cfg)
	if err != nil {
		return err
	}

	in := bufio.NewReader(os.Stdin)
	interval := 10 * time.Millisecond
	poses := []struct{ name, prompt string }{
		{"rest", "Hold the cube upright and still"},
		{"right", "Tilt the cube to the right and hold"},
		{"left", "Tilt the cube to the left and hold"},
		{"forward", "Tip the cube forward and hold"},
	}

	stats := make([]PoseStats, 0, len(poses))
	for _, p := range poses {
		fmt.Printf("%s, then press Enter...", p.prompt)
		if _, err := in.ReadString('\n'); err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		st, err := collectPose(sampler, p.name, poseDuration, interval)
		if err != nil {
			return err
		}
		fmt.Printf("  %-8s n=%4d  ax=%8.1f ±%6.1f  ay=%8.1f ±%6.1f\n",
			st.Name, st.Samples, st.Ax.Mean, st.Ax.StdDev, st.Ay.Mean, st.Ay.StdDev)
		stats = append(stats, st)
	}

	sug, err := SuggestThresholds(stats[0], stats[1], stats[2], stats[3])
	if err != nil {
		return err
	}
	fmt.Printf("\nSuggested thresholds (current T=%d P=%d):\n", cfg.GestureRotateThreshold, cfg.GesturePressThreshold)
	fmt.Print(sug.ConfigLines())
	if stats[1].Ay.Mean < 0 {
		fmt.Println(strings.TrimSpace(`
# right tilt reads negative on this mounting; set GESTURE_INVERT=true if
# right should mean "previous"`))
	}
	return nil
}
