// Command vrdemo drives a vr.Context through a number of frames, drawing a
// test pattern into each eye, and optionally writes the companion view to
// a PNG file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/vr"
	"github.com/gogpu/vr/integration/companion"
	"github.com/gogpu/vr/internal/config"
	"github.com/gogpu/vr/tracking"
	"github.com/gogpu/vr/tracking/sim"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML configuration file")
		frames     = flag.Int("frames", 0, "frames to run (overrides the configuration)")
		output     = flag.String("output", "", "companion PNG file (overrides the configuration)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *frames > 0 {
		cfg.Frames = *frames
	}
	if *output != "" {
		cfg.Companion.Output = *output
	}
	vr.SetLogger(cfg.NewLogger(os.Stderr))

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config) error {
	opts := cfg.ContextOptions()

	// The simulator is scripted so the run shows device events.
	var script *sim.Runtime
	if cfg.Driver == "" || cfg.Driver == sim.DriverName {
		rt, err := sim.New(sim.DefaultConfig())
		if err != nil {
			return err
		}
		script = rt
		opts = append(opts, vr.WithRuntime(rt))
	}

	ctx, err := vr.New(opts...)
	if err != nil {
		return fmt.Errorf("open context: %w", err)
	}
	defer func() {
		if err := ctx.Close(); err != nil && !errors.Is(err, vr.ErrClosed) {
			vr.Logger().Warn("close failed", "err", err)
		}
	}()

	ctx.AddListener(func(ev vr.DeviceEvent) {
		vr.Logger().Info("device event", "kind", ev.Kind, "device", ev.Device, "button", ev.Button)
		if ev.Kind == vr.EventButtonPressed && ev.Device.Type() == vr.DeviceController {
			ev.Device.TriggerHapticPulse(2 * time.Millisecond)
		}
	})

	start := time.Now()
	for frame := 0; frame < cfg.Frames; frame++ {
		if script != nil {
			scriptFrame(script, frame)
		}
		if err := renderFrame(ctx, frame); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	if cfg.Companion.Output != "" {
		if err := writeCompanion(ctx, cfg); err != nil {
			return err
		}
	}
	printStats(ctx, elapsed)
	return nil
}

// scriptFrame feeds the simulator a trigger click on the right controller
// and a left controller dropout.
func scriptFrame(rt *sim.Runtime, frame int) {
	const right, left = 3, 4
	switch frame {
	case 30:
		_ = rt.SetAxis(right, vr.AxisTrigger, 1, 0)
		_ = rt.Press(right, vr.ButtonSteamVRTrigger)
	case 32:
		_ = rt.SetAxis(right, vr.AxisTrigger, 0, 0)
		_ = rt.Release(right, vr.ButtonSteamVRTrigger)
	case 60:
		_ = rt.Disconnect(left)
	case 75:
		_ = rt.Connect(left, tracking.ClassController, tracking.RoleLeftHand)
	}
}

func renderFrame(ctx *vr.Context, frame int) error {
	if err := ctx.Begin(); err != nil {
		return fmt.Errorf("frame %d: %w", frame, err)
	}
	for _, eye := range []vr.Eye{vr.EyeLeft, vr.EyeRight} {
		if err := ctx.BeginEye(eye); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
		et, err := ctx.EyeTarget(eye)
		if err != nil {
			return err
		}
		drawPattern(et.Image(), eye, frame)
		if err := ctx.EndEye(); err != nil {
			return fmt.Errorf("frame %d: %w", frame, err)
		}
	}
	// Submit failures leave the context usable; report and continue.
	if err := ctx.End(); err != nil {
		vr.Logger().Warn("frame not fully presented", "frame", frame, "err", err)
	}
	return nil
}

// drawPattern fills img with a checkerboard tinted per eye and a bar that
// sweeps across the surface as frames advance.
func drawPattern(img *image.RGBA, eye vr.Eye, frame int) {
	const cell = 64
	tint := color.RGBA{R: 200, G: 80, B: 80, A: 255}
	if eye == vr.EyeRight {
		tint = color.RGBA{R: 80, G: 80, B: 200, A: 255}
	}
	dark := image.NewUniform(color.RGBA{R: 30, G: 30, B: 30, A: 255})
	light := image.NewUniform(tint)

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y += cell {
		for x := b.Min.X; x < b.Max.X; x += cell {
			src := dark
			if (x/cell+y/cell)%2 == 0 {
				src = light
			}
			r := image.Rect(x, y, x+cell, y+cell).Intersect(b)
			draw.Draw(img, r, src, image.Point{}, draw.Src)
		}
	}

	barX := b.Min.X + (frame*8)%max(b.Dx(), 1)
	bar := image.Rect(barX, b.Min.Y, barX+cell/4, b.Max.Y).Intersect(b)
	draw.Draw(img, bar, image.White, image.Point{}, draw.Src)
}

func writeCompanion(ctx *vr.Context, cfg *config.Config) error {
	w, h := ctx.CompanionSize()
	if cfg.Companion.Width > 0 {
		w = cfg.Companion.Width
	}
	if cfg.Companion.Height > 0 {
		h = cfg.Companion.Height
	}
	mirror, err := companion.New(w, h, companion.WithEye(cfg.CompanionEye()))
	if err != nil {
		return err
	}
	defer func() { _ = mirror.Close() }()

	if err := mirror.Update(ctx); err != nil {
		return err
	}

	f, err := os.Create(cfg.Companion.Output)
	if err != nil {
		return fmt.Errorf("create companion image: %w", err)
	}
	if err := png.Encode(f, mirror.Image()); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode companion image: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("Companion view saved to %s (%dx%d)\n", cfg.Companion.Output, w, h)
	return nil
}

func printStats(ctx *vr.Context, elapsed time.Duration) {
	s := ctx.Stats()
	p := message.NewPrinter(language.English)
	p.Printf("session          %s\n", ctx.ID())
	p.Printf("frames           %d in %v\n", s.Frames, elapsed.Round(time.Millisecond))
	if secs := elapsed.Seconds(); secs > 0 {
		p.Printf("frame rate       %.1f fps\n", float64(s.Frames)/secs)
	}
	p.Printf("events           %d\n", s.EventsDispatched)
	p.Printf("drain bound hits %d\n", s.DrainLimitHits)
	p.Printf("invalid hmd      %d\n", s.InvalidHMDFrames)
	p.Printf("submit failures  %d\n", s.SubmitFailures)
}
