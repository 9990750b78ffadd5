package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"tinygo.org/x/drivers"

	"github.com/spydeee/hexapod"
	"github.com/spydeee/hexapod/components/controller"
	"github.com/spydeee/hexapod/components/legs"
	"github.com/spydeee/hexapod/config"
	fakei2c "github.com/spydeee/hexapod/fake/i2c"
	"github.com/spydeee/hexapod/i2c"
	"github.com/spydeee/hexapod/pca9685"
	"github.com/spydeee/hexapod/servos"
)

var (
	configPath = flag.String("config", "", "path to the robot yaml file")
	inputPath  = flag.String("input", "/dev/input/event0", "the gamepad event device")
	dryRun     = flag.Bool("dry-run", false, "run the pipeline without touching hardware")
	debug      = flag.Bool("debug", false, "show debug logging")
)

func main() {
	flag.Parse()

	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("error loading config: %s\n", err)
		os.Exit(1)
	}
	if *dryRun {
		cfg.DryRun = true
	}

	var bus drivers.I2C
	if cfg.DryRun {
		fmt.Println("Dry run, using fake bus...")
		bus = &fakei2c.FakeBus{}
	} else {
		fmt.Println("Opening I2C bus...")
		b, err := i2c.Open(cfg.BusPath)
		if err != nil {
			fmt.Printf("error opening bus: %s\n", err)
			os.Exit(1)
		}
		defer b.Close()
		bus = b
	}

	right := pca9685.New(bus, cfg.AddrRight)
	left := pca9685.New(bus, cfg.AddrLeft)
	for _, dev := range []*pca9685.Device{right, left} {
		if err := dev.Configure(cfg.PWMFrequency); err != nil {
			fmt.Printf("error configuring pwm: %s\n", err)
			os.Exit(1)
		}
	}

	mapper := servos.NewMapper(right, left, cfg.Calibration, cfg.Channels, cfg.MinPulse, cfg.MaxPulse, cfg.DryRun)

	h := hexapod.New()

	fmt.Println("Creating components...")
	h.Add(legs.New(mapper))

	f, err := os.Open(*inputPath)
	if err != nil {
		if !cfg.DryRun {
			fmt.Printf("error opening controller: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("no controller (%s), walking at zero speed\n", err)
	} else {
		defer f.Close()
		h.Add(controller.New(f))
	}

	fmt.Println("Booting components...")
	err = h.Boot()
	if err != nil {
		fmt.Printf("error while booting: %s\n", err)
		os.Exit(1)
	}

	// Catch both SIGINT (ctrl+c) and SIGTERM (kill/systemd), so the legs
	// settle before the process exits.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range c {
			fmt.Println("Caught signal, shutting down...")
			h.State.Shutdown = true
		}
	}()

	// The walk tick paces itself (it sleeps for a speed-dependent interval),
	// so the loop needs no ticker.
	fmt.Println("Starting loop...")
	for !h.State.Shutdown {
		if err := h.Tick(time.Now()); err != nil {
			fmt.Printf("error while ticking: %s\n", err)
			break
		}
	}

	fmt.Println("Halted.")
}
