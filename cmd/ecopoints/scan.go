package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ecopoints-app/ecopoints/internal/app"
	"github.com/ecopoints-app/ecopoints/internal/camera"
	"github.com/ecopoints-app/ecopoints/internal/config"
	"github.com/ecopoints-app/ecopoints/internal/permission"
	"github.com/ecopoints-app/ecopoints/internal/scan"
	"github.com/ecopoints-app/ecopoints/internal/station"
)

const scanTimeout = 20 * time.Second

func cmdScan(a *app.App, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	imagePath := fs.String("image", "", "decode the QR code from this image file")
	payload := fs.String("payload", "", "submit an already-decoded payload")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := a.Current(); err != nil {
		return fmt.Errorf("inicia sesión primero con `ecopoints login`")
	}

	// A pre-decoded payload skips the camera entirely.
	if *payload != "" {
		return submitPayload(a, *payload)
	}

	device, err := camera.Detect(cfg.CaptureCommand, *imagePath)
	if err != nil {
		return fmt.Errorf("no hay forma de capturar: usa --image, --payload o configura capture_command")
	}

	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	done := make(chan struct{})
	var once sync.Once
	started := false

	engine := scan.New(permission.Web{}, device, scan.NewQRDecoder(), a.Client(), nil)
	engine.OnEarned = func(ev scan.EarnedEvent) {
		a.ApplyDelta(ev.Points)
	}
	engine.OnNotice = func(n scan.Notice) {
		fmt.Println(n.Message)
	}
	engine.OnState = func(s scan.State) {
		if s == scan.StateScanning {
			started = true
		}
		if started && s == scan.StateIdle {
			once.Do(func() { close(done) })
		}
	}

	if err := engine.Start(ctx); err != nil {
		return err
	}
	select {
	case <-done:
	case <-ctx.Done():
		engine.Stop()
		return fmt.Errorf("no se detectó ningún código QR")
	}
	return showBalance(a)
}

func submitPayload(a *app.App, payload string) error {
	ctx, cancel := commandContext()
	defer cancel()
	res, err := a.Client().ValidateQR(ctx, payload)
	if err != nil {
		return err
	}
	a.ApplyDelta(res.Points)
	fmt.Printf("¡%s! Ganaste %d ecopoints\n", res.Message, res.Points)
	return showBalance(a)
}

func showBalance(a *app.App) error {
	ctx, cancel := commandContext()
	defer cancel()
	bal, err := a.RefreshBalance(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Saldo actual: %d ecopoints\n", bal.Points)
	return nil
}

func cmdStation(args []string) error {
	fs := flag.NewFlagSet("station", flag.ContinueOnError)
	id := fs.String("id", "STATION-1", "station identifier")
	material := fs.String("material", string(station.MaterialPlastic), "material the station accepts")
	out := fs.String("out", "", "write the QR code as a PNG to this path")
	watch := fs.Bool("watch", false, "print a fresh payload at every rotation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	gen := &station.Generator{StationID: *id, Material: station.Material(*material)}

	if *out != "" {
		png, err := gen.PNG(512)
		if err != nil {
			return err
		}
		if err := os.WriteFile(*out, png, 0o644); err != nil {
			return err
		}
		fmt.Printf("QR de %s escrito en %s\n", *id, *out)
		return nil
	}

	payload, err := gen.Encode()
	if err != nil {
		return err
	}
	fmt.Println(payload)

	for *watch {
		time.Sleep(station.RotationInterval)
		if payload, err = gen.Encode(); err != nil {
			return err
		}
		fmt.Println(payload)
	}
	return nil
}
