package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/printbridge/labelctl/internal/config"
	"github.com/printbridge/labelctl/internal/engine"
	"github.com/printbridge/labelctl/internal/logging"
	"github.com/printbridge/labelctl/internal/protocol"
	"github.com/printbridge/labelctl/internal/raster"
	"github.com/printbridge/labelctl/internal/transport"
)

func main() {
	cfgPath := flag.String("config", "labelctl.toml", "path to the config file")
	initConfig := flag.Bool("init-config", false, "write a starter config and exit")
	force := flag.Bool("force", false, "overwrite an existing config with -init-config")

	imagePath := flag.String("image", "", "PNG or JPEG label image to print")
	width := flag.Int("width", 0, "scale the image to this pixel width before printing")
	quantity := flag.Int("quantity", 0, "override configured label quantity")
	density := flag.Int("density", 0, "override configured print density")
	address := flag.String("address", "", "override configured printer address")

	heartbeat := flag.Bool("heartbeat", false, "query printer physical state and exit")
	info := flag.Bool("info", false, "query device properties and exit")
	rfid := flag.Bool("rfid", false, "read the label roll tag and exit")
	flag.Parse()

	if *initConfig {
		if err := config.WriteTemplate(*cfgPath, *force); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", *cfgPath)
		return
	}

	log := logging.ConfigureRuntime()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if *address != "" {
		cfg.Transport.Address = *address
	}
	if *quantity > 0 {
		cfg.Job.Quantity = *quantity
	}
	if *density > 0 {
		cfg.Job.Density = *density
	}

	tr, err := dial(cfg.Transport, log)
	if err != nil {
		log.Fatal().Err(err).Msg("connect")
	}

	client := engine.NewClient(tr,
		engine.WithLogger(log),
		engine.WithRequestTimeout(time.Duration(cfg.Transport.RequestTimeoutMS)*time.Millisecond),
		engine.WithCompletionPolicy(cfg.Polling.CompletionPolicy()),
	)
	defer client.Close()

	ctx := context.Background()
	switch {
	case *heartbeat:
		err = showHeartbeat(ctx, client)
	case *info:
		err = showInfo(ctx, client)
	case *rfid:
		err = showRfid(ctx, client)
	case *imagePath != "":
		err = printImage(ctx, client, *imagePath, *width, cfg.Job)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func dial(cfg config.TransportConfig, log zerolog.Logger) (transport.Transport, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	log.Info().Str("kind", kind).Str("address", cfg.Address).Msg("connecting")
	switch kind {
	case "ble":
		return transport.DialBLE(cfg.BLE())
	case "rfcomm":
		return transport.DialRFCOMM(cfg.RFCOMM())
	default:
		return nil, fmt.Errorf("unknown transport kind %q", cfg.Kind)
	}
}

func printImage(ctx context.Context, client *engine.Client, path string, width int, job config.JobConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if width > 0 {
		img = raster.ScaleToWidth(img, width)
	}
	return client.Print(ctx, img, job.PrintJob())
}

func showHeartbeat(ctx context.Context, client *engine.Client) error {
	report, err := client.Heartbeat(ctx)
	if err != nil {
		return err
	}
	show := func(name string, v *byte) {
		if v == nil {
			fmt.Printf("%-10s n/a\n", name)
			return
		}
		fmt.Printf("%-10s %d\n", name, *v)
	}
	show("cover", report.ClosingState)
	show("battery", report.PowerLevel)
	show("paper", report.PaperState)
	show("rfid", report.RfidReadState)
	return nil
}

var infoKeys = []struct {
	key  protocol.InfoKey
	name string
}{
	{protocol.InfoDeviceType, "device type"},
	{protocol.InfoDeviceSerial, "serial"},
	{protocol.InfoSoftwareVersion, "software"},
	{protocol.InfoHardwareVersion, "hardware"},
	{protocol.InfoBatteryLevel, "battery"},
	{protocol.InfoDensity, "density"},
	{protocol.InfoLabelType, "label type"},
	{protocol.InfoAutoShutdownTime, "auto shutdown"},
}

func showInfo(ctx context.Context, client *engine.Client) error {
	for _, k := range infoKeys {
		info, err := client.DeviceInfo(ctx, k.key)
		if err != nil {
			// Not every firmware answers every key.
			fmt.Printf("%-14s n/a (%v)\n", k.name, err)
			continue
		}
		switch k.key {
		case protocol.InfoDeviceSerial:
			fmt.Printf("%-14s %s\n", k.name, info.Serial)
		case protocol.InfoSoftwareVersion, protocol.InfoHardwareVersion:
			fmt.Printf("%-14s %.2f\n", k.name, info.Version)
		default:
			fmt.Printf("%-14s %d\n", k.name, info.Value)
		}
	}
	return nil
}

func showRfid(ctx context.Context, client *engine.Client) error {
	rec, err := client.ReadRfid(ctx)
	if err != nil {
		return err
	}
	if rec == nil {
		fmt.Println("no tag present")
		return nil
	}
	fmt.Printf("uuid      %s\n", rec.UUID)
	fmt.Printf("barcode   %s\n", rec.Barcode)
	fmt.Printf("serial    %s\n", rec.Serial)
	fmt.Printf("capacity  %d/%d\n", rec.UsedCapacity, rec.TotalCapacity)
	fmt.Printf("type      %d\n", rec.Type)
	return nil
}
