// Command broker runs the MQTT server: a TCP listener plus, if
// configured, a websocket listener, against a shared client table and
// subscription index.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/logrusorgru/aurora"

	mqtt "github.com/quayside-mqtt/broker"
	"github.com/quayside-mqtt/broker/listeners"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	opts, err := mqtt.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	broker := mqtt.New(log).WithCapabilities(opts.Capabilities)

	for _, lc := range opts.Listeners {
		switch lc.Type {
		case "websocket":
			broker.AddListener(listeners.NewWebsocket(lc.ID, lc.Address))
		default:
			broker.AddListener(listeners.NewTCP(lc.ID, lc.Address))
		}
	}

	banner(opts)

	if err := broker.Serve(); err != nil {
		log.Error("failed to start listeners", slog.Any("error", err))
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	fmt.Println(aurora.BgRed("  Caught Signal  "))
	broker.Close()
	fmt.Println(aurora.BgGreen("  Finished  "))
}

func banner(opts *mqtt.Options) {
	fmt.Println(aurora.Magenta("Broker initializing..."))
	for _, lc := range opts.Listeners {
		fmt.Println(aurora.Cyan(lc.Type), lc.ID, lc.Address)
	}
	fmt.Println(aurora.BgMagenta("  Started!  "))
}
