// Command inspectord is the embedder binary: it owns a goja Runtime, wires
// it to a ProtocolHub and accepts a single newline-delimited JSON wire
// connection over TCP, mirroring the shape of the teacher's main.go/
// server.go (listen, accept, per-connection read loop, mutex-serialized
// writes) but
// speaking the DevTools-style protocol from spec.md §6 instead of DAP.
//
// A full WebSocket + /json/* HTTP discovery server is out of scope per
// spec.md §1; this binary exists only to exercise the control surface end
// to end.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/fansqz/js-inspector-bridge/internal/engine"
	"github.com/fansqz/js-inspector-bridge/internal/gosync"
	"github.com/fansqz/js-inspector-bridge/internal/hub"
	"github.com/fansqz/js-inspector-bridge/internal/obs"
)

var log = obs.For("inspectord")

func main() {
	addr := flag.String("addr", ":9222", "TCP address to listen on")
	breakOnStart := flag.Bool("break-on-start", false, "pause before the script's first statement")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	scriptPath := flag.String("script", "", "JavaScript file to load and run")
	flag.Parse()

	obs.SetLevel(*logLevel)

	if *scriptPath == "" {
		fmt.Fprintln(os.Stderr, "-script is required")
		os.Exit(1)
	}
	src, err := os.ReadFile(*scriptPath)
	if err != nil {
		log.WithError(err).Fatal("reading script")
	}

	facade := engine.NewGojaFacade()
	h, err := hub.New(facade)
	if err != nil {
		log.WithError(err).Fatal("creating hub")
	}

	consoleObj, err := h.CreateConsoleObject(facade.Runtime())
	if err != nil {
		log.WithError(err).Fatal("creating console object")
	}
	defer consoleObj.Close()

	sc, err := facade.LoadScript(*scriptPath, string(src))
	if err != nil {
		log.WithError(err).Fatal("compiling script")
	}

	listener, err := net.Listen("tcp", *addr)
	if err != nil {
		log.WithError(err).Fatal("listening")
	}
	defer listener.Close()
	log.WithField("addr", listener.Addr().String()).Info("inspectord listening")

	gosync.Go(context.Background(), func(context.Context) { runScript(facade, sc) })

	for {
		conn, err := listener.Accept()
		if err != nil {
			log.WithError(err).Error("accept failed")
			continue
		}
		serveConnection(conn, h, *breakOnStart)
	}
}

func runScript(facade *engine.GojaFacade, sc *engine.Script) {
	if _, err := facade.Run(sc); err != nil {
		log.WithError(err).Warn("script terminated with an error")
	} else {
		log.WithField("state", facade.RunState()).Info("script finished")
	}
}

// serveConnection wires exactly one wire connection to the hub, per
// spec.md §4.5: only one Connect is allowed at a time, so a second
// connection attempt while one is active is rejected and closed.
func serveConnection(conn net.Conn, h *hub.Hub, breakOnStart bool) {
	var writeMu sync.Mutex
	send := func(text string) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if _, err := fmt.Fprintln(conn, text); err != nil {
			log.WithError(err).Debug("write to client failed")
		}
	}

	if err := h.Connect(breakOnStart, send); err != nil {
		log.WithError(err).Warn("rejecting connection")
		conn.Close()
		return
	}

	go func() {
		defer conn.Close()
		scanner := bufio.NewScanner(conn)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			if err := h.SendCommand(line); err != nil {
				log.WithError(err).Warn("SendCommand failed")
			}
		}
		if err := h.Disconnect(); err != nil {
			log.WithError(err).Debug("disconnect on connection close")
		}
	}()
}
