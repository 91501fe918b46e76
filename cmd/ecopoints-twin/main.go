// ecopoints-twin is an in-memory emulator of the EcoPoints REST API for
// local development and tests. It speaks the production wire protocol,
// Spanish messages included, and loses all state on restart.
package main

import (
	"fmt"
	"os"

	"github.com/ecopoints-app/ecopoints/internal/twin"
	"github.com/ecopoints-app/ecopoints/internal/twin/api"
	"github.com/ecopoints-app/ecopoints/internal/twin/store"
)

func main() {
	cfg := twin.ParseFlags("ecopoints")
	t := twin.New(cfg)

	s := store.New()
	tokens, err := api.NewTokenManager(s.Clock.Now)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ecopoints-twin: %v\n", err)
		os.Exit(1)
	}

	h := api.NewHandler(s, tokens, t.Logger)
	h.Routes(t.Router)

	if err := t.Serve(); err != nil {
		t.Logger.Error("server shutdown", "err", err)
		os.Exit(1)
	}
}
