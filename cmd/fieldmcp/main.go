package main

import (
	"flag"
	"log"

	"github.com/kasuganosora/seqfield/pkg/seqconfig"
)

func main() {
	addr := flag.String("addr", ":8765", "address to listen on")
	configPath := flag.String("config", "", "path to a fieldmcp JSON config file")
	flag.Parse()

	cfg, err := seqconfig.Load(*configPath)
	if err != nil {
		log.Fatalf("fieldmcp: loading config: %v", err)
	}

	srv, err := NewServer(cfg)
	if err != nil {
		log.Fatalf("fieldmcp: %v", err)
	}
	if err := srv.Start(*addr); err != nil {
		log.Fatalf("fieldmcp: %v", err)
	}
}
