package main

import (
	"log"
	"os"

	"github.com/studyforge/studyforge/internal/server"
)

func main() {
	addr := os.Getenv("STUDYFORGE_HTTP_ADDR")
	if addr == "" {
		addr = ":10001"
	}

	if err := server.Run(addr, nil); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
