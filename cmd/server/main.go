package main

import (
	"log"

	"videotube_backend/internal/transport/http"
)

func main() {
	if err := http.Run(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
