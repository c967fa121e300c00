// Command predictstub serves canned predictions so the scanner can run
// without the real model.
// Usage: go run ./cmd/predictstub [port]
// Default port: 8000
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/raysh454/phishguard/internal/demoserver"
)

func main() {
	cfg := demoserver.DefaultConfig()

	// Optional: custom port from command line
	if len(os.Args) > 1 {
		port, err := strconv.Atoi(os.Args[1])
		if err != nil || port < 1 || port > 65535 {
			log.Fatalf("Invalid port: %s", os.Args[1])
		}
		cfg.Port = port
	}

	fmt.Println("===========================================")
	fmt.Println("   PhishGuard prediction stub")
	fmt.Println("===========================================")
	fmt.Println()
	fmt.Println("Answers are fixed, chosen by words in the URL:")
	fmt.Println("  phish   -> Phishing")
	fmt.Println("  deface  -> Defacement")
	fmt.Println("  error   -> HTTP 500")
	fmt.Printf("  slow    -> waits %s, then Benign\n", cfg.SlowDelay)
	fmt.Println("  other   -> Benign (raw scores disagree)")
	fmt.Println()

	server := demoserver.NewDemoServer(cfg)
	if err := server.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
