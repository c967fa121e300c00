// Command phishguard scans URLs with a remote phishing-detection service.
// Usage: phishguard serve | scan <url> | health
package main

import (
	"os"

	"github.com/raysh454/phishguard/internal/cli"
)

func main() {
	os.Exit(cli.Execute(os.Args[1:], os.Stdout, os.Stderr))
}
