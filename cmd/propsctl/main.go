// Command propsctl inspects and converts properties files.
package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		os.Stderr.WriteString("propsctl: loading .env: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := newRootCommand(os.Getenv).Execute(); err != nil {
		os.Exit(1)
	}
}
