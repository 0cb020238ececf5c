// Command docchat ingests documents and answers questions about them
// in isolated conversational sessions.
package main

import (
	"os"

	"github.com/arkanlabs/docchat/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
