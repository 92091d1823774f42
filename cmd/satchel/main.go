// Command satchel manages slot-addressed inventories stored in SQLite.
package main

import (
	"os"

	"github.com/mesh-intelligence/satchel/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
