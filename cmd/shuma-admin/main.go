// shuma-admin manages admin accounts and checks configuration.
package main

import (
	"os"

	"github.com/shuma-massage/shuma-backend/internal/config"
)

func main() {
	if err := newRootCmd(config.Load).Execute(); err != nil {
		os.Exit(1)
	}
}
