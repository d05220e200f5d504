package main

import (
	"os"

	servecmder "github.com/papercomputeco/recall/cmd/recall/serve"
)

func main() {
	cmd := servecmder.NewServeCmd()
	cmd.Use = "recallapi"
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
