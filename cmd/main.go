package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/devkit-ai/devkit-ai/cmd/deploy"
	"github.com/devkit-ai/devkit-ai/cmd/service"
	"github.com/devkit-ai/devkit-ai/cmd/status"
)

func main() {
	root := &cobra.Command{
		Use:   "devkit",
		Short: "devkit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("empty command")
		},
	}

	root.AddCommand(service.NewCommand(), deploy.NewCommand(), status.NewCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
