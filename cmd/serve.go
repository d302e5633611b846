package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var (
	port     int
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the local web server",
		Long: `Start the HTTP web server with the browser interface and JSON API.

The web page mirrors the terminal workflow: upload the dataset CSVs, ask
questions, and see answers with charts. Dataset files found in the data
directory are loaded at startup; uploads replace them for the life of
the process.`,
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&port, "port", "p", 3000, "Port to run the server on")
}

func runServe() {
	s, cleanup, err := InitSession(dataDir, engineName, modelName)
	if err != nil {
		HandleError(err, "Failed to initialize session")
	}
	defer cleanup()

	// Preload whatever is already on disk; uploads can replace it later.
	if err := IngestFromDir(context.Background(), s, dataDir, nil); err != nil {
		fmt.Printf("⚠ Datasets not preloaded: %v\n", err)
	}

	fmt.Printf("Starting AdLens web server...\n")
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Printf("Port: %d\n\n", port)

	// Start the server (this will be implemented in main.go)
	if err := StartServer(s, port, dataDir); err != nil {
		log.Fatalf("Server failed: %v\n", err)
	}
}

// StartServer is set by main package
var StartServer func(s Session, port int, dataDir string) error
