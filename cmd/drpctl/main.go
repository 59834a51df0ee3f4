package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"drp/internal/apiclient"
	"drp/internal/cli"
)

func main() {
	_ = godotenv.Load()

	server := flag.String("server", "http://localhost:8090", "server base URL")
	tokenPath := flag.String("token-file", "", "path to the saved token (default ~/.drp/token)")
	flag.Parse()

	if env := os.Getenv("DRP_SERVER"); env != "" && *server == "http://localhost:8090" {
		*server = env
	}

	path := *tokenPath
	if path == "" {
		path = apiclient.DefaultTokenPath()
	}
	tokens := &apiclient.FileTokenStore{Path: path}

	app := cli.NewApp(*server, tokens)
	app.Run(context.Background())
}
