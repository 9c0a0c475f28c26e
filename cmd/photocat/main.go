package main

import (
	"fmt"
	"os"

	"github.com/mwantia/photocat/cmd/photocat/cli"
	"github.com/mwantia/photocat/cmd/photocat/cli/client"
	"github.com/mwantia/photocat/cmd/photocat/cli/server"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	root := cli.NewRootCommand(cli.VersionInfo{
		Version: version,
		Commit:  commit,
	})

	root.AddCommand(cli.NewVersionCommand())

	root.AddCommand(client.NewImportCommand())
	root.AddCommand(client.NewShowCommand())
	root.AddCommand(client.NewListCommand())
	root.AddCommand(client.NewSearchCommand())
	root.AddCommand(client.NewDeleteCommand())
	root.AddCommand(client.NewLocationCommand())
	root.AddCommand(client.NewProjectCommand())
	root.AddCommand(client.NewMetaCommand())
	root.AddCommand(client.NewTagCommand())
	root.AddCommand(client.NewReconcileCommand())
	root.AddCommand(client.NewScanCommand())
	root.AddCommand(client.NewRefcodeCommand())

	root.AddCommand(server.NewAgentCommand())
	root.AddCommand(server.NewConfigCommand())
	root.AddCommand(server.NewDatabaseCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
