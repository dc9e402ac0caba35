package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/mazraa/app/repositories"
	"github.com/shashiranjanraj/mazraa/app/routes"
	"github.com/shashiranjanraj/mazraa/app/services"
	"github.com/shashiranjanraj/mazraa/internal/kernel"
	"github.com/shashiranjanraj/mazraa/internal/server"
	"github.com/shashiranjanraj/mazraa/pkg/event"
	"github.com/shashiranjanraj/mazraa/pkg/kv"
	"github.com/shashiranjanraj/mazraa/pkg/ws"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run", "start"},
	Short:   "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start()
	},
}

var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List every registered route",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printRoutes(os.Stdout)
	},
}

// printRoutes builds the route table over an in-memory store; nothing is
// connected or served.
func printRoutes(out io.Writer) error {
	bus := event.NewBus(1)
	svc := services.New(services.Deps{Repos: repositories.NewRegistry(kv.NewMemory())})
	r := kernel.Build(routes.Deps{Services: svc, Bus: bus, Hub: ws.NewHub(bus)}, kernel.Options{})

	infos := r.Routes()
	if len(infos) == 0 {
		fmt.Fprintln(out, "No routes registered.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "METHOD\tPATH\tNAME")
	fmt.Fprintln(w, "------\t----\t----")
	for _, ri := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
	}
	return w.Flush()
}
