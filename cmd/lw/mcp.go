package main

import (
	"context"
	"flag"

	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/lightweight/internal/client"
	lwmcp "github.com/claude/lightweight/internal/mcp"
)

var _ lwmcp.DataSource = (*client.Client)(nil)

// runMCP serves the MCP tools over stdio, reading through the HTTP API so a
// desktop assistant can reach a remote server.
func runMCP(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("lw mcp", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.client.CheckAuth(ctx); err != nil {
		return err
	}
	a.log.Info("serving MCP over stdio", "server", a.client.BaseURL())
	return server.ServeStdio(lwmcp.New(a.client, Version, a.log))
}
