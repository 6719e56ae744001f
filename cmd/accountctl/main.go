package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophaccount/internal/adminctl"
	"github.com/dmitrijs2005/gophaccount/internal/server"
	"github.com/dmitrijs2005/gophaccount/internal/server/config"
)

const usage = `usage: accountctl create-admin [-email address] [-c config.json] [-d dsn]`

func main() {
	if len(os.Args) < 2 || os.Args[1] != "create-admin" {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()
	cfg := config.LoadConfig()
	logger := server.NewLogger(os.Stderr, cfg)

	svc, err := server.NewServices(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer svc.DB.Close()

	view, err := adminctl.CreateAdmin(ctx, svc.Accounts, os.Args[2:], os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, adminctl.Describe(err))
		svc.DB.Close()
		os.Exit(1)
	}

	fmt.Printf("admin %s created with id %d\n", view.Email, view.ID)
}
