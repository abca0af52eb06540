package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/trezcool/ratiba/core"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf *core.Config
	db   *sql.DB
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate up|down|status [ARGS...]                 - run database migrations")
	fmt.Println("  issuetoken -tenant TENANT [-subject SUB] [-admin] - mint an API token for a tenant")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	issueTokenCmd := flag.NewFlagSet("issuetoken", flag.ExitOnError)
	issueTokenTenant := issueTokenCmd.String("tenant", "", "The tenant the token grants access to.")
	issueTokenSubject := issueTokenCmd.String("subject", "admin-cli", "The token subject.")
	issueTokenAdmin := issueTokenCmd.Bool("admin", false, "Grant admin (write) access.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "issuetoken":
		if err := issueTokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *issueTokenTenant == "" {
			issueTokenCmd.Usage()
			return errHelp
		}
		return cli.issueToken(*issueTokenTenant, *issueTokenSubject, *issueTokenAdmin)
	default:
		cli.printUsage()
		return errHelp
	}
}
