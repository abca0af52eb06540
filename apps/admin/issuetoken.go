package main

import (
	"fmt"

	echoapi "github.com/trezcool/ratiba/apps/api/echo"
)

func (cli *commandLine) issueToken(tenant, subject string, admin bool) error {
	claims := echoapi.NewTenantClaims(cli.conf, tenant, subject, admin)
	token, err := echoapi.GenerateToken(cli.conf, claims)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
