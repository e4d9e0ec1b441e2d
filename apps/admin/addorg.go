package main

import (
	"context"
	"fmt"

	"github.com/trezcool/markaz/core/organization"
)

func (cli *commandLine) addOrganization(name, phone, address string) error {
	no := organization.NewOrganization{Name: name, Phone: phone, Address: address}
	if err := no.Validate(cli.validate); err != nil {
		return err
	}

	org, err := cli.orgSvc.Create(context.Background(), no)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.stdout(), "organization %q created: %s\n", org.Name, org.ID)
	return nil
}
