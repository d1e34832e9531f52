package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/Junosprite007/mod-equipmentcheckout/core/family"
)

// importFamilies imports the families of `path` and prints one notification per family.
func (cli *commandLine) importFamilies(path, lang string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening families file")
	}
	defer f.Close()

	families, err := family.Decode(f)
	if err != nil {
		return errors.Wrapf(err, "decoding %s", path)
	}

	res, err := cli.importer.Run(context.Background(), families, family.Options{Lang: lang})
	if err != nil {
		return errors.Wrap(err, "importing families")
	}

	fmt.Fprintf(cli.out, "batch %s: %d families, %d accounts created, %d existing\n",
		res.BatchID, len(res.Notifications), res.Created, res.Existing)
	for _, n := range res.Notifications {
		fmt.Fprintf(cli.out, "\n#%d %s [%s]\n", n.Index, n.FamilyName, n.Status)
		for _, msg := range n.Messages.Successes {
			fmt.Fprintf(cli.out, "  + %s\n", msg)
		}
		for _, msg := range n.Messages.Warnings {
			fmt.Fprintf(cli.out, "  ! %s\n", msg)
		}
		for _, msg := range n.Messages.Errors {
			fmt.Fprintf(cli.out, "  x %s\n", msg)
		}
	}
	for _, msg := range res.Errors {
		fmt.Fprintf(cli.out, "\nerror: %s\n", msg)
	}
	return nil
}
