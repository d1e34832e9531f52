package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) mergeProfiles() error {
	merged, err := cli.profiles.MergeDuplicates(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "merged the duplicate profiles of %d users\n", merged)
	return nil
}
