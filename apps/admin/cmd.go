package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/Junosprite007/mod-equipmentcheckout/core"
	"github.com/Junosprite007/mod-equipmentcheckout/core/family"
	"github.com/Junosprite007/mod-equipmentcheckout/core/profile"
	"github.com/Junosprite007/mod-equipmentcheckout/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf     *core.Config
	db       *sql.DB // nil in memory
	usrSvc   user.Service
	importer *family.Importer
	profiles *profile.Service
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  importfamilies -file FILE [-lang LANG] - import the families of a JSON file")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -email EMAIL [-admin] - create or update a user")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  mergeprofiles - merge the duplicate profiles of every user")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a migration command (up, down, status, redo, version...)")
}

// promptPassword reads a password without echoing it; an empty password prints the usage.
func (cli *commandLine) promptPassword(cmd *flag.FlagSet) (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	importCmd := flag.NewFlagSet("importfamilies", flag.ContinueOnError)
	importFile := importCmd.String("file", "", "The JSON file holding the array of families.")
	importLang := importCmd.String("lang", "", "The language of the created accounts.")

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Grant the site administrator role.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	for _, cmd := range []*flag.FlagSet{importCmd, addUserCmd, resetPasswordCmd} {
		cmd.SetOutput(cli.out)
	}

	switch args[1] {
	case "importfamilies":
		if err := importCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importFamilies(*importFile, *importLang)

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(*addUserUname, *addUserEmail, pwd, *addUserAdmin)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "mergeprofiles":
		return cli.mergeProfiles()

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	default:
		cli.printUsage()
		return errHelp
	}
}
