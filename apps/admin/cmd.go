package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/admissions/apps/admin/browse"
	"github.com/trezcool/admissions/core"
	"github.com/trezcool/admissions/core/catalog"
	"github.com/trezcool/admissions/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	migrateFunc      = runMigration      // mockable
	browseFunc       = browse.Run        // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf         *core.Config
	db           *sql.DB
	usrRepo      user.Repository
	universities catalog.Repository[catalog.University]
	usrSvc       user.Service
	validate     *validator.Validate
}

func (cli *commandLine) setRepos(usrRepo user.Repository, universities catalog.Repository[catalog.University]) {
	cli.usrRepo = usrRepo
	cli.universities = universities
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -username USERNAME -email EMAIL [-name NAME] [-admin] [-university ID] - create or update a user")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Println("  migrate COMMAND [VERSION] - up, up-by-one, down, down-by-one, goto VERSION, force VERSION, version")
	fmt.Println("  browse -entity ENTITY [-api URL] - browse a catalog collection in the terminal")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username. The password will be prompted next.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserName := addUserCmd.String("name", "", "The user's full name (defaults to the username).")
	addUserAdmin := addUserCmd.Bool("admin", false, "Grant admin rights.")
	addUserUniversity := addUserCmd.String("university", "", "Make the user a staff member of this university (ID).")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	browseCmd := flag.NewFlagSet("browse", flag.ExitOnError)
	browseEntity := browseCmd.String("entity", "", "One of: universities, majors, programs, scholarships, admission-methods, news.")
	browseAPI := browseCmd.String("api", "http://localhost:8000", "The API base URL.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" && *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(newUserArgs{
			name:         *addUserName,
			uname:        *addUserUname,
			email:        *addUserEmail,
			pwd:          pwd,
			isAdmin:      *addUserAdmin,
			universityID: *addUserUniversity,
		})
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return migrateFunc(cli.db, args[2], args[3:]...)
	case "browse":
		if err := browseCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *browseEntity == "" {
			browseCmd.Usage()
			return errHelp
		}
		return browseFunc(*browseEntity, *browseAPI, cli.conf.Server.DefaultPageSize)
	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	return string(pwd), err
}
