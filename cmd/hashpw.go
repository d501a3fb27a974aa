package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/brettbedarf/webfm/auth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for the users section of the config",
	Long: `Print a bcrypt hash for the users section of the config.

The password is read from the argument, or from stdin when omitted.
On a terminal the input is not echoed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string
		if len(args) == 1 {
			password = args[0]
		} else {
			var err error
			if password, err = promptPassword(cmd); err != nil {
				return err
			}
		}
		if password == "" {
			return errors.New("password must not be empty")
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

// promptPassword reads a password without echoing it on a terminal, or one
// line from piped stdin.
func promptPassword(cmd *cobra.Command) (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		cmd.PrintErr("Password: ")
		password, err := term.ReadPassword(int(syscall.Stdin))
		cmd.PrintErrln()
		if err != nil {
			return "", err
		}
		return string(password), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
