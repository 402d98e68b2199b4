package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
)

// shellCmd keeps the modem open and reads one subcommand per line, split
// with shell quoting rules so messages can contain spaces.
func shellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive prompt sharing one modem connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd.Context()); err != nil {
				return err
			}
			return runShell(cmd, a, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runShell(parent *cobra.Command, a *app, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "phone> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		words, err := shlex.Split(line)
		if err != nil {
			fmt.Fprintln(out, "error:", err)
			continue
		}
		if words[0] == "shell" {
			fmt.Fprintln(out, "error: already in a shell")
			continue
		}

		// Flag definitions reset a.opts to their defaults; restore them so
		// the persistent options carry over along with the open session.
		saved := a.opts
		sub := newRootCmd(a)
		a.opts = saved
		sub.SetArgs(words)
		sub.SetIn(in)
		sub.SetOut(out)
		sub.SetErr(out)
		if err := sub.ExecuteContext(parent.Context()); err != nil {
			fmt.Fprintln(out, "error:", err)
		}
		a.opts = saved
	}
}
