package locker

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ubuntu/decorate"
	"github.com/ubuntu/screenlock/internal/fallback"
	"golang.org/x/term"
)

func (a *App) installFallbackDigest() {
	cmd := &cobra.Command{
		Use:   "fallback-digest",
		Short: "Prints the digest of a password, to be used as general.fallback_password",
		Long: "Reads a password from the standard input and prints its digest. " +
			"The password is not echoed when read from a terminal.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error { return printDigest(cmd) },
	}
	a.rootCmd.AddCommand(cmd)
}

func printDigest(cmd *cobra.Command) (err error) {
	defer decorate.OnError(&err, "can't compute fallback password digest")

	secret, err := readSecret(cmd.InOrStdin(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer clear(secret)

	if len(secret) == 0 {
		return errors.New("empty password")
	}

	fmt.Fprintln(cmd.OutOrStdout(), fallback.Digest(secret))
	return nil
}

// readSecret reads a line from in, without echo if in is a terminal.
func readSecret(in io.Reader, prompt io.Writer) ([]byte, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		defer fmt.Fprintln(prompt)
		return term.ReadPassword(int(f.Fd()))
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}
