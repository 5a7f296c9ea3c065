package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/xeptore/pxv/aapi"
	"github.com/xeptore/pxv/config"
	"github.com/xeptore/pxv/oauth"
)

func login(cliCtx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	e, err := newEnv(cliCtx)
	if nil != err {
		return err
	}

	ctx, cancel = context.WithTimeout(ctx, config.LoginCodeTimeout)
	defer cancel()

	c := e.newClient(nil)
	src := promptCodeSource(os.Stdin, os.Stderr, !cliCtx.Bool(flagNoBrowser))
	if err := c.Authenticate(ctx, src); nil != err {
		return err
	}
	if err := e.save(c); nil != err {
		return err
	}

	user := c.AuthInfo().User
	fmt.Fprintf(cliCtx.App.Writer, "Logged in as %s (@%s, id %s)\n", user.Name, user.Account, user.ID)
	return nil
}

func logout(cliCtx *cli.Context) error {
	e, err := newEnv(cliCtx)
	if nil != err {
		return err
	}
	if err := e.store.Delete(); nil != err {
		return fmt.Errorf("failed to delete stored credentials: %v", err)
	}
	e.logger.Info().Msg("Stored credentials deleted")
	return nil
}

func refresh(cliCtx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	e, err := newEnv(cliCtx)
	if nil != err {
		return err
	}

	c, err := e.refreshCredentials(ctx)
	if nil != err {
		return err
	}

	fmt.Fprintf(cliCtx.App.Writer, "Access token refreshed. It expires at %s\n", c.AuthInfo().ExpiresAt().Format(time.RFC3339))
	return nil
}

func whoami(cliCtx *cli.Context) error {
	ctx, cancel := signal.NotifyContext(cliCtx.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	e, err := newEnv(cliCtx)
	if nil != err {
		return err
	}

	c, err := e.authenticatedClient(ctx)
	if nil != err {
		return err
	}
	printUser(cliCtx.App.Writer, c)
	return nil
}

func printUser(w io.Writer, c *aapi.Client) {
	info := c.AuthInfo()
	u := info.User
	fmt.Fprintf(w, "id:        %s\n", u.ID)
	fmt.Fprintf(w, "name:      %s\n", u.Name)
	fmt.Fprintf(w, "account:   %s\n", u.Account)
	if u.MailAddress != "" {
		fmt.Fprintf(w, "mail:      %s\n", u.MailAddress)
	}
	fmt.Fprintf(w, "premium:   %t\n", u.IsPremium)
	fmt.Fprintf(w, "x_restrict: %d\n", u.XRestrict)
	fmt.Fprintf(w, "expires:   %s\n", info.ExpiresAt().Format(time.RFC3339))
}

type lineResult struct {
	line string
	err  error
}

// promptCodeSource shows the login URL, optionally opening it in the browser,
// and reads the authorization code from in. The pasted line may be the bare
// code or the whole pixiv://account/login redirect URL.
func promptCodeSource(in io.Reader, out io.Writer, browser bool) oauth.CodeSource {
	return func(ctx context.Context, loginURL string) (string, error) {
		if browser {
			if err := openBrowser(loginURL); nil != err {
				fmt.Fprintf(out, "Couldn't open browser automatically.\nOpen this URL in your browser:\n%s\n", loginURL)
			} else {
				fmt.Fprintf(out, "Opening browser for login...\nIf the browser doesn't open, visit: %s\n", loginURL)
			}
		} else {
			fmt.Fprintf(out, "Open this URL in your browser:\n%s\n", loginURL)
		}
		fmt.Fprint(out, "\nAfter logging in, paste the code from the pixiv://account/login redirect (or the whole redirect URL): ")

		lines := make(chan lineResult, 1)
		go func() {
			line, err := bufio.NewReader(in).ReadString('\n')
			if nil != err && !(errors.Is(err, io.EOF) && line != "") {
				lines <- lineResult{line: "", err: err}
				return
			}
			lines <- lineResult{line: line, err: nil}
		}()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res := <-lines:
			if nil != res.err {
				return "", fmt.Errorf("failed to read authorization code: %v", res.err)
			}
			return codeFromInput(res.line)
		}
	}
}

func codeFromInput(line string) (string, error) {
	line = strings.TrimSpace(line)
	if u, err := url.Parse(line); nil == err && u.Scheme != "" {
		line = u.Query().Get("code")
	}
	if line == "" {
		return "", errors.New("authorization code is empty")
	}
	return line, nil
}

func openBrowser(target string) error {
	var (
		name string
		args []string
	)
	switch runtime.GOOS {
	case "darwin":
		name, args = "open", []string{target}
	case "linux", "freebsd", "openbsd", "netbsd":
		name, args = "xdg-open", []string{target}
	case "windows":
		name, args = "rundll32", []string{"url.dll,FileProtocolHandler", target}
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return exec.Command(name, args...).Start() //nolint:gosec
}
