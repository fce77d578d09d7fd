package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/x/term"

	"github.com/llehouerou/shelf/internal/abs"
	"github.com/llehouerou/shelf/internal/config"
	"github.com/llehouerou/shelf/internal/errmsg"
)

// runLogin exchanges a username and password for an API token and prints
// the config snippet to store it.
func runLogin(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	server := fs.String("server", cfg.Server.URL, "server URL")
	user := fs.String("user", cfg.Server.Username, "username")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *server == "" {
		return errNoServer
	}
	if *user == "" {
		if *user, err = prompt("Username: "); err != nil {
			return err
		}
	}

	fmt.Print("Password: ")
	pass, err := term.ReadPassword(os.Stdin.Fd())
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	client := abs.NewClient(strings.TrimRight(*server, "/"), "", abs.DefaultDeviceInfo("", version), cfg.GetRequestTimeout())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status, err := client.Status(ctx)
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpStatus, err))
	}
	if !status.IsInit {
		return errors.New("server is not initialized yet")
	}

	resp, err := client.Login(ctx, *user, string(pass))
	if err != nil {
		return errors.New(errmsg.Format(errmsg.OpLogin, err))
	}

	fmt.Printf("Logged in to %s as %s.\n", *server, *user)
	fmt.Println("Add this to ~/.config/shelf/config.toml:")
	fmt.Println()
	fmt.Println("[server]")
	fmt.Printf("url = %q\n", *server)
	fmt.Printf("token = %q\n", resp.User.Token)
	return nil
}

func prompt(label string) (string, error) {
	fmt.Print(label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
