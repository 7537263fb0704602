package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/tanveenambrose/EcoMoney/internal/client"
	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("ecomoney", flag.ContinueOnError)
	fs.SetOutput(stderr)

	apiURL := fs.String("api", envOr("ECOMONEY_API_URL", "http://localhost:4000"), "EcoMoney API base URL")
	email := fs.String("email", "", "Account email")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	timeout := fs.Duration("timeout", 30*time.Second, "Overall request timeout")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		fmt.Fprintln(stdout, "Usage: ecomoney -email <email> [-password <password>] [-api <url>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	api, err := client.New(*apiURL)
	if err != nil {
		return err
	}
	if _, err := api.Login(ctx, *email, password); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	profiles := client.NewProfileStore(api)
	if err := profiles.Load(ctx); err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	if !profiles.LoggedIn() {
		return fmt.Errorf("session was not accepted by the API")
	}

	printDashboard(stdout, profiles, client.NewTransactionStore())
	return nil
}

func printDashboard(w io.Writer, profiles *client.ProfileStore, txs *client.TransactionStore) {
	p := profiles.Profile()
	verified := "no"
	if p.IsAccountVerified {
		verified = "yes"
	}
	fmt.Fprintf(w, "Hello, %s (%s)\n", p.Name, p.Email)
	fmt.Fprintf(w, "Verified:       %s\n", verified)
	fmt.Fprintf(w, "Total earnings: %s\n", p.TotalEarnings.StringFixed(2))
	fmt.Fprintf(w, "Total spending: %s\n", p.TotalSpending.StringFixed(2))
	fmt.Fprintf(w, "Total savings:  %s\n", p.TotalSavings.StringFixed(2))
	fmt.Fprintf(w, "Balance:        %s\n", p.TotalBalance.StringFixed(2))

	_, expense := txs.Totals()
	fmt.Fprintf(w, "\nRecent expenses (%s):\n", expense.StringFixed(2))
	cats := txs.ByCategory()
	names := make([]string, 0, len(cats))
	for name := range cats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, cats[name].StringFixed(2))
	}
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Non-terminal input (pipes, tests).
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
