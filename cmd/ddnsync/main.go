package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Travis-Britz/ddnsync"
	"github.com/Travis-Britz/ddnsync/internal/config"
)

var flags = struct {
	Config   string
	Interval time.Duration
	NoCache  bool
	Verbose  bool
}{}

func main() {
	flag.StringVar(&flags.Config, "c", "", "Path to the config file (default $DDNSYNC_CONFIG or ./"+config.DefaultPath+")")
	flag.DurationVar(&flags.Interval, "i", 0, "Keep running and sync every interval; 0 runs once")
	flag.BoolVar(&flags.NoCache, "no-cache", false, "Ignore and don't write the cached address")
	flag.BoolVar(&flags.Verbose, "v", false, "Enable verbose logging")
	flag.Parse()

	zl, err := newZapLogger(flags.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer zl.Sync()
	logger := zapr.NewLogger(zl)

	if err := run(logger); err != nil {
		logger.Error(err, "run failed")
		zl.Sync()
		os.Exit(1)
	}
}

func newZapLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		cfg := zap.NewDevelopmentConfig()
		// logr V(1) maps to zap level -1
		cfg.Level = zap.NewAtomicLevelAt(-1)
		return cfg.Build()
	}
	return zap.NewProduction()
}

func run(logger logr.Logger) error {
	var (
		cfg *config.Config
		err error
	)
	if flags.Config != "" {
		cfg, err = config.LoadFromPath(flags.Config)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("unable to load config: %w", err)
	}
	logger.V(1).Info("loaded config", "record", cfg.Record, "zone", cfg.Zone, "sources", cfg.Sources)

	opts, err := clientOptions(cfg, logger)
	if err != nil {
		return err
	}
	client, err := ddnsync.New(cfg.Record, opts...)
	if err != nil {
		return fmt.Errorf("error creating ddnsync.Client: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flags.Interval > 0 {
		logger.Info("running as daemon", "interval", flags.Interval.String())
		ddnsync.RunDaemon(ctx, client, flags.Interval, logger)
		return nil
	}

	res, err := client.Run(ctx)
	if err != nil {
		return err
	}
	printStatus(client.Record(), res)
	return nil
}

func clientOptions(cfg *config.Config, logger logr.Logger) ([]ddnsync.Option, error) {
	opts := []ddnsync.Option{
		ddnsync.WithLogger(logger.WithName("ddnsync")),
		ddnsync.WithTTL(cfg.TTL),
		ddnsync.InZone(cfg.Zone),
	}

	headers := make(map[string]string, len(cfg.Headers)+1)
	for k, v := range cfg.Headers {
		if cfg.Token != "" && http.CanonicalHeaderKey(k) == "Authorization" {
			continue
		}
		headers[k] = v
	}
	switch {
	case cfg.Token != "":
		headers["Authorization"] = "Bearer " + cfg.Token
	case !cfg.HasCredentials():
		token, err := tokenFromFile(cfg.TokenFile, logger)
		if err != nil {
			return nil, err
		}
		headers["Authorization"] = "Bearer " + token
	}
	opts = append(opts, ddnsync.UsingCloudflareHeaders(cfg.BaseURL, headers))

	sources, err := buildSources(cfg)
	if err != nil {
		return nil, err
	}
	opts = append(opts, ddnsync.UsingSource(sources...))

	switch {
	case flags.NoCache || !cfg.CacheEnabled():
		opts = append(opts, ddnsync.UsingCache(ddnsync.NopCache{}))
	default:
		opts = append(opts, ddnsync.UsingCache(ddnsync.NewFileCache(cfg.CacheDir, cfg.Record)))
	}
	return opts, nil
}

func buildSources(cfg *config.Config) ([]ddnsync.Source, error) {
	if cfg.IP != "" {
		s, err := ddnsync.FromString(cfg.IP)
		if err != nil {
			return nil, fmt.Errorf("invalid ip in config: %w", err)
		}
		return []ddnsync.Source{s}, nil
	}
	var sources []ddnsync.Source
	for _, name := range cfg.Sources {
		switch name {
		case config.SourceDig:
			sources = append(sources, ddnsync.DigSource{})
		case config.SourceDNS:
			sources = append(sources, ddnsync.DNSSource{})
		case config.SourceWeb:
			u := cfg.WebURL
			if u == "" {
				u = ddnsync.DefaultWebURL
			}
			sources = append(sources, ddnsync.WebSource(u))
		case config.SourceInterface:
			sources = append(sources, ddnsync.InterfaceSource(cfg.Interface))
		}
	}
	return sources, nil
}

func printStatus(record string, res ddnsync.Result) {
	switch {
	case res.Skipped:
		fmt.Printf("IP for %s is still the same\n", record)
	case res.Action == ddnsync.Created:
		fmt.Printf("Record %s didn't exist, created it with %s\n", record, res.Addr)
	case res.Action == ddnsync.Updated:
		fmt.Printf("Record %s didn't match, updated it to %s\n", record, res.Addr)
	default:
		fmt.Println("Nothing needs to be done")
	}
	fmt.Println("Finished")
}

// tokenFromFile reads the API token from path, running the interactive setup first if the file doesn't exist.
func tokenFromFile(path string, logger logr.Logger) (string, error) {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("key file does not exist", "path", path)
		if err := runSetup(path, logger); err != nil {
			return "", fmt.Errorf("setup: %w", err)
		}
	}
	if err := verifyPermissions(path); err != nil {
		return "", err
	}
	key, err := readKey(path)
	if err != nil {
		return "", fmt.Errorf("error reading key: %w", err)
	}
	logger.V(1).Info("successfully read key from key file")
	return key, nil
}

func runSetup(path string, logger logr.Logger) error {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return errors.New("no credentials configured and stdin is not a terminal")
	}
	logger.Info("running setup")
	fmt.Printf("Enter Cloudflare API Token: \n")
	bytekey, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		return fmt.Errorf("runSetup: error reading from stdin: %w", err)
	}
	key := string(bytekey)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("verifying token...")
	if err := ddnsync.VerifyCloudflareToken(ctx, key); err != nil {
		return err
	}
	logger.Info("token verified successfully")

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("unable to create \"%s\": %w", path, err)
	}
	defer f.Close()
	fmt.Fprintln(f, key)
	logger.Info("token written", "path", path)
	return nil
}

func readKey(path string) (key string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("error reading key: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	keyb, _, err := r.ReadLine()
	if err != nil {
		return "", fmt.Errorf("error reading line: %w", err)
	}
	return string(keyb), nil
}

func verifyPermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("error checking keyfile permissions: %w", err)
	}

	perms := info.Mode().Perm()
	// Error messages will state that we want 0600,
	// but we'll also accept 0400 which is even more restricted.
	// The file might be provided by some secrets managing software as readonly.
	if perms != 0600 && perms != 0400 {
		return fmt.Errorf("invalid permissions for \"%s\": expected file permissions \"-rw-------\"; found \"%s\"", path, fs.FileMode(perms))
	}
	return nil
}
