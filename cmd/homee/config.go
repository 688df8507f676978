package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/zberg/go-homee/pkg/homee"
)

// Environment variables consulted when the matching flag is empty.
const (
	envHost     = "HOMEE_HOST"
	envUser     = "HOMEE_USER"
	envPassword = "HOMEE_PASSWORD"
)

type cliSettings struct {
	host       string
	user       string
	password   string
	port       int
	auth       string
	upperVerbs bool
	timeout    time.Duration
	envFile    string
	debug      bool
}

var settings cliSettings

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&settings.host, "host", "", "Hostname or IP address of the hub (env "+envHost+")")
	f.StringVar(&settings.user, "user", "", "Hub username (env "+envUser+")")
	f.StringVar(&settings.password, "password", "", "Hub password (env "+envPassword+")")
	f.IntVar(&settings.port, "port", homee.DefaultPort, "Hub API port")
	f.StringVar(&settings.auth, "auth", "token", "Authentication flow (token, message)")
	f.BoolVar(&settings.upperVerbs, "upper-verbs", false, "Send upper case command verbs (GET, PUT)")
	f.DurationVar(&settings.timeout, "timeout", 5*time.Second, "Connect timeout")
	f.StringVar(&settings.envFile, "env-file", ".env", "File to load environment variables from")
	f.BoolVar(&settings.debug, "debug", false, "Log protocol traffic to stderr")
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// resolve fills empty connection settings from the environment.
func (s cliSettings) resolve() (cliSettings, error) {
	if s.host == "" {
		s.host = os.Getenv(envHost)
	}
	if s.user == "" {
		s.user = os.Getenv(envUser)
	}
	if s.password == "" {
		s.password = os.Getenv(envPassword)
	}
	if s.host == "" {
		return s, fmt.Errorf("host required: use --host or set %s", envHost)
	}
	if s.auth != "token" && s.auth != "message" {
		return s, fmt.Errorf("unknown auth flow %q: must be token or message", s.auth)
	}
	return s, nil
}

func (s cliSettings) options() []homee.ClientOption {
	opts := []homee.ClientOption{
		homee.WithPort(s.port),
		homee.WithConnectTimeout(s.timeout),
	}
	if s.auth == "message" {
		opts = append(opts, homee.WithAuthStrategy(homee.MessageAuth{}))
	}
	if s.upperVerbs {
		opts = append(opts, homee.WithVerbCase(homee.UpperCaseVerbs))
	} else {
		opts = append(opts, homee.WithVerbCase(homee.LowerCaseVerbs))
	}
	if s.debug {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, homee.WithLogger(logger))
	}
	return opts
}
