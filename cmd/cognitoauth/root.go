package main

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-cognito/cognitoauth/internal/config"
)

// app carries the state shared by all subcommands.
type app struct {
	configPath string

	// v layers defaults, the config file, the environment and the flags
	// bound with BindPFlag.
	v   *viper.Viper
	cfg config.Config
	log *logrus.Logger

	// httpClient overrides the key set download client. Tests use it to
	// answer JWKS requests locally.
	httpClient *http.Client
}

func newRootCmd() *cobra.Command {
	return newRootCmdWithApp(&app{})
}

func newRootCmdWithApp(a *app) *cobra.Command {
	if a.v == nil {
		a.v = config.NewViper()
	}

	cmd := &cobra.Command{
		Use:   "cognitoauth",
		Short: "Verify Cognito user pool tokens",
		Long: `cognitoauth checks tokens issued by an AWS Cognito user pool.
It downloads the pool's public key set, verifies the token signature, issuer,
token use and expiry, and reports the user the token was issued to.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Configuration file (YAML)")

	flags.String("region", "", "AWS region of the user pool")
	_ = a.v.BindPFlag("region", flags.Lookup("region"))

	flags.String("pool-id", "", "Cognito user pool id")
	_ = a.v.BindPFlag("user_pool_id", flags.Lookup("pool-id"))

	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))

	flags.String("log-format", "text", "Log format (text, json)")
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))

	cmd.AddCommand(
		newIssuerCmd(a),
		newPrincipalCmd(a),
		newVerifyCmd(a),
		newServeCmd(a),
	)

	return cmd
}

// init loads the configuration. Flags set on the command line take
// precedence over the environment and the file.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logger
	if a.configPath != "" {
		a.log.WithField("path", a.configPath).Debug("using config file")
	}
	return nil
}

// requirePool validates the configuration for commands that talk to a
// user pool.
func (a *app) requirePool() error {
	if err := a.cfg.Validate(); err != nil {
		a.log.WithError(err).Error("configuration is invalid")
		return err
	}
	return nil
}

func newLogger(cfg config.LogConfig, out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			DisableColors: os.Getenv("NO_COLOR") != "",
			FullTimestamp: true,
		})
	}

	return logger, nil
}
