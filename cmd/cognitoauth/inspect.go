package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-cognito/cognitoauth/core"
	"github.com/go-cognito/cognitoauth/jwks"
	"github.com/go-cognito/cognitoauth/validator"
)

func newIssuerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "issuer",
		Short: "Print the issuer and key set URLs of the user pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.cfg.Region == "" || a.cfg.UserPoolID == "" {
				return errors.New("region and pool id are required")
			}

			issuer := jwks.IssuerURL(a.cfg.Region, a.cfg.UserPoolID)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "issuer: %s\n", issuer)
			fmt.Fprintf(out, "jwks:   %s\n", jwks.KeySetEndpoint(issuer))
			return nil
		},
	}
}

func newPrincipalCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "principal <token>",
		Short: "Print the user a token names, without verifying it",
		Long: `principal decodes the token claims without checking the signature and
prints cognito:username for id tokens or username for access tokens.
Use verify before trusting the result.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := core.ExtractBearerToken(args[0])

			principal, found := validator.ExtractPrincipal(token)
			if !found {
				a.log.Debug("no principal claim in token")
				return core.ErrPrincipalNotFound
			}

			fmt.Fprintln(cmd.OutOrStdout(), principal)
			return nil
		},
	}
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Verify a token against the user pool and print its principal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requirePool(); err != nil {
				return err
			}

			authorizer, closeFn, err := a.newAuthorizer(cmd.Context(), authorizerDeps{})
			if err != nil {
				return err
			}
			defer func() { _ = closeFn() }()

			value := core.BearerPrefix + core.ExtractBearerToken(args[0])
			headers := core.HeaderFunc(func(string) string { return value })

			principal, err := authorizer.Authorize(cmd.Context(), headers, a.cfg.Region, a.cfg.UserPoolID)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), principal)
			return nil
		},
	}
}
