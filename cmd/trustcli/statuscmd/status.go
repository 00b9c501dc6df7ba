/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

// Package statuscmd contains the trustcli commands that operate on
// revocation status lists.
package statuscmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	cmdutils "github.com/trustbloc/edge-core/pkg/utils/cmd"

	"github.com/eclipse-tractusx/ssi-trust-go/cmd/trustcli/internal/storeflags"
	"github.com/eclipse-tractusx/ssi-trust-go/component/identity"
	"github.com/eclipse-tractusx/ssi-trust-go/component/vc/statuslist"
	"github.com/eclipse-tractusx/ssi-trust-go/component/vc/statuslist/api"
	amqppublisher "github.com/eclipse-tractusx/ssi-trust-go/component/vc/statuslist/publisher/amqp"
)

const (
	issuerFlagName  = "issuer"
	issuerEnvKey    = "TRUSTCLI_ISSUER"
	issuerFlagUsage = "BPN of the issuer whose status list is operated on." +
		" Alternatively, this can be set with the following environment variable: " + issuerEnvKey

	purposeFlagName  = "purpose"
	purposeEnvKey    = "TRUSTCLI_PURPOSE"
	purposeFlagUsage = "Status purpose of the list. Defaults to revocation." +
		" Alternatively, this can be set with the following environment variable: " + purposeEnvKey

	indexFlagName  = "index"
	indexEnvKey    = "TRUSTCLI_INDEX"
	indexFlagUsage = "Zero-based status list index to operate on." +
		" Alternatively, this can be set with the following environment variable: " + indexEnvKey

	amqpURLFlagName  = "amqp-url"
	amqpURLEnvKey    = "TRUSTCLI_AMQP_URL"
	amqpURLFlagUsage = "Optional AMQP broker URL for publishing revocation updates." +
		" Alternatively, this can be set with the following environment variable: " + amqpURLEnvKey

	amqpQueueFlagName  = "amqp-queue"
	amqpQueueEnvKey    = "TRUSTCLI_AMQP_QUEUE"
	amqpQueueFlagUsage = "AMQP queue name for publishing revocation updates." +
		" Alternatively, this can be set with the following environment variable: " + amqpQueueEnvKey
)

// GetStatusCmd returns the status command group.
func GetStatusCmd() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Manage revocation status lists",
	}

	statusCmd.AddCommand(allocateCmd(), revokeCmd(), verifyCmd())

	return statusCmd
}

func allocateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Allocate the next free status list index for an issuer",
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer, purpose, err := issuerArgs(cmd)
			if err != nil {
				return err
			}

			client, closeStore, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			index, err := client.AllocateIndex(cmd.Context(), issuer, purpose)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), index)

			return nil
		},
	}

	addCommonFlags(cmd)

	return cmd
}

func revokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Set the revocation bit at a status list index",
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer, purpose, err := issuerArgs(cmd)
			if err != nil {
				return err
			}

			index, err := indexArg(cmd)
			if err != nil {
				return err
			}

			client, closeStore, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := client.Revoke(cmd.Context(), issuer, purpose, index); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "revoked index %d for issuer %s\n", index, issuer)

			return nil
		},
	}

	addCommonFlags(cmd)
	cmd.Flags().StringP(indexFlagName, "", "", indexFlagUsage)
	cmd.Flags().StringP(amqpURLFlagName, "", "", amqpURLFlagUsage)
	cmd.Flags().StringP(amqpQueueFlagName, "", "", amqpQueueFlagUsage)

	return cmd
}

func verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check whether a status list index is revoked",
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer, purpose, err := issuerArgs(cmd)
			if err != nil {
				return err
			}

			index, err := indexArg(cmd)
			if err != nil {
				return err
			}

			client, closeStore, err := newClient(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			revoked, err := client.IsRevoked(cmd.Context(), issuer, purpose, index)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), revoked)

			return nil
		},
	}

	addCommonFlags(cmd)
	cmd.Flags().StringP(indexFlagName, "", "", indexFlagUsage)

	return cmd
}

func addCommonFlags(cmd *cobra.Command) {
	storeflags.AddFlags(cmd)
	cmd.Flags().StringP(issuerFlagName, "", "", issuerFlagUsage)
	cmd.Flags().StringP(purposeFlagName, "", "", purposeFlagUsage)
}

func issuerArgs(cmd *cobra.Command) (identity.BPN, api.Purpose, error) {
	rawIssuer, err := cmdutils.GetUserSetVarFromString(cmd, issuerFlagName, issuerEnvKey, false)
	if err != nil {
		return "", "", err
	}

	issuer, err := identity.ParseBPN(rawIssuer)
	if err != nil {
		return "", "", err
	}

	rawPurpose, err := cmdutils.GetUserSetVarFromString(cmd, purposeFlagName, purposeEnvKey, true)
	if err != nil {
		return "", "", err
	}

	if rawPurpose == "" {
		rawPurpose = string(api.PurposeRevocation)
	}

	return issuer, api.Purpose(rawPurpose), nil
}

func indexArg(cmd *cobra.Command) (int, error) {
	rawIndex, err := cmdutils.GetUserSetVarFromString(cmd, indexFlagName, indexEnvKey, false)
	if err != nil {
		return 0, err
	}

	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", indexFlagName, rawIndex, err)
	}

	return index, nil
}

func newClient(cmd *cobra.Command) (*statuslist.Client, func(), error) {
	store, closeStore, err := storeflags.NewStore(cmd)
	if err != nil {
		return nil, nil, err
	}

	opts, closePublisher, err := publisherOpts(cmd)
	if err != nil {
		closeStore()

		return nil, nil, err
	}

	return statuslist.New(store, opts...), func() {
		closePublisher()
		closeStore()
	}, nil
}

func publisherOpts(cmd *cobra.Command) ([]statuslist.Option, func(), error) {
	amqpURL, err := cmdutils.GetUserSetVarFromString(cmd, amqpURLFlagName, amqpURLEnvKey, true)
	if err != nil || amqpURL == "" {
		return nil, func() {}, nil
	}

	queueName, err := cmdutils.GetUserSetVarFromString(cmd, amqpQueueFlagName, amqpQueueEnvKey, false)
	if err != nil {
		return nil, nil, err
	}

	publisher, err := amqppublisher.NewPublisher(amqpURL, queueName)
	if err != nil {
		return nil, nil, err
	}

	return []statuslist.Option{statuslist.WithPublisher(publisher)}, func() {
		if err := publisher.Close(); err != nil {
			cmd.PrintErrf("failed to close publisher: %s\n", err)
		}
	}, nil
}
