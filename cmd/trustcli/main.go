/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

// trustcli is the operator command line for the trust core: it allocates,
// revokes and verifies status list bits against a configured store, and
// mints secure-token-service tokens from a local key file.
package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/eclipse-tractusx/ssi-trust-go/cmd/trustcli/statuscmd"
	"github.com/eclipse-tractusx/ssi-trust-go/cmd/trustcli/tokencmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use: "trustcli",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	rootCmd.AddCommand(statuscmd.GetStatusCmd())
	rootCmd.AddCommand(tokencmd.GetTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Failed to run trustcli: %s", err.Error())
	}
}
