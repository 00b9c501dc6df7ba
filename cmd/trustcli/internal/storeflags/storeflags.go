/*
Copyright Eclipse Tractus-X Contributors.

SPDX-License-Identifier: Apache-2.0
*/

// Package storeflags provides the shared store selection flags of the
// trustcli status commands.
package storeflags

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	cmdutils "github.com/trustbloc/edge-core/pkg/utils/cmd"

	"github.com/eclipse-tractusx/ssi-trust-go/component/vc/statuslist/api"
	"github.com/eclipse-tractusx/ssi-trust-go/component/vc/statuslist/store/mongodb"
	"github.com/eclipse-tractusx/ssi-trust-go/component/vc/statuslist/store/mysql"
)

const (
	storeTypeFlagName  = "store-type"
	storeTypeEnvKey    = "TRUSTCLI_STORE_TYPE"
	storeTypeFlagUsage = "Status list store type. Possible values [mysql] [mongodb]." +
		" Alternatively, this can be set with the following environment variable: " + storeTypeEnvKey

	storeURLFlagName  = "store-url"
	storeURLEnvKey    = "TRUSTCLI_STORE_URL"
	storeURLFlagUsage = "Status list store URL (MySQL DSN or MongoDB URI)." +
		" Alternatively, this can be set with the following environment variable: " + storeURLEnvKey

	connectTimeout = 10 * time.Second
)

// AddFlags registers the store selection flags on the given command.
func AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(storeTypeFlagName, "", "", storeTypeFlagUsage)
	cmd.Flags().StringP(storeURLFlagName, "", "", storeURLFlagUsage)
}

// NewStore connects the store selected by the command's flags and returns it
// together with a close function.
func NewStore(cmd *cobra.Command) (api.Store, func(), error) {
	storeType, err := cmdutils.GetUserSetVarFromString(cmd, storeTypeFlagName, storeTypeEnvKey, false)
	if err != nil {
		return nil, nil, err
	}

	storeURL, err := cmdutils.GetUserSetVarFromString(cmd, storeURLFlagName, storeURLEnvKey, false)
	if err != nil {
		return nil, nil, err
	}

	switch storeType {
	case "mysql":
		store, err := mysql.NewStore(storeURL)
		if err != nil {
			return nil, nil, err
		}

		return store, func() {
			if err := store.Close(); err != nil {
				cmd.PrintErrf("failed to close store: %s\n", err)
			}
		}, nil
	case "mongodb":
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		store, err := mongodb.NewStore(ctx, storeURL)
		if err != nil {
			return nil, nil, err
		}

		return store, func() {
			closeCtx, closeCancel := context.WithTimeout(context.Background(), connectTimeout)
			defer closeCancel()

			if err := store.Close(closeCtx); err != nil {
				cmd.PrintErrf("failed to close store: %s\n", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported store type %q, use mysql or mongodb", storeType)
	}
}
