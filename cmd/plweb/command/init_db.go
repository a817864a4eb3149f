// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package command

import (
	"context"
	"fmt"
	"os"

	"github.com/momeni/parklot/pkg/adapter/config"
	"github.com/momeni/parklot/pkg/core/usecase/initdbuc"
	"github.com/spf13/cobra"
)

const credsRenewalMessage = `
Passwords of the admin and normal roles are renewed. New passwords are
written to the .pgpass.new file in the passwords directory before they
are changed in the database, and that file replaces the .pgpass file
once the database accepts them. If the command is interrupted, the
next connection attempt tries both files, so it may be repeated.`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize an empty database for the parking lot server",
	Long: `Initialize an empty database for the parking lot server.
The database connection information are read from the config file
and the schema, normal role, and tables are created if they do not
exist. Existing sessions and profiles are kept, so it is safe to run
this command again.
` + credsRenewalMessage,
	RunE: initDB,
	Args: cobra.NoArgs,
}

func initDB(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	c, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("config.Load(%q): %w", cfgPath, err)
	}
	c.SetupLogging(os.Stderr)
	if err = initdbuc.New(c).InitDB(ctx); err != nil {
		return fmt.Errorf("initializing DB: %w", err)
	}
	return nil
}

func init() {
	dbCmd.AddCommand(initCmd)
}
