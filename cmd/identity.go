package main

import (
	"fmt"
	"io"
	"swarm-relay/swarm"

	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// newIdentityCmd prints the node identities stored in BADGER_FILEPATH.
func newIdentityCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Show the peer identity stored in the badger database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig()
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = config.BadgerFilepath
			}
			if dbPath == "" {
				return fmt.Errorf("no database: set BADGER_FILEPATH or --db")
			}

			db, err := swarm.OpenStore(dbPath)
			if err != nil {
				return fmt.Errorf("database opening failed: %w", err)
			}
			defer db.Close()

			identities, err := swarm.NewKeystore(db, logs.GetLoggerFromString(config.LogLevel)).List()
			if err != nil {
				return err
			}
			printIdentities(cmd.OutOrStdout(), identities)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "path to the badger database, defaults to BADGER_FILEPATH")
	return cmd
}

func printIdentities(w io.Writer, identities []swarm.Identity) {
	if len(identities) == 0 {
		_, _ = fmt.Fprintln(w, "No identity stored yet, it is created on first start.")
		return
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Key", "Type", "Peer ID", "Member ID"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, identity := range identities {
		table.Append([]string{identity.Key, identity.KeyType, identity.PeerID, identity.MemberID})
	}
	table.Render()
}
