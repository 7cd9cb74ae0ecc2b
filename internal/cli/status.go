package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored Xero connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			creds, err := a.Credentials.Load(cmd.Context())
			if err != nil {
				return err
			}

			status := struct {
				Connected       bool   `json:"connected"`
				HasClientConfig bool   `json:"has_client_config"`
				TenantID        string `json:"tenant_id"`
				ExpiresAt       int64  `json:"expires_at"`
				Expired         bool   `json:"expired"`
			}{
				Connected:       creds.HasSession(),
				HasClientConfig: creds.HasClientConfig(),
				TenantID:        creds.TenantID,
				ExpiresAt:       creds.ExpiresAt,
				Expired:         creds.Expired(time.Now().Unix()),
			}

			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				return json.NewEncoder(out).Encode(status)
			}
			fmt.Fprintf(out, "connected: %t\n", status.Connected)
			fmt.Fprintf(out, "client config: %t\n", status.HasClientConfig)
			fmt.Fprintf(out, "tenant: %s\n", status.TenantID)
			fmt.Fprintf(out, "token expired: %t\n", status.Expired)
			return nil
		},
	}
}
