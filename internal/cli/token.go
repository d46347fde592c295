package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Mousaahmad63636/DataSyncService/internal/config"
	"github.com/Mousaahmad63636/DataSyncService/internal/httpapi"
)

func newTokenCmd() *cobra.Command {
	var device string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a pull-API bearer token for a device",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToken(device, ttl)
		},
	}
	cmd.Flags().StringVarP(&device, "device", "d", "", "Device id the token authenticates")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "Token lifetime")
	cmd.MarkFlagRequired("device")

	return cmd
}

func runToken(device string, ttl time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set to mint tokens")
	}

	token, err := httpapi.NewAuth(cfg.JWTSecret).Mint(device, ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
