package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shelepuginivan/sunshift/internal/icon"
)

func newIconCmd(opts *options) *cobra.Command {
	var (
		temperature uint16
		output      string
	)

	cmd := &cobra.Command{
		Use:   "icon",
		Short: "Render the tray icon for a temperature as PNG",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := icon.Encode(temperature)
			if err != nil {
				return err
			}

			if output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write icon: %w", err)
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %dK icon to %s\n", temperature, output)
			return nil
		},
	}

	cmd.Flags().Uint16VarP(&temperature, "temperature", "t", 6500, "color temperature in Kelvin")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")

	return cmd
}
