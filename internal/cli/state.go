package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newGetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the current temperature and brightness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := dialClient()
			if err != nil {
				return err
			}
			defer client.Close()

			state, err := client.State()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Temperature: %dK\n", state.Temperature)
			fmt.Fprintf(cmd.OutOrStdout(), "Brightness: %.0f%%\n", state.Brightness*100)
			return nil
		},
	}
}

func newSetCmd(opts *options) *cobra.Command {
	var (
		temperature uint16
		brightness  float64
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set the temperature and/or brightness",
		Long: `Set the temperature and/or brightness.

When both are given, the temperature is written first. If writing the
brightness fails, the new temperature stays applied.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setTemperature := cmd.Flags().Changed("temperature")
			setBrightness := cmd.Flags().Changed("brightness")

			if !setTemperature && !setBrightness {
				return fmt.Errorf("nothing to set: pass --temperature and/or --brightness")
			}

			client, err := dialClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if setTemperature {
				if err := client.SetTemperature(temperature); err != nil {
					return err
				}
				log.Debug().Uint16("temperature", temperature).Msg("Temperature set")
			}

			if setBrightness {
				if err := client.SetBrightness(brightness); err != nil {
					return err
				}
				log.Debug().Float64("brightness", brightness).Msg("Brightness set")
			}

			return nil
		},
	}

	cmd.Flags().Uint16VarP(&temperature, "temperature", "t", 0, "color temperature in Kelvin")
	cmd.Flags().Float64VarP(&brightness, "brightness", "b", 0, "brightness, 1.0 is full")

	return cmd
}

func newPresetCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "preset <id>",
		Short: "Apply a preset, such as day, evening, or night",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			preset, ok := opts.cfg.Preset(args[0])
			if !ok {
				return fmt.Errorf("unknown preset %q", args[0])
			}

			client, err := dialClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.SetState(preset.State()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", preset.Name, preset.State())
			return nil
		},
	}
}
