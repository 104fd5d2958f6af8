package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	huidu "github.com/alparslanahmed/huidu-client"
)

// newScreenCmd switches the LED output of a device on or off
func newScreenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "screen <device> on|off",
		Short:     "Turn the screen on or off",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			device, err := parseIndex("device", args[0])
			if err != nil {
				return err
			}
			state := strings.ToLower(args[1])
			if state != "on" && state != "off" {
				return fmt.Errorf("screen state must be on or off, got %q", args[1])
			}
			if _, err := a.discover(cmd.Context()); err != nil {
				return err
			}

			if state == "on" {
				err = a.client.OpenScreen(cmd.Context(), device)
			} else {
				err = a.client.CloseScreen(cmd.Context(), device)
			}
			if err != nil {
				return err
			}
			a.log.Info("Screen switched", slog.Int("device", device), slog.String("state", state))
			return nil
		},
	}
}

// newCallCmd sends an arbitrary SDK method and prints the raw answer
func newCallCmd(a *app) *cobra.Command {
	var (
		inner    string
		innerSrc string
	)

	cmd := &cobra.Command{
		Use:   "call <device> <method>",
		Short: "Send a raw SDK command",
		Long: `Send an SDK method to a device and print the XML it answers with.

The body of the <in> element is taken from --xml, or from the file named by
--xml-file ("-" reads stdin).`,
		Example: `  hdctl call 0 GetDeviceInfo
  hdctl call 0 UpdateProgram --xml '<screen><program guid="..." type="normal"/></screen>'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			device, err := parseIndex("device", args[0])
			if err != nil {
				return err
			}
			if innerSrc != "" {
				var data []byte
				if innerSrc == "-" {
					data, err = io.ReadAll(cmd.InOrStdin())
				} else {
					data, err = os.ReadFile(innerSrc)
				}
				if err != nil {
					return fmt.Errorf("failed to read xml: %w", err)
				}
				inner = string(data)
			}
			if _, err := a.discover(cmd.Context()); err != nil {
				return err
			}

			resp, err := a.client.CommandXML(cmd.Context(), device, huidu.SdkMethod(args[1]), inner)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(resp))
			return nil
		},
	}

	cmd.Flags().StringVar(&inner, "xml", "", "Inner XML of the <in> element")
	cmd.Flags().StringVar(&innerSrc, "xml-file", "", "File holding the inner XML")
	cmd.MarkFlagsMutuallyExclusive("xml", "xml-file")
	return cmd
}
