package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newScanCmd lists the devices that answer the broadcast probe
func newScanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Discover controllers on the local network",
		Long: `Broadcast the Huidu search probe and list every controller that answers.

With static devices configured no probe is sent; the static list is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := a.discover(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Devices (%d):\n\n", len(devices))
			for i, d := range devices {
				id := d.IDString()
				if id == "" {
					id = "-"
				}
				fmt.Fprintf(out, "  [%d] %s:%d  id=%s  version=0x%x  change=%d\n",
					i, d.Host, d.Port, id, d.Version, d.Change)
			}
			return nil
		},
	}
}

// newInfoCmd prints the hardware and firmware details of one device
func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <device>",
		Short: "Show device information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			device, err := parseIndex("device", args[0])
			if err != nil {
				return err
			}
			if _, err := a.discover(cmd.Context()); err != nil {
				return err
			}

			info, err := a.client.DeviceInfo(cmd.Context(), device)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Device %d\n", device)
			fmt.Fprintf(out, "  Name:     %s\n", info.DeviceName)
			fmt.Fprintf(out, "  ID:       %s\n", info.DeviceID)
			fmt.Fprintf(out, "  Model:    %s\n", info.Model)
			fmt.Fprintf(out, "  CPU:      %s\n", info.CPU)
			fmt.Fprintf(out, "  Firmware: %s (FPGA %s, kernel %s)\n", info.AppVersion, info.FPGAVersion, info.KernelVersion)
			fmt.Fprintf(out, "  Screen:   %dx%d, rotation %d\n", info.ScreenWidth, info.ScreenHeight, info.ScreenRotation)
			return nil
		},
	}
}
