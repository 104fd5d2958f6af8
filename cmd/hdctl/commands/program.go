package commands

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	huidu "github.com/alparslanahmed/huidu-client"
)

// newProgramsCmd lists the program GUIDs stored on a device
func newProgramsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "programs <device>",
		Short: "List the programs of a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			device, err := parseIndex("device", args[0])
			if err != nil {
				return err
			}
			guids, err := a.withPrograms(cmd.Context(), device)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(guids) == 0 {
				fmt.Fprintln(out, "No programs on device.")
				return nil
			}
			fmt.Fprintf(out, "Programs (%d):\n\n", len(guids))
			for i, guid := range guids {
				fmt.Fprintf(out, "  [%d] %s\n", i, guid)
			}
			return nil
		},
	}
}

// newPlayCmd enables or disables playback of one program
func newPlayCmd(a *app) *cobra.Command {
	var disable bool

	cmd := &cobra.Command{
		Use:   "play <device> <program>",
		Short: "Enable or disable a program",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			device, program, err := parseTarget(args)
			if err != nil {
				return err
			}
			if _, err := a.withPrograms(cmd.Context(), device); err != nil {
				return err
			}
			if err := a.client.SetPlayControl(cmd.Context(), device, program, !disable); err != nil {
				return err
			}
			a.log.Info("Play control updated",
				slog.Int("device", device),
				slog.Int("program", program),
				slog.Bool("enabled", !disable),
			)
			return nil
		},
	}

	cmd.Flags().BoolVar(&disable, "disable", false, "Disable the program instead of enabling it")
	return cmd
}

// newTextCmd replaces a program with a single text area
func newTextCmd(a *app) *cobra.Command {
	var (
		disable  bool
		color    string
		font     string
		size     int
		effect   int
		speed    int
		duration int
	)

	cmd := &cobra.Command{
		Use:   "text <device> <program> <text>",
		Short: "Show text on a program",
		Long: `Replace the content of a program with a single text area.

Unset style flags fall back to the text section of the configuration.`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			device, program, err := parseTarget(args[:2])
			if err != nil {
				return err
			}

			tc := a.cfg.Text.TextConfig()
			flags := cmd.Flags()
			if flags.Changed("color") {
				if tc.Color, err = parseColor(color); err != nil {
					return err
				}
			}
			if flags.Changed("font") {
				tc.FontName = font
			}
			if flags.Changed("size") {
				tc.FontSize = size
			}
			if flags.Changed("effect") {
				tc.Effect = huidu.EffectType(effect)
			}
			if flags.Changed("speed") {
				tc.Speed = speed
			}
			if flags.Changed("duration") {
				tc.Duration = duration
			}

			if _, err := a.withPrograms(cmd.Context(), device); err != nil {
				return err
			}
			text := strings.Join(args[2:], " ")
			if err := a.client.SetTextWithConfig(cmd.Context(), device, program, !disable, text, tc); err != nil {
				return err
			}
			a.log.Info("Text updated",
				slog.Int("device", device),
				slog.Int("program", program),
				slog.Int("length", len(text)),
			)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&disable, "disable", false, "Store the program disabled")
	flags.StringVar(&color, "color", huidu.ColorRed, "Text color: #RRGGBB or red, green, blue, yellow, white")
	flags.StringVar(&font, "font", "Arial", "Font name")
	flags.IntVar(&size, "size", 12, "Font size")
	flags.IntVar(&effect, "effect", int(huidu.EffectImmediate), "Entry effect number")
	flags.IntVar(&speed, "speed", 4, "Effect speed")
	flags.IntVar(&duration, "duration", 3, "Display duration in seconds")
	return cmd
}

// newDeleteCmd removes one program from a device
func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <device> <program>",
		Short: "Delete a program from a device",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			device, program, err := parseTarget(args)
			if err != nil {
				return err
			}
			if _, err := a.withPrograms(cmd.Context(), device); err != nil {
				return err
			}
			return a.client.DeleteProgram(cmd.Context(), device, program)
		},
	}
}

func parseTarget(args []string) (device, program int, err error) {
	if device, err = parseIndex("device", args[0]); err != nil {
		return 0, 0, err
	}
	if program, err = parseIndex("program", args[1]); err != nil {
		return 0, 0, err
	}
	return device, program, nil
}

var namedColors = map[string]string{
	"red":    huidu.ColorRed,
	"green":  huidu.ColorGreen,
	"blue":   huidu.ColorBlue,
	"yellow": huidu.ColorYellow,
	"white":  huidu.ColorWhite,
}

// parseColor accepts a color name or #RRGGBB and returns the lower-case hex form
func parseColor(s string) (string, error) {
	if c, ok := namedColors[strings.ToLower(s)]; ok {
		return c, nil
	}
	if len(s) == 7 && s[0] == '#' {
		if v, err := strconv.ParseUint(s[1:], 16, 32); err == nil {
			return huidu.RGB(int(v>>16), int(v>>8&0xff), int(v&0xff)), nil
		}
	}
	return "", fmt.Errorf("invalid color %q", s)
}
