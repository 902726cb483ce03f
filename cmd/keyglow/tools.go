package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/coreman2200/funtimes-keyglow/internal/app"
	"github.com/coreman2200/funtimes-keyglow/internal/config"
	"github.com/coreman2200/funtimes-keyglow/internal/input"
	"github.com/coreman2200/funtimes-keyglow/internal/transport"
)

var layoutCmd = &cobra.Command{
	Use:   "layout [model]",
	Short: "Print the key table: address, packet, offset and grid position",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		model := ""
		if len(args) == 1 {
			model = args[0]
		}
		l, p, err := app.Model(model)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "# %s  %04x:%04x  %d keys\n", l.Name(), p.VendorID, p.ProductID, l.Len())
		fmt.Fprintln(w, "KEY\tPACKET\tOFFSET\tROW\tCOL")
		for _, k := range l.Keys() {
			row, col := "-", "-"
			if k.HasPos {
				row, col = fmt.Sprint(k.Row), fmt.Sprint(k.Col)
			}
			fmt.Fprintf(w, "%s\t%d\t0x%02x\t%s\t%s\n", k.Addr, k.Packet, k.Offset, row, col)
		}
		for _, g := range l.Groups() {
			keys, _ := l.Group(g)
			fmt.Fprintf(w, "group %s\t%v\n", g, keys)
		}
		return w.Flush()
	},
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List HID interfaces, keyboard event nodes and MIDI inputs",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if !transport.HIDSupported() {
			fmt.Fprintln(out, "hid: not supported in this build")
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "VID:PID\tIFACE\tUSAGE\tPRODUCT\tPATH")
		for _, d := range transport.Devices(0, 0) {
			fmt.Fprintf(w, "%04x:%04x\t%d\t%04x/%02x\t%s\t%s\n", d.VendorID, d.ProductID, d.Interface, d.UsagePage, d.Usage, d.Product, d.Path)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		for _, p := range input.KeyboardDevices() {
			fmt.Fprintln(out, "evdev:", p)
		}
		for _, p := range input.MIDIPorts() {
			fmt.Fprintln(out, "midi:", p)
		}
		return nil
	},
}

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write the default config (flame, starlight, blue press) to --config",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(configPath); err == nil && !force {
			return fmt.Errorf("%s exists (use --force)", configPath)
		}
		if err := config.Save(configPath, config.Default()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "wrote", configPath)
		return nil
	},
}

func init() {
	initConfigCmd.Flags().Bool("force", false, "overwrite an existing file")
}
