package cmd

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"bcn-hostel-prices/internal/hostels"
	"bcn-hostel-prices/internal/report"
)

var hostelsCmd = &cobra.Command{
	Use:   "hostels",
	Short: "Manage the hostel list (hostels_file).",
}

var hostelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the hostel list.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := openCatalog()
		if err != nil {
			return err
		}

		t := report.NewTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"#", "Nombre", "Tipo", "URL"})
		for i, h := range catalog.List() {
			t.AppendRow(table.Row{i + 1, h.Name, h.Category.String(), h.URL})
		}
		t.SetCaption("%d hostels, %s", catalog.Len(), cfg.HostelsFile)
		t.Render()
		return nil
	},
}

var hostelsAddCmd = &cobra.Command{
	Use:   "add NAME TYPE URL",
	Short: "Add a hostel (TYPE: Privado|Compartido|Híbrido).",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := openCatalog()
		if err != nil {
			return err
		}
		category, err := hostels.ParseCategory(args[1])
		if err != nil {
			return err
		}
		h := hostels.Hostel{Name: args[0], Category: category, URL: args[2]}
		if err := catalog.Add(h); err != nil {
			return err
		}
		return saveCatalog(cmd, catalog, fmt.Sprintf("Added %s", h.Name))
	},
}

var hostelsEditFlags struct {
	name     string
	category string
	url      string
}

var hostelsEditCmd = &cobra.Command{
	Use:   "edit INDEX|NAME",
	Short: "Change name, type or URL of a hostel.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := openCatalog()
		if err != nil {
			return err
		}
		index, h, err := resolveHostel(catalog, args[0])
		if err != nil {
			return err
		}

		if hostelsEditFlags.name != "" {
			h.Name = hostelsEditFlags.name
		}
		if hostelsEditFlags.category != "" {
			if h.Category, err = hostels.ParseCategory(hostelsEditFlags.category); err != nil {
				return err
			}
		}
		if hostelsEditFlags.url != "" {
			h.URL = hostelsEditFlags.url
		}
		if err := catalog.Update(index, h); err != nil {
			return err
		}
		return saveCatalog(cmd, catalog, fmt.Sprintf("Updated #%d %s", index+1, h.Name))
	},
}

var hostelsRemoveCmd = &cobra.Command{
	Use:   "remove INDEX|NAME",
	Short: "Remove a hostel.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := openCatalog()
		if err != nil {
			return err
		}
		index, _, err := resolveHostel(catalog, args[0])
		if err != nil {
			return err
		}
		removed, err := catalog.Remove(index)
		if err != nil {
			return err
		}
		return saveCatalog(cmd, catalog, fmt.Sprintf("Removed %s", removed.Name))
	},
}

var hostelsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the predefined Barcelona hostel list.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := hostels.NewCatalog(nil)
		catalog.Reset()
		return saveCatalog(cmd, catalog, fmt.Sprintf("Reset to %d hostels", catalog.Len()))
	},
}

func init() {
	f := hostelsEditCmd.Flags()
	f.StringVar(&hostelsEditFlags.name, "name", "", "new name")
	f.StringVar(&hostelsEditFlags.category, "type", "", "new type")
	f.StringVar(&hostelsEditFlags.url, "url", "", "new Booking.com URL")

	hostelsCmd.AddCommand(hostelsListCmd, hostelsAddCmd, hostelsEditCmd, hostelsRemoveCmd, hostelsResetCmd)
	rootCmd.AddCommand(hostelsCmd)
}

// resolveHostel принимает номер из "hostels list" (с 1) или имя.
func resolveHostel(catalog *hostels.Catalog, ref string) (int, hostels.Hostel, error) {
	if n, err := strconv.Atoi(ref); err == nil {
		list := catalog.List()
		if n < 1 || n > len(list) {
			return -1, hostels.Hostel{}, fmt.Errorf("index %d out of range 1..%d", n, len(list))
		}
		return n - 1, list[n-1], nil
	}
	return catalog.Find(ref)
}

func saveCatalog(cmd *cobra.Command, catalog *hostels.Catalog, msg string) error {
	if cfg.HostelsFile == "" {
		return fmt.Errorf("hostels_file is not configured")
	}
	if err := catalog.Save(cfg.HostelsFile); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", msg, cfg.HostelsFile)
	return nil
}
