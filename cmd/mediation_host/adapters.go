package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/echoface/admediation/internal/mediation"
	"github.com/echoface/admediation/internal/sdk/sdkhttp"
	"github.com/echoface/admediation/pkg/logger"
)

var adaptersCmd = &cobra.Command{
	Use:   "adapters",
	Short: "List the adapter classes compiled into this binary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg := mediation.DefaultRegistry()
		services := mediation.NewServices(logger.NewNop(), sdkhttp.NewDefaultHTTPClient(), nil)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CLASS\tADAPTER\tSDK")
		for _, name := range reg.Names() {
			a, err := reg.New(name, services)
			if err != nil {
				fmt.Fprintf(w, "%s\t-\t-\n", name)
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", name, versionString(a.VersionInfo), versionString(a.SDKVersionInfo))
		}
		return w.Flush()
	},
}

func versionString(f func() (mediation.VersionInfo, error)) string {
	v, err := f()
	if err != nil {
		return "invalid"
	}
	return v.String()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the host version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}
