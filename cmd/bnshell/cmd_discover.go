package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"bnshell/internal/discovery"
	"bnshell/internal/logging"
)

var discoverFlags struct {
	ports             string
	timeout           time.Duration
	skipHostDiscovery bool
	serviceDetection  bool
	list              bool
}

var discoverCmd = &cobra.Command{
	Use:   "discover <target>...",
	Short: "Scan hosts or CIDR ranges for naming services",
	Long: "Discover runs nmap against each target and reports the hosts with an open\n" +
		"naming-service port. Targets are host names, addresses or CIDR ranges.",
	Args: cobra.MinimumNArgs(1),
	RunE: runDiscover,
}

func init() {
	f := discoverCmd.Flags()
	f.StringVarP(&discoverFlags.ports, "ports", "p", "", "ports to scan, e.g. 1099 or 1099-1110 (default: discovery.ports)")
	f.DurationVar(&discoverFlags.timeout, "timeout", 0, "bound on the whole scan (default: discovery.timeout)")
	f.BoolVar(&discoverFlags.skipHostDiscovery, "skip-host-discovery", false, "treat all hosts as up (-Pn)")
	f.BoolVar(&discoverFlags.serviceDetection, "service-detection", false, "detect service versions (-sV)")
	f.BoolVar(&discoverFlags.list, "list", false, "list the networks bound in each naming service found")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d := app.cfg.Discovery

	opts := []discovery.Option{
		discovery.WithPorts(d.Ports),
		discovery.WithTimeout(d.Timeout.Duration()),
		discovery.WithConcurrency(d.Concurrency),
		discovery.WithSkipHostDiscovery(discoverFlags.skipHostDiscovery),
		discovery.WithServiceDetection(discoverFlags.serviceDetection),
		discovery.WithLogger(logging.New("discovery")),
	}
	if discoverFlags.ports != "" {
		opts = append(opts, discovery.WithPortRange(discoverFlags.ports))
	}
	if discoverFlags.timeout > 0 {
		opts = append(opts, discovery.WithTimeout(discoverFlags.timeout))
	}

	candidates, err := discovery.NewScanner(opts...).Discover(ctx, args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(candidates) == 0 {
		fmt.Fprintln(out, "No naming services found")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tHOSTNAME\tSERVICE")
	for _, c := range candidates {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Address(), c.Hostname, c.Service)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !discoverFlags.list {
		return nil
	}
	client, err := dialEngine(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	for _, c := range candidates {
		names, err := client.List(ctx, c.Host, c.Port)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", c.Address(), err)
			continue
		}
		for _, name := range names {
			fmt.Fprintf(out, "import_remote(\"%s/%s\")\n", c.Address(), name)
		}
	}
	return nil
}
