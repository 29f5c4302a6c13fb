package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sqlops/ssrp"
	"github.com/sqlops/ssrp/internal/ad"
)

var (
	version = "1.0.0"

	// Global options
	timeoutSeconds int
	verbose        bool

	// Network enumeration options
	broadcastAddr string
	listenSeconds int

	// SPN options
	domain           string
	domainController string
	ldapUser         string
	ldapPassword     string
	probeSPNHosts    bool

	// Scan options
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "mssqlbrowse",
		Short:   "mssqlbrowse: Discover MSSQL instances via the SQL Server Browser service",
		Long:    `mssqlbrowse: Discover MSSQL instances via the SQL Server Browser service (UDP 1434)`,
		Version: version,
	}

	rootCmd.PersistentFlags().IntVarP(&timeoutSeconds, "timeout", "t", 5, "Timeout for each query (seconds)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output showing all advertised endpoints")

	instanceCmd := &cobra.Command{
		Use:   "instance <host> <instance>",
		Short: "Query a single named instance on a host",
		Args:  cobra.ExactArgs(2),
		RunE:  runInstance,
	}

	dacCmd := &cobra.Command{
		Use:   "dac <host> <instance>",
		Short: "Look up the Dedicated Admin Connection port of an instance",
		Args:  cobra.ExactArgs(2),
		RunE:  runDAC,
	}

	hostCmd := &cobra.Command{
		Use:   "host <host>",
		Short: "Enumerate all instances on a single host",
		Args:  cobra.ExactArgs(1),
		RunE:  runHost,
	}

	networkCmd := &cobra.Command{
		Use:   "network",
		Short: "Enumerate instances on the local network via broadcast",
		Args:  cobra.NoArgs,
		RunE:  runNetwork,
	}
	networkCmd.Flags().StringVarP(&broadcastAddr, "broadcast", "b", "255.255.255.255", "Broadcast address to send the enumeration request to")
	networkCmd.Flags().IntVarP(&listenSeconds, "listen", "l", 5, "How long to collect responses (seconds)")

	spnCmd := &cobra.Command{
		Use:   "spn",
		Short: "Discover SQL Server hosts from Active Directory SPNs",
		Args:  cobra.NoArgs,
		RunE:  runSPN,
	}
	spnCmd.Flags().StringVarP(&domain, "domain", "d", "", "Active Directory domain to search")
	spnCmd.Flags().StringVar(&domainController, "dc", "", "Domain controller (defaults to SRV lookup)")
	spnCmd.Flags().StringVar(&ldapUser, "ldap-user", "", "LDAP user (user, user@domain or DOMAIN\\user)")
	spnCmd.Flags().StringVar(&ldapPassword, "ldap-password", "", "LDAP password")
	spnCmd.Flags().BoolVar(&probeSPNHosts, "probe", false, "Probe each discovered host with a browser enumeration")
	spnCmd.MarkFlagRequired("domain")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a scan described by a TOML config file",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
	scanCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the scan config file")
	scanCmd.MarkFlagRequired("config")

	rootCmd.AddCommand(instanceCmd, dacCmd, hostCmd, networkCmd, spnCmd, scanCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runInstance(cmd *cobra.Command, args []string) error {
	host, err := resolveHost(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := queryContext()
	defer cancel()

	info, err := ssrp.QueryInstance(ctx, host, args[1])
	if err != nil {
		return err
	}
	printInstance(info)
	return nil
}

func runDAC(cmd *cobra.Command, args []string) error {
	host, err := resolveHost(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := queryContext()
	defer cancel()

	info, err := ssrp.QueryDAC(ctx, host, args[1])
	if err != nil {
		return err
	}
	fmt.Printf("DAC port for %s\\%s: %d\n", args[0], args[1], info.Port)
	return nil
}

func runHost(cmd *cobra.Command, args []string) error {
	host, err := resolveHost(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := queryContext()
	defer cancel()

	infos, err := ssrp.EnumerateHost(ctx, host)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Printf("No instances advertised by %s\n", args[0])
		return nil
	}
	for _, info := range infos {
		printInstance(info)
	}
	return nil
}

func runNetwork(cmd *cobra.Command, args []string) error {
	broadcast, err := netip.ParseAddr(broadcastAddr)
	if err != nil {
		return fmt.Errorf("invalid broadcast address %q: %w", broadcastAddr, err)
	}

	ctx, cancel := queryContext()
	defer cancel()

	stream, err := ssrp.EnumerateNetwork(ctx, broadcast)
	if err != nil {
		return err
	}
	defer stream.Close()

	fmt.Printf("Listening for responses for %ds...\n\n", listenSeconds)
	deadline := time.Now().Add(time.Duration(listenSeconds) * time.Second)
	count := 0
	for {
		pullCtx, pullCancel := context.WithDeadline(context.Background(), deadline)
		info, err := stream.Next(pullCtx)
		pullCancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return err
		}
		printInstance(info)
		count++
	}
	fmt.Printf("%d instance(s) discovered\n", count)
	return nil
}

func runSPN(cmd *cobra.Command, args []string) error {
	client := ad.NewClient(domain, domainController, ldapUser, ldapPassword)
	if err := client.Connect(); err != nil {
		return err
	}
	defer client.Close()

	spns, err := client.EnumerateSQLServerSPNs()
	if err != nil {
		return err
	}

	fmt.Printf("Found %d MSSQLSvc SPN(s) in %s\n\n", len(spns), domain)
	for _, spn := range spns {
		fmt.Printf("  %s\n", spn.FullSPN)
		if verbose {
			fmt.Printf("    Account: %s (%s)\n", spn.AccountName, spn.AccountSID)
		}
	}

	if !probeSPNHosts {
		return nil
	}

	fmt.Println()
	for _, host := range ad.UniqueHosts(spns) {
		addr, err := resolveHost(host)
		if err != nil {
			fmt.Printf("%s: %v\n", host, err)
			continue
		}

		ctx, cancel := queryContext()
		infos, err := ssrp.EnumerateHost(ctx, addr)
		cancel()
		if err != nil {
			fmt.Printf("%s: %v\n", host, err)
			continue
		}
		fmt.Printf("%s: %d instance(s) via browser\n", host, len(infos))
		for _, info := range infos {
			printInstance(info)
		}
	}
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	config, err := loadScanConfig(configPath)
	if err != nil {
		return err
	}

	for _, target := range config.Targets {
		addr, err := resolveHost(target)
		if err != nil {
			fmt.Printf("%s: %v\n", target, err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
		infos, err := ssrp.EnumerateHost(ctx, addr)
		cancel()
		if err != nil {
			fmt.Printf("%s: %v\n", target, err)
			continue
		}
		fmt.Printf("%s: %d instance(s)\n", target, len(infos))
		for _, info := range infos {
			printInstance(info)
		}
	}

	if config.Broadcast == "" {
		return nil
	}

	broadcast, err := netip.ParseAddr(config.Broadcast)
	if err != nil {
		return fmt.Errorf("invalid broadcast address %q: %w", config.Broadcast, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()
	stream, err := ssrp.EnumerateNetwork(ctx, broadcast)
	if err != nil {
		return err
	}
	defer stream.Close()

	deadline := time.Now().Add(config.Listen)
	for {
		pullCtx, pullCancel := context.WithDeadline(context.Background(), deadline)
		info, err := stream.Next(pullCtx)
		pullCancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		printInstance(info)
	}
}

// resolveHost accepts a literal IP or a hostname resolved via DNS.
func resolveHost(host string) (netip.Addr, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr, nil
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("resolve %s: %w", host, err)
	}
	for _, ip := range ips {
		if addr, ok := netip.AddrFromSlice(ip); ok {
			return addr.Unmap(), nil
		}
	}
	return netip.Addr{}, fmt.Errorf("resolve %s: no usable address", host)
}

func queryContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
}

func printInstance(info *ssrp.InstanceInfo) {
	fmt.Printf("%s\\%s\n", info.ServerName, info.InstanceName)
	fmt.Printf("  Address:   %s\n", info.Addr)
	fmt.Printf("  Version:   %s\n", info.Version)
	fmt.Printf("  Clustered: %v\n", info.IsClustered)
	if info.TCP != nil {
		fmt.Printf("  TCP:       %d\n", info.TCP.Port)
	}
	if info.NamedPipe != nil {
		fmt.Printf("  Pipe:      %s\n", info.NamedPipe.Name)
	}
	if verbose {
		if info.VIA != nil {
			fmt.Printf("  VIA:       %s", info.VIA.MachineName)
			for _, addr := range info.VIA.Addresses {
				fmt.Printf(" %s:%s", addr.NIC, addr.Port)
			}
			fmt.Println()
		}
		if info.RPC != nil {
			fmt.Printf("  RPC:       %s\n", info.RPC.ComputerName)
		}
		if info.SPX != nil {
			fmt.Printf("  SPX:       %s\n", info.SPX.ServiceName)
		}
		if info.ADSP != nil {
			fmt.Printf("  ADSP:      %s\n", info.ADSP.ObjectName)
		}
		if info.BV != nil {
			fmt.Printf("  BV:        %s/%s/%s\n", info.BV.ItemName, info.BV.GroupName, info.BV.OrgName)
		}
	}
	fmt.Println()
}
