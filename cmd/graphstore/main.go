// Package main provides the graphstore CLI.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"graphstore/archive"
	"graphstore/network"
	"graphstore/schema"
	"graphstore/topology"
)

var rootCmd = &cobra.Command{
	Use:   "graphstore",
	Short: "Copy-on-write graph data store",
	Long:  `graphstore builds graph-structured data stores from YAML descriptions, archives them into SQLite files, and inspects archived networks.`,
}

var buildCmd = &cobra.Command{
	Use:   "build <schema.yaml>",
	Short: "Build a network from a YAML description and archive it",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

var infoCmd = &cobra.Command{
	Use:   "info <archive.db>",
	Short: "Summarize an archived network",
	Args:  cobra.ExactArgs(1),
	RunE:  runInfo,
}

var dumpCmd = &cobra.Command{
	Use:   "dump <archive.db>",
	Short: "Print an archived network as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint <archive.db>",
	Short: "Print the content fingerprint of an archived network",
	Args:  cobra.ExactArgs(1),
	RunE:  runFingerprint,
}

var outPath string

func init() {
	buildCmd.Flags().StringVarP(&outPath, "out", "o", "network.db", "Path of the archive to write")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(fingerprintCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	n, err := schema.Load(args[0])
	if err != nil {
		return fmt.Errorf("building network: %w", err)
	}
	defer n.Release()

	if err := archive.Save(n, outPath); err != nil {
		return fmt.Errorf("archiving network: %w", err)
	}

	fingerprint, err := n.Fingerprint()
	if err != nil {
		return err
	}
	fmt.Printf("Archived network %s (%d nodes) to %s\n", n.ID(), n.NNodes(), outPath)
	fmt.Printf("Fingerprint: %s\n", fingerprint)
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	n, err := archive.Load(args[0])
	if err != nil {
		return fmt.Errorf("loading archive: %w", err)
	}
	defer n.Release()

	fmt.Printf("Nodes: %d\n", n.NNodes())
	fmt.Printf("Classes: %d\n", len(n.ClassNames()))
	for _, name := range n.ClassNames() {
		c, err := n.Class(name)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("  %s (%d nodes", name, c.Len())
		if c.Parent() != "" {
			line += fmt.Sprintf(", subclass of %s", c.Parent())
		}
		fmt.Printf("%s, %d fields)\n", line, len(c.Fields()))
	}
	fmt.Printf("Webs: %d\n", len(n.WebNames()))
	for _, name := range n.WebNames() {
		w, err := n.Web(name)
		if err != nil {
			return err
		}
		fmt.Printf("  %s (%s, %s -> %s, %d edges, %d fields)\n",
			name, topology.Kind(w.Topology()), w.Source(), w.Target(), w.NEdges(), len(w.Fields()))
	}
	fmt.Printf("Graph fields: %d\n", n.NFields())
	return nil
}

func runDump(cmd *cobra.Command, args []string) error {
	n, err := archive.Load(args[0])
	if err != nil {
		return fmt.Errorf("loading archive: %w", err)
	}
	defer n.Release()

	return printJSON(n)
}

func printJSON(n *network.Network) error {
	dump, err := n.Dump()
	if err != nil {
		return err
	}
	output, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding dump: %w", err)
	}
	fmt.Println(string(output))
	return nil
}

func runFingerprint(cmd *cobra.Command, args []string) error {
	n, err := archive.Load(args[0])
	if err != nil {
		return fmt.Errorf("loading archive: %w", err)
	}
	defer n.Release()

	fingerprint, err := n.Fingerprint()
	if err != nil {
		return err
	}
	fmt.Println(fingerprint)
	return nil
}
