package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	hashName string
	storeDir string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "merkle",
	Short: "Merkle is a command-line tool for committing to lines of a file and proving them",
}

// Init initiates commands
func Init() error {
	rootCmd.PersistentFlags().StringVar(&hashName, "hash", "blake2b-512", "hash function: blake2b-512, blake2b-256 or sha256")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store", "", "directory to save committed trees in and load them from")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug messages to stderr")

	openCmd.Flags().StringVar(&openRoot, "root", "", "hex root of a tree saved with --store, instead of FILE")
	openCmd.Flags().Uint64Var(&openSize, "size", 0, "number of leaves of the tree named by --root")
	openCmd.Flags().BoolVar(&openProof, "proof", false, "print a self-contained base64 proof instead of the hex path")
	verifyCmd.Flags().BoolVar(&verifyProof, "proof", false, "PATH is a base64 proof from open --proof; ROOT and INDEX must match it")

	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(verifyCmd)

	return nil
}

// Execute executes command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
