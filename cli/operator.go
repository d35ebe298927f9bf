package cli

import (
	"bufio"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jrhy/merkle"
	"github.com/jrhy/merkle/log"
	"github.com/jrhy/merkle/persist/file"
)

var (
	openRoot    string
	openSize    uint64
	openProof   bool
	verifyProof bool
)

var errInvalid = errors.New("invalid proof")

func hasher() (merkle.Hasher, error) {
	switch hashName {
	case "blake2b-512":
		return merkle.Blake2b512, nil
	case "blake2b-256":
		return merkle.Blake2b256, nil
	case "sha256":
		return merkle.NewHasher(sha256.New), nil
	}
	return nil, fmt.Errorf("unknown hash %q", hashName)
}

func scheme() (*merkle.Scheme[string], error) {
	h, err := hasher()
	if err != nil {
		return nil, err
	}
	return merkle.NewScheme[string](&merkle.Config{Hasher: h, Logger: log.New(verbose)}), nil
}

// readElements returns the lines of the named file, or of stdin for "-".
func readElements(name string) ([]string, error) {
	f := os.Stdin
	if name != "-" {
		var err error
		f, err = os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
	}
	var elements []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		elements = append(elements, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return elements, nil
}

func buildFromFile(name string) (*merkle.Tree, error) {
	s, err := scheme()
	if err != nil {
		return nil, err
	}
	elements, err := readElements(name)
	if err != nil {
		return nil, err
	}
	return s.Build(elements)
}

func parseIndex(arg string) (int, error) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid index %s: %w", arg, err)
	}
	return index, nil
}

var (
	commitCmd = &cobra.Command{
		Use:   "commit FILE",
		Short: "Print the root and size of the lines in FILE, whose count must be a power of two",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := buildFromFile(args[0])
			if err != nil {
				return err
			}
			if storeDir != "" {
				root, err := tree.Save(cmd.Context(), file.NewPersistForPath(storeDir), nil)
				if err != nil {
					return err
				}
				log.New(verbose).Debug("saved tree",
					zap.String("dir", storeDir),
					zap.String("name", root.Name()))
			}
			fmt.Fprintln(cmd.OutOrStdout(), tree.Root(), tree.Len())
			return nil
		},
	}

	openCmd = &cobra.Command{
		Use:   "open INDEX [FILE]",
		Short: "Print the authentication path of line INDEX of FILE, or of a tree saved with --store",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			var tree *merkle.Tree
			if len(args) == 2 {
				tree, err = buildFromFile(args[1])
			} else {
				tree, err = loadSaved(cmd)
			}
			if err != nil {
				return err
			}
			proof, err := tree.Prove(index)
			if err != nil {
				return err
			}
			if !openProof {
				fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(proof.Path.Bytes()))
				return nil
			}
			b, err := proof.MarshalBinary()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), base64.StdEncoding.EncodeToString(b))
			return nil
		},
	}

	verifyCmd = &cobra.Command{
		Use:   "verify ROOT INDEX PATH ELEMENT",
		Short: "Check that ELEMENT is at INDEX under ROOT, exiting non-zero if not",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scheme()
			if err != nil {
				return err
			}
			root, err := merkle.ParseDigest(args[0])
			if err != nil {
				return err
			}
			index, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			path, err := parsePathArg(args[2], s.Hasher(), root, index)
			if err != nil {
				return err
			}
			ok, err := s.Verify(root, index, path, args[3])
			if err != nil {
				return err
			}
			if !ok {
				return errInvalid
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}
)

func loadSaved(cmd *cobra.Command) (*merkle.Tree, error) {
	if openRoot == "" || storeDir == "" {
		return nil, errors.New("open needs FILE, or --root, --size and --store")
	}
	h, err := hasher()
	if err != nil {
		return nil, err
	}
	digest, err := merkle.ParseDigest(openRoot)
	if err != nil {
		return nil, err
	}
	root := &merkle.Root{Digest: digest, Size: openSize}
	return root.LoadTree(cmd.Context(), &merkle.RemoteConfig{
		Hasher:                  h,
		StoreImmutablePartsWith: file.NewPersistForPath(storeDir),
		Logger:                  log.New(verbose),
	})
}

func parsePathArg(arg string, h merkle.Hasher, root merkle.Digest, index int) (merkle.Path, error) {
	if !verifyProof {
		b, err := hex.DecodeString(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		return merkle.ParsePath(b, h.Size())
	}
	b, err := base64.StdEncoding.DecodeString(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid proof: %w", err)
	}
	var proof merkle.Proof
	if err := proof.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	if !proof.Root.Equal(root) || proof.Index != index {
		return nil, errInvalid
	}
	return proof.Path, nil
}
