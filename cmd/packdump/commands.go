package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aalhour/packstore"
	"github.com/aalhour/packstore/collection"
	"github.com/aalhour/packstore/internal/logging"
)

func (a *app) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Show a blob's header and collection summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			h, err := packstore.Inspect(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			c, err := packstore.Decode(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return printSummary(cmd.OutOrStdout(), args[0], len(data), h, c)
		},
	}
}

func printSummary(w io.Writer, path string, fileSize int, h packstore.Header, c collection.Collection) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "file:\t%s\n", path)
	fmt.Fprintf(tw, "file size:\t%d\n", fileSize)
	fmt.Fprintf(tw, "version:\t%d\n", h.Version)
	fmt.Fprintf(tw, "kind:\t%s\n", h.Kind)
	fmt.Fprintf(tw, "name:\t%s\n", c.Name())
	if s, ok := c.(interface{ State() collection.State }); ok {
		fmt.Fprintf(tw, "state:\t%s\n", s.State())
	}
	fmt.Fprintf(tw, "size:\t%d\n", c.Size())
	fmt.Fprintf(tw, "compression:\t%s\n", h.Compression)
	fmt.Fprintf(tw, "raw bytes:\t%d\n", h.RawSize)
	fmt.Fprintf(tw, "stored bytes:\t%d\n", h.StoredSize)
	fmt.Fprintf(tw, "checksum:\t%#016x\n", h.Checksum)
	return tw.Flush()
}

func (a *app) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify FILE...",
		Short: "Check checksums and decode every file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, path := range args {
				if err := verifyFile(path); err != nil {
					a.logger.Errorf(logging.NSCodec+"%s: %v", path, err)
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "OK   %s\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed verification", failed, len(args))
			}
			return nil
		},
	}
}

func verifyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = packstore.Decode(data)
	return err
}

func (a *app) convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Re-encode a blob with another compression codec",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := packstore.ParseCompression(a.v.GetString(keyCompression))
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			c, err := packstore.Decode(data)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			n, err := writeBlob(args[1], c, packstore.Options{Compression: codec, Logger: a.logger})
			if err != nil {
				return err
			}
			a.logger.Infof(logging.NSCodec+"converted %s (%d bytes) to %s (%d bytes, %s)", args[0], len(data), args[1], n, codec)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d -> %d bytes (%s)\n", args[1], len(data), n, codec)
			return nil
		},
	}
	cmd.Flags().StringP(keyCompression, "c", "zstd", "compression codec (none, snappy, zlib, lz4, lz4hc, zstd)")
	_ = a.v.BindPFlag(keyCompression, cmd.Flags().Lookup(keyCompression))
	return cmd
}

// writeBlob writes c to a temporary file beside path and renames it into
// place, so a failed conversion never leaves a truncated blob.
func writeBlob(path string, c collection.Collection, opts packstore.Options) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return 0, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	n, err := packstore.WriteTo(tmp, c, opts)
	if err != nil {
		_ = tmp.Close()
		return 0, err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	return n, os.Rename(tmp.Name(), path)
}
