package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"configllm/internal/library"
)

func newFilesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Manage the file library",
	}
	cmd.AddCommand(newFilesListCommand(ctx))
	cmd.AddCommand(newFilesAddCommand(ctx))
	cmd.AddCommand(newFilesRemoveCommand(ctx))
	return cmd
}

func (c *commandContext) library() (*library.Library, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return library.New(cfg.Paths.FilesDir), nil
}

func newFilesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List files in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := ctx.library()
			if err != nil {
				return err
			}
			files, err := lib.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintf(out, "No files in %s\n", lib.Dir())
				return nil
			}
			rows := make([][]string, 0, len(files))
			for _, f := range files {
				rows = append(rows, []string{
					f.Name,
					strconv.FormatInt(f.Size, 10),
					f.Modified.Local().Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Name", "Bytes", "Modified"}, rows, 2))
			return nil
		},
	}
}

func newFilesAddCommand(ctx *commandContext) *cobra.Command {
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "add <path>...",
		Short: "Copy files into the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := ctx.library()
			if err != nil {
				return err
			}
			for _, src := range args {
				f, err := lib.Add(src, overwrite)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%d bytes)\n", f.Name, f.Size)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace files that already exist")
	return cmd
}

func newFilesRemoveCommand(ctx *commandContext) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "remove <name>...",
		Short: "Remove files from the library",
		Args: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return fmt.Errorf("--all takes no file names")
			}
			if !all && len(args) == 0 {
				return fmt.Errorf("requires at least one file name or --all")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := ctx.library()
			if err != nil {
				return err
			}
			var n int
			if all {
				n, err = lib.RemoveAll()
			} else {
				n, err = lib.Remove(args...)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d file(s)\n", n)
			return err
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Remove every file")
	return cmd
}
