package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/14thibea/h5features/container"
	"github.com/14thibea/h5features/h5features"
	"github.com/14thibea/h5features/internal/parquet"
)

func runInspect(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	group := fs.String("g", "", "List the files of this group")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("inspect takes exactly one file")
	}
	path := fs.Arg(0)
	if *group != "" {
		return inspectGroup(stdout, path, *group)
	}

	f, err := container.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	store := h5features.NewStore(f)
	table := tablewriter.NewWriter(stdout)
	table.SetHeader([]string{"Group", "Format", "Dim", "Dtype", "Version", "Files", "Frames"})
	for _, name := range f.Groups() {
		schema, ok, err := h5features.InspectGroup(store, name)
		if err != nil || !ok {
			table.Append([]string{name, "-", "-", "-", "-", "-", "-"})
			continue
		}
		files, err := store.ReadFiles(name)
		if err != nil {
			return err
		}
		frames, err := store.DatasetRows(name, h5features.DatasetTimes)
		if err != nil {
			return err
		}
		table.Append([]string{
			name,
			schema.Format.String(),
			strconv.Itoa(schema.Dim),
			schema.Dtype.String(),
			schema.Version,
			strconv.Itoa(len(files)),
			strconv.Itoa(frames),
		})
	}
	table.Render()
	return nil
}

func inspectGroup(w io.Writer, path, group string) error {
	r, err := h5features.OpenReader(path, group)
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Fprintf(w, "%s:/%s %s\n", path, group, r.Schema())
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"File", "Start", "End", "Frames"})
	for _, e := range r.Index() {
		table.Append([]string{e.File, strconv.Itoa(e.Start), strconv.Itoa(e.End), strconv.Itoa(e.End - e.Start)})
	}
	table.Render()
	return nil
}

func runExportIndex(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("export-index", flag.ContinueOnError)
	group := fs.String("g", "features", "Feature group")
	output := fs.String("o", "", "Output Parquet file")
	codec := fs.String("compression", parquet.DefaultOptions().Compression, "Parquet compression (none, snappy, zstd, lz4, gzip)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("export-index takes exactly one file")
	}
	if *output == "" {
		return errors.New("no output file, use -o")
	}

	r, err := h5features.OpenReader(fs.Arg(0), *group)
	if err != nil {
		return err
	}
	defer r.Close()

	index := r.Index()
	if err := parquet.WriteIndex(*output, *group, index, parquet.Options{Compression: *codec}); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "exported %d entries to %s\n", len(index), *output)
	return err
}
