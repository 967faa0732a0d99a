// Package app wires the field reader, the column subset, the row source and
// the output writers into one run of the dsv command.
package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"syscall"

	"github.com/oleg578/dsv/internal/dsv"
	"github.com/oleg578/dsv/internal/rowsource"
	"github.com/oleg578/dsv/internal/table"
)

// IsBrokenPipe reports whether err comes from writing to a closed pipe.
func IsBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE)
}

// Run reads the input named by opts (stdin when opts.Path is empty) and
// writes it to stdout as a table or as delimited rows.
func Run(opts Options, stdin io.Reader, stdout io.Writer) error {
	decode, err := decoder(opts.Encoding)
	if err != nil {
		return err
	}
	in, closeInput, err := openInput(opts.Path, stdin)
	if err != nil {
		return err
	}
	defer closeInput()
	in.Decode = decode

	comma := InputDelimiter(opts.Path, opts.Delimiter)
	slog.Debug("starting run",
		"path", opts.Path,
		"delimiter", string(comma),
		"format", opts.Format,
		"subset", opts.Subset.Kind(),
	)

	if opts.Format == FormatDelimited {
		return writeDelimited(in, comma, opts, stdout)
	}
	return writeTable(in, comma, opts, stdout)
}

func writeTable(in rowsource.Input, comma byte, opts Options, stdout io.Writer) error {
	measure := table.CountRunes
	if opts.Wide {
		measure = table.TerminalWidth
	}
	headerIndexes := opts.headerIndexes()
	acc := table.NewAccumulator(measure, headerIndexes)
	res := opts.Subset.Resolve()

	rows, err := rowsource.Scan(in, rowsource.Options{Comma: comma, Limit: opts.BigFileLimit},
		func(row []string, first bool) error {
			if err := res.Observe(row, first); err != nil {
				return err
			}
			acc.Add(row)
			return nil
		})
	if err != nil {
		return err
	}
	slog.Debug("resolved columns", "indexes", res.Indexes(), "rows", acc.Rows())

	r := table.NewRenderer(stdout, res.ProjectWidths(acc.Widths()), table.Options{
		Header:        !opts.NoHeader,
		HeaderIndexes: headerIndexes,
		Measure:       measure,
		Project:       res.ProjectRow,
	})
	return r.Render(rows)
}

func writeDelimited(in rowsource.Input, comma byte, opts Options, stdout io.Writer) error {
	res := opts.Subset.Resolve()
	w := dsv.NewWriter(stdout)
	w.Comma = opts.outDelimiter()

	err := rowsource.Each(in, comma, func(row []string, first bool) error {
		if err := res.Observe(row, first); err != nil {
			return err
		}
		if err := w.Write(res.ProjectRow(row)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
		return nil
	})
	if err != nil {
		// Rows already written stay visible before the error is reported.
		_ = w.Flush()
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	return nil
}
