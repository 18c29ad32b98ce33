package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/asrsmcp/internal/asrshtml"
	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
)

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <in.html> [out.json]",
		Short: "Convert an ASRS printable page into a corpus file",
		Long: `Extract the reports from a page saved from the ASRS database's printable view
and write them as a JSON array that 'serve' and 'validate' can load.

Each acnheading starts a record keyed "ACN"; each acnsection becomes an object
of its "LABEL : value" lines, with repeated labels collected into lists and
free text joined under "text".

The output defaults to the input path with a .json extension. Use "-" to
write to stdout.`,
		Example: `  asrsmcp convert QueryWizard_DisplayPrintable.html
  asrsmcp convert page.html corpus.json
  asrsmcp convert page.html - | jq length`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := ""
			if len(args) == 2 {
				out = args[1]
			}
			return runConvert(cmd, args[0], out)
		},
	}

	return cmd
}

func runConvert(cmd *cobra.Command, inPath, outPath string) error {
	if outPath == "" {
		outPath = strings.TrimSuffix(inPath, filepath.Ext(inPath)) + ".json"
	}

	f, err := os.Open(inPath)
	if err != nil {
		return amerrors.IOError(fmt.Sprintf("cannot open %s", inPath), err).
			WithDetail("path", inPath)
	}
	defer func() { _ = f.Close() }()

	records, err := asrshtml.Parse(f)
	if err != nil {
		return err
	}

	slog.Debug("Parsed printable page",
		slog.String("input", inPath),
		slog.Int("records", len(records)))

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return amerrors.InternalError("cannot encode records", err)
	}

	if outPath == "-" {
		_, err := io.Copy(cmd.OutOrStdout(), &buf)
		return err
	}

	if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
		return amerrors.IOError(fmt.Sprintf("cannot write %s", outPath), err).
			WithDetail("path", outPath)
	}

	out := newOutput(cmd)
	if len(records) == 0 {
		out.Warningf("no acnheading paragraphs in %s; is it a printable result page?", inPath)
	}
	out.Successf("Wrote %d record(s) to %s", len(records), outPath)
	return nil
}
