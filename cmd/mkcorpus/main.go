package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"webtext_baseline/internal/corpus"
	"webtext_baseline/internal/logging"
)

type options struct {
	out     string
	source  string
	split   string
	words   int
	overlap int
	verbose bool
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "mkcorpus FILE...",
		Short: "Build a {source}.{split}.jsonl corpus from documents",
		Long: `Extracts text from .docx, .pdf, .txt and .md files, cuts it into
fixed-size word windows and writes one {"text": ...} record per window to
{out}/{source}.{split}.jsonl, replacing any existing file.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.out, "out", ".", "output directory")
	flags.StringVar(&opts.source, "source", corpus.WebText, "source name of the records")
	flags.StringVar(&opts.split, "split", corpus.SplitTest, "split name (train, valid or test)")
	flags.IntVar(&opts.words, "words", 200, "words per record")
	flags.IntVar(&opts.overlap, "overlap", 0, "words shared by consecutive records")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mkcorpus: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, opts options, files []string) error {
	switch opts.split {
	case corpus.SplitTrain, corpus.SplitValid, corpus.SplitTest:
	default:
		return fmt.Errorf("unknown split %q", opts.split)
	}
	if opts.words <= 0 {
		return fmt.Errorf("--words must be positive")
	}

	logger, err := logging.New(opts.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	var records []string
	for _, path := range files {
		doc, err := corpus.ParseFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		segments := corpus.Segment(doc.Text, opts.words, opts.overlap)
		logger.Debug("document parsed", zap.String("path", path), zap.Int("records", len(segments)))
		records = append(records, segments...)
	}

	out := corpus.Path(opts.out, opts.source, opts.split)
	if err := corpus.WriteJSONL(out, records); err != nil {
		return err
	}
	logger.Info("corpus written",
		zap.String("path", out),
		zap.String("records", humanize.Comma(int64(len(records)))),
	)
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
