package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/jjfwang/aceceed-edge/rag"
	"github.com/jjfwang/aceceed-edge/rag/loader"
)

// indexOptions index 子命令参数，除 source-type 外全部必填
type indexOptions struct {
	InputDir   string
	OutputFile string
	Subject    string
	GradeBand  string
	Topic      string
	SourceID   string
	SourceType string
}

func parseIndexFlags(args []string, stderr io.Writer) (indexOptions, error) {
	var opts indexOptions
	fs := flag.NewFlagSet("index", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.InputDir, "i", "", "Directory containing .txt files to process")
	fs.StringVar(&opts.OutputFile, "o", "", "Path to write the output JSON file")
	fs.StringVar(&opts.Subject, "s", "", "Subject for this dataset (e.g. mathematics)")
	fs.StringVar(&opts.GradeBand, "g", "", "Grade band: "+strings.Join(rag.GradeBands, ", "))
	fs.StringVar(&opts.Topic, "t", "", "Topic for this dataset (e.g. algebra)")
	fs.StringVar(&opts.SourceID, "source-id", "", "Unique identifier for the source document set")
	fs.StringVar(&opts.SourceType, "source-type", rag.DefaultSourceType, "Source type tag written to every chunk")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"-i", opts.InputDir},
		{"-o", opts.OutputFile},
		{"-s", opts.Subject},
		{"-g", opts.GradeBand},
		{"-t", opts.Topic},
		{"--source-id", opts.SourceID},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return opts, fmt.Errorf("missing required options: %s", strings.Join(missing, ", "))
	}
	if !rag.ValidGradeBand(opts.GradeBand) {
		return opts, fmt.Errorf("invalid grade band %q, must be one of: %s", opts.GradeBand, strings.Join(rag.GradeBands, ", "))
	}
	return opts, nil
}

// buildIndex 读取目录下的 .txt 文件，按段落切分后写出索引，返回片段数
func buildIndex(ctx context.Context, opts indexOptions, out io.Writer) (int, error) {
	fmt.Fprintf(out, "Processing files from: %s\n", opts.InputDir)

	docs, err := loader.NewLoaderRegistry().LoadDir(ctx, opts.InputDir, ".txt")
	if err != nil {
		return 0, err
	}

	chunker := rag.NewChunker(rag.ChunkMeta{
		SourceID:   opts.SourceID,
		GradeBand:  opts.GradeBand,
		Subject:    opts.Subject,
		Topic:      opts.Topic,
		SourceType: opts.SourceType,
	})
	var chunks []rag.Chunk
	for _, doc := range docs {
		fmt.Fprintf(out, "Processing file: %s\n", doc.Path)
		chunks = append(chunks, chunker.Split(doc)...)
	}

	if err := rag.WriteIndex(opts.OutputFile, chunks); err != nil {
		return 0, err
	}
	fmt.Fprintf(out, "Created RAG index with %d chunks at: %s\n", len(chunks), opts.OutputFile)
	return len(chunks), nil
}

func runIndex(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseIndexFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	if _, err := buildIndex(ctx, opts, stdout); err != nil {
		fmt.Fprintf(stderr, "Error during processing: %v\n", err)
		return 1
	}
	return 0
}
