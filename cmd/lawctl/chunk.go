package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgallion1/lawdesk/internal/chunker"
	"github.com/dgallion1/lawdesk/internal/parser"
	"github.com/dgallion1/lawdesk/internal/pipeline"
	"github.com/dgallion1/lawdesk/internal/statute"
	"github.com/dgallion1/lawdesk/internal/textnorm"
)

var (
	chunkCategory string
	chunkMarkers  []string
	chunkJSON     bool
)

var chunkCmd = &cobra.Command{
	Use:   "chunk [file]",
	Short: "Split one statute file into article chunks",
	Long: `Extracts the text of a statute file, normalizes it and prints the
article chunks the loader would index, along with rejected article starts.`,
	Args: cobra.ExactArgs(1),
	RunE: runChunk,
}

func init() {
	chunkCmd.Flags().StringVarP(&chunkCategory, "category", "c", "", "category recorded on each chunk")
	chunkCmd.Flags().StringSliceVar(&chunkMarkers, "markers", []string{"국가법령정보센터", "법제처"}, "page header/footer markers to strip")
	chunkCmd.Flags().BoolVar(&chunkJSON, "json", false, "output chunks as JSON")
	rootCmd.AddCommand(chunkCmd)
}

type chunkOutput struct {
	File          string              `json:"file"`
	LawName       string              `json:"law_name"`
	ArticleStarts int                 `json:"article_starts"`
	References    int                 `json:"references"`
	Chunks        []statute.Chunk     `json:"chunks"`
	Rejected      []chunker.Rejection `json:"rejected,omitempty"`
}

func runChunk(cmd *cobra.Command, args []string) error {
	path := args[0]
	log := newLogger(cmd)
	out := cmd.OutOrStdout()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	raw, err := parser.ExtractText(f, path, parser.Options{PDFFallbackPdftotext: true})
	if err != nil {
		return fmt.Errorf("extract %s: %w", path, err)
	}
	text := textnorm.New(chunkMarkers...).Normalize(raw)
	res := chunker.New(chunker.DefaultConfig(), log).Analyze(text, filepath.Base(path), chunkCategory)

	ids := pipeline.NewIDAssigner()
	for i, c := range res.Chunks {
		res.Chunks[i] = c.WithID(ids.Next(c.Category))
	}

	if chunkJSON {
		data, err := json.MarshalIndent(chunkOutput{
			File:          path,
			LawName:       res.LawName,
			ArticleStarts: res.ArticleStarts,
			References:    res.References,
			Chunks:        res.Chunks,
			Rejected:      res.Rejected,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal chunks: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "%s: %s\n", filepath.Base(path), res.LawName)
	fmt.Fprintf(out, "  articles: %d  references: %d  chunks: %d  rejected: %d\n",
		res.ArticleStarts, res.References, len(res.Chunks), len(res.Rejected))
	fmt.Fprintln(out)
	for _, c := range res.Chunks {
		fmt.Fprintf(out, "  [%s] %s\n", c.ID, c.Header())
		if c.ChapterTitle != "" {
			fmt.Fprintf(out, "      Chapter: %s\n", c.ChapterTitle)
		}
		fmt.Fprintf(out, "      %s\n", c.Preview(80))
	}
	for _, r := range res.Rejected {
		fmt.Fprintf(out, "  rejected %s at %d: %v\n", r.ArticleNumber, r.Offset, r.Reasons)
	}
	return nil
}
