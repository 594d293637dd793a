package listing

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/use-agent/pastpapers/models"
)

// csvHeader is the fixed column order of CSV exports.
var csvHeader = []string{"title", "url", "description", "image"}

// WriteJSON writes papers as a 2-space indented array without escaping
// HTML characters or non-ASCII text.
func WriteJSON(w io.Writer, papers []models.Paper) error {
	if papers == nil {
		papers = []models.Paper{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(papers)
}

// WriteCSV writes a header row and one row per paper. Nothing is written
// when papers is empty.
func WriteCSV(w io.Writer, papers []models.Paper) error {
	if len(papers) == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range papers {
		if err := cw.Write([]string{p.Title, p.URL, p.Description, p.Image}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMarkdown writes a titled table report of papers.
func WriteMarkdown(w io.Writer, title string, papers []models.Paper) error {
	md := markdown.NewMarkdown(w)
	md.H1(title)
	md.PlainText("")
	md.PlainTextf("Total papers: %d", len(papers))
	md.PlainText("")

	if len(papers) > 0 {
		rows := make([][]string, 0, len(papers))
		for i, p := range papers {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				markdown.Link(cell(p.Title), p.URL),
				cell(p.Description),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"#", "Title", "Description"},
			Rows:   rows,
		})
	}
	return md.Build()
}

// cell keeps a value from breaking the table layout.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// Export writes papers to path in the format named by its extension
// (.json, .csv or .md). A CSV export of no papers creates no file.
func Export(path string, papers []models.Paper) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".csv" && len(papers) == 0 {
		return nil
	}

	var write func(io.Writer) error
	switch ext {
	case ".json":
		write = func(w io.Writer) error { return WriteJSON(w, papers) }
	case ".csv":
		write = func(w io.Writer) error { return WriteCSV(w, papers) }
	case ".md", ".markdown":
		write = func(w io.Writer) error { return WriteMarkdown(w, "Past Papers", papers) }
	default:
		return models.NewPaperError(models.ErrCodeInvalidInput, fmt.Sprintf("unsupported export format %q", ext), nil)
	}

	f, err := os.Create(path)
	if err != nil {
		return models.NewPaperError(models.ErrCodeStorage, "failed to create export file", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return models.NewPaperError(models.ErrCodeStorage, "failed to write export file", err)
	}
	if err := f.Close(); err != nil {
		return models.NewPaperError(models.ErrCodeStorage, "failed to close export file", err)
	}
	return nil
}
