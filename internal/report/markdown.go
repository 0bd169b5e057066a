package report

import (
	"bytes"
	"fmt"
	"io"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"

	"github.com/law-makers/uniscrape/internal/pipeline"
	urlutil "github.com/law-makers/uniscrape/internal/utils/url"
)

// Markdown renders the programs page and converts it to GitHub-flavored
// Markdown. Relative links resolve against the institution website.
func Markdown(w io.Writer, rep *pipeline.Report) error {
	var buf bytes.Buffer
	if err := HTML(&buf, rep); err != nil {
		return err
	}

	cleaned, err := CleanHTML(buf.String())
	if err != nil {
		return err
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	converter.AddRules(md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			href, exists := selec.Attr("href")
			if !exists {
				return nil
			}
			str := fmt.Sprintf("[%s](%s)", selec.Text(), urlutil.ResolveURL(rep.Institution.Website, href))
			return &str
		},
	})

	out, err := converter.ConvertString(cleaned)
	if err != nil {
		return fmt.Errorf("failed to convert report to markdown: %w", err)
	}
	_, err = io.WriteString(w, out+"\n")
	return err
}
