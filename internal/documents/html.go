package documents

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// HTMLToMarkdown converts a fetched web page to Markdown so it can be read
// as a notes file. sourceURL resolves relative links.
func HTMLToMarkdown(html []byte, sourceURL string) ([]byte, error) {
	var opts []converter.ConvertOptionFunc
	if sourceURL != "" {
		opts = append(opts, converter.WithDomain(sourceURL))
	}
	md, err := mdConverter.ConvertString(string(html), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to convert HTML: %w", err)
	}
	md = strings.TrimSpace(md)
	if md == "" {
		return nil, errors.New("HTML page has no readable content")
	}
	return []byte(md + "\n"), nil
}
