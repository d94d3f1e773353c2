// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textget

import (
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// HTMLTypes are the link types Text falls back to, in order of preference,
// when a work has no plain text link.
var HTMLTypes = []string{
	"text/html; charset=utf-8",
	"text/html",
}

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// htmlToText renders an HTML edition as Markdown. Relative links resolve
// against link.
func htmlToText(html, link string) (string, error) {
	md, err := mdConverter.ConvertString(html, converter.WithDomain(link))
	if err != nil {
		return "", fmt.Errorf("%w: converting %s: %w", ErrUnreadableHTML, link, err)
	}
	return md, nil
}
