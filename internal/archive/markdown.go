package archive

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	multiNewlinePattern = regexp.MustCompile(`\n{3,}`)
	multiSpacePattern   = regexp.MustCompile(`[ \t]+`)
	whitespacePattern   = regexp.MustCompile(`\s+`)
)

// maxDepth bounds recursion. Below it, subtrees are emitted as plain text.
const maxDepth = 512

// Elements that never carry readable content. The preheader span is hidden
// in the rendered email and duplicated in the metadata header.
const skipSelector = "head, script, style, noscript, iframe, svg, title, .mcnPreviewText, [style*='display:none'], [style*='display: none']"

// HTMLToMarkdown converts a campaign body into readable markdown. Headings,
// paragraphs, lists, emphasis, links and image alt text are kept; layout
// tables are flattened into blocks.
func HTMLToMarkdown(src string) (string, error) {
	if strings.TrimSpace(src) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}
	doc.Find(skipSelector).Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var sb strings.Builder
	writeChildren(&sb, root, 0)
	return cleanMarkdown(sb.String()), nil
}

func writeChildren(sb *strings.Builder, s *goquery.Selection, depth int) {
	s.Contents().Each(func(_ int, child *goquery.Selection) {
		writeNode(sb, child, depth)
	})
}

func writeNode(sb *strings.Builder, s *goquery.Selection, depth int) {
	if depth > maxDepth {
		if text := whitespacePattern.ReplaceAllString(s.Text(), " "); strings.TrimSpace(text) != "" {
			sb.WriteString(text)
		}
		return
	}

	name := goquery.NodeName(s)
	switch name {
	case "#text":
		if text := whitespacePattern.ReplaceAllString(s.Text(), " "); strings.TrimSpace(text) != "" {
			sb.WriteString(text)
		}
		return
	case "#comment", "#document":
		return
	case "br":
		sb.WriteString("  \n")
		return
	case "hr":
		sb.WriteString("\n\n---\n\n")
		return
	case "img":
		if alt := strings.TrimSpace(s.AttrOr("alt", "")); alt != "" {
			src := s.AttrOr("src", "")
			sb.WriteString(fmt.Sprintf("![%s](%s)", alt, src))
		}
		return
	case "a":
		text := strings.TrimSpace(inline(s, depth))
		href := strings.TrimSpace(s.AttrOr("href", ""))
		switch {
		case text == "":
		case href == "" || strings.HasPrefix(href, "#") || strings.Contains(href, "*|"):
			sb.WriteString(text)
		default:
			sb.WriteString(fmt.Sprintf("[%s](%s)", text, href))
		}
		return
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(name[1] - '0')
		text := strings.TrimSpace(inline(s, depth))
		if text != "" {
			sb.WriteString("\n\n" + strings.Repeat("#", level) + " " + text + "\n\n")
		}
		return
	case "strong", "b":
		wrap(sb, s, depth, "**")
		return
	case "em", "i":
		wrap(sb, s, depth, "*")
		return
	case "code":
		wrap(sb, s, depth, "`")
		return
	case "pre":
		sb.WriteString("\n\n```\n" + strings.TrimSpace(s.Text()) + "\n```\n\n")
		return
	case "li":
		sb.WriteString("\n- ")
		writeChildren(sb, s, depth+1)
		return
	case "blockquote":
		text := strings.TrimSpace(cleanMarkdown(inline(s, depth)))
		if text != "" {
			sb.WriteString("\n\n> " + strings.ReplaceAll(text, "\n", "\n> ") + "\n\n")
		}
		return
	case "p", "div", "table", "tr", "td", "th", "section", "article", "ul", "ol", "center":
		sb.WriteString("\n\n")
		writeChildren(sb, s, depth+1)
		sb.WriteString("\n\n")
		return
	}

	writeChildren(sb, s, depth+1)
}

func inline(s *goquery.Selection, depth int) string {
	var sb strings.Builder
	writeChildren(&sb, s, depth+1)
	return sb.String()
}

func wrap(sb *strings.Builder, s *goquery.Selection, depth int, marker string) {
	text := inline(s, depth)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		sb.WriteString(text)
		return
	}
	if strings.HasPrefix(text, " ") {
		sb.WriteString(" ")
	}
	sb.WriteString(marker + trimmed + marker)
	if strings.HasSuffix(text, " ") {
		sb.WriteString(" ")
	}
}

// cleanMarkdown collapses blank runs and trims each line, keeping the
// two-space hard break markdown uses for <br>.
func cleanMarkdown(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		hardBreak := strings.HasSuffix(line, "  ") && strings.TrimSpace(line) != ""
		line = strings.TrimSpace(multiSpacePattern.ReplaceAllString(line, " "))
		if hardBreak {
			line += "  "
		}
		lines[i] = line
	}
	s = strings.Join(lines, "\n")
	s = multiNewlinePattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
