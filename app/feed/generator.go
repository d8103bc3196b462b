package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
)

type Generator struct {
	title   string
	baseURL string
	version string
}

func NewGenerator(title, baseURL, version string) *Generator {
	return &Generator{
		title:   title,
		baseURL: baseURL,
		version: version,
	}
}

// Run renders the collection as an RSS 2.0 document.
func (g *Generator) Run(c Collection) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", g.title, 4)
	g.writeElement(&buf, "link", g.baseURL, 4)

	description := "Latest stories"
	if c.Fallback {
		description = "Offline stories (live source unavailable)"
	}
	g.writeElement(&buf, "description", description, 4)

	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(g.baseURL+"/rss")))

	lastBuildDate := cmp.Or(c.LoadedAt, time.Now().UTC())
	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("Story-Feed/%s", g.version), 4)

	for _, story := range c.Stories {
		g.writeItem(&buf, story)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, story Story) {
	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte(strconv.Itoa(story.ID)))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", story.Headline, 6)
	g.writeElement(buf, "link", story.SourceURL, 6)
	g.writeElement(buf, "description", cmp.Or(story.Hook, story.Body, "No description available"), 6)

	if content := cmp.Or(story.DeepDive, story.Body); content != "" {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(strings.ReplaceAll(content, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></content:encoded>\n")
	}

	if !story.Timestamp.IsZero() {
		g.writeElement(buf, "pubDate", story.Timestamp.Format(time.RFC1123Z), 6)
	}

	g.writeElement(buf, "category", story.Category, 6)

	if image := story.ImageURL(""); image != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"image/jpeg\" />\n",
			html.EscapeString(image)))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
