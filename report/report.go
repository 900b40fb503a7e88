// Package report renders a generated idea report as Markdown or a standalone
// HTML page for download and printing.
package report

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/jcy998/SP-idear/generator"
)

const DefaultTitle = "水平思维创意解决方案报告"

// Document is a report plus the context it was generated for.
type Document struct {
	Title       string
	Category    string
	Subcategory string
	Problem     string
	GeneratedAt time.Time
	Report      generator.GenerationResponse
}

// 模型常在方法名前自带序号（如 "6. 反转法"），渲染时统一由我们编号。
var methodNumberRe = regexp.MustCompile(`^\d+\.\s*`)

// MethodTitle strips a leading "N. " from a method name.
func MethodTitle(name string) string {
	return methodNumberRe.ReplaceAllString(strings.TrimSpace(name), "")
}

// Markdown renders the document.
func Markdown(doc Document) string {
	title := doc.Title
	if title == "" {
		title = DefaultTitle
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("- **挑战领域:** %s - %s\n", doc.Category, doc.Subcategory))
	sb.WriteString(fmt.Sprintf("- **核心难题:** %s\n", oneLine(doc.Problem)))
	if !doc.GeneratedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("- **生成时间:** %s\n", doc.GeneratedAt.Format("2006-01-02 15:04:05")))
	}
	sb.WriteString("\n")

	for i, sec := range doc.Report.Sections {
		sb.WriteString(fmt.Sprintf("## %d. %s\n\n", i+1, MethodTitle(sec.MethodName)))
		if sec.MethodSummary != "" {
			sb.WriteString(fmt.Sprintf("> %s\n\n", oneLine(sec.MethodSummary)))
		}
		for j, idea := range sec.Ideas {
			sb.WriteString(fmt.Sprintf("%d. **%s**  \n   %s\n", j+1, oneLine(idea.Title), oneLine(idea.Description)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// HTML renders the document as a standalone page. Raw HTML from the model is
// not passed through (goldmark's default).
func HTML(doc Document) (string, error) {
	body, err := mdToHTML(Markdown(doc))
	if err != nil {
		return "", err
	}
	title := doc.Title
	if title == "" {
		title = DefaultTitle
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"zh-CN\">\n<head>\n<meta charset=\"utf-8\">\n")
	b.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(title)))
	b.WriteString("<style>" + pageStyle + "</style>\n</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// oneLine 把多行文本压成一行，避免破坏列表和引用块结构。
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

const pageStyle = `body{max-width:860px;margin:2em auto;padding:0 1em;font-family:-apple-system,"PingFang SC","Microsoft YaHei",sans-serif;color:#1e293b;line-height:1.7}
h1{border-bottom:1px solid #e2e8f0;padding-bottom:.5em}
h2{color:#4338ca;margin-top:2em;page-break-after:avoid}
blockquote{color:#64748b;border-left:3px solid #c7d2fe;margin:0;padding-left:1em}
li{margin-bottom:.6em;page-break-inside:avoid}`
