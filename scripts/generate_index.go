// Command generate_index renders README.md into the index.html published
// next to the release archives, replacing the Installation section with a
// download table for the archives found in the dist directory.
package main

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

const binary = "jsonlv"

// platform maps an archive name fragment to a display name.
type platform struct {
	fragment string
	label    string
}

var platforms = []platform{
	{"Darwin_arm64", "macOS (Apple Silicon)"},
	{"Darwin_x86_64", "macOS (Intel)"},
	{"Linux_arm64", "Linux (ARM64)"},
	{"Linux_x86_64", "Linux (x86_64)"},
	{"Windows_arm64", "Windows (ARM64)"},
	{"Windows_x86_64", "Windows (x86_64)"},
}

var archivePattern = regexp.MustCompile(`^` + binary + `_(.+)_(Darwin|Linux|Windows)_(arm64|x86_64)\.(tar\.gz|zip)$`)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <dist-dir>\n", os.Args[0])
		os.Exit(1)
	}
	distDir := os.Args[1]

	readme, err := os.ReadFile("README.md")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading README.md: %v\n", err)
		os.Exit(1)
	}
	entries, err := os.ReadDir(distDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", distDir, err)
		os.Exit(1)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}

	page, err := renderIndex(readme, names)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering index: %v\n", err)
		os.Exit(1)
	}
	indexPath := filepath.Join(distDir, "index.html")
	if err := os.WriteFile(indexPath, page, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", indexPath, err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "Generated %s\n", indexPath)
}

// download is one row of the download table.
type download struct {
	Label   string
	Archive string
}

// collectDownloads returns the release version and one archive per known
// platform, in platform order.
func collectDownloads(names []string) (string, []download) {
	version := "unknown"
	byFragment := map[string]string{}
	for _, name := range names {
		m := archivePattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		version = m[1]
		key := m[2] + "_" + m[3]
		if _, seen := byFragment[key]; !seen {
			byFragment[key] = name
		}
	}
	var out []download
	for _, p := range platforms {
		if archive, ok := byFragment[p.fragment]; ok {
			out = append(out, download{Label: p.label, Archive: archive})
		}
	}
	return version, out
}

func markdownToHTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return markdown.Render(p.Parse(md), renderer)
}

var installTmpl = template.Must(template.New("install").Parse(`<h2 id="installation">Installation</h2>
<div class="downloads">
  <h3>{{.Version}}</h3>
  <table class="download-table">
{{- range .Downloads}}
    <tr><td class="platform-name">{{.Label}}</td><td><a href="{{.Archive}}">download</a></td></tr>
{{- end}}
  </table>
</div>
<p>Extract the archive and put <code>{{.Binary}}</code> on your PATH:</p>
<pre><code class="language-bash">tar -xzf {{.Binary}}_*.tar.gz
sudo mv {{.Binary}} /usr/local/bin/
</code></pre>
`))

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Binary}} - JSON Lines viewer</title>
  <style>
    body { font-family: system-ui, sans-serif; max-width: 900px; margin: 40px auto; padding: 0 20px; line-height: 1.6; color: #333; }
    h1 { color: #0f766e; border-bottom: 2px solid #0f766e; padding-bottom: 10px; }
    code { background: #f1f5f9; padding: 2px 6px; border-radius: 3px; font-family: Menlo, monospace; }
    pre { background: #1e293b; color: #e2e8f0; padding: 16px; border-radius: 6px; overflow-x: auto; }
    pre code { background: none; color: inherit; padding: 0; }
    .downloads { background: #f0fdfa; padding: 20px; border-radius: 8px; border-left: 4px solid #0f766e; }
    .download-table td { padding: 6px 8px; }
    .platform-name { font-weight: 500; width: 200px; }
  </style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// renderIndex converts readme to a full HTML page. When the README has an
// Installation section it is replaced by the download table.
func renderIndex(readme []byte, distNames []string) ([]byte, error) {
	body := string(markdownToHTML(readme))

	version, downloads := collectDownloads(distNames)
	var install bytes.Buffer
	err := installTmpl.Execute(&install, map[string]any{
		"Version":   version,
		"Downloads": downloads,
		"Binary":    binary,
	})
	if err != nil {
		return nil, err
	}
	body = replaceSection(body, "installation", install.String())

	var page bytes.Buffer
	err = pageTmpl.Execute(&page, map[string]any{
		"Binary": binary,
		"Body":   template.HTML(body),
	})
	return page.Bytes(), err
}

// replaceSection swaps the h2 with the given id, and everything up to the
// next h2, for replacement. Bodies without that heading are returned as is.
func replaceSection(body, id, replacement string) string {
	start := strings.Index(body, `<h2 id="`+id+`">`)
	if start == -1 {
		return body
	}
	rest := body[start+1:]
	end := strings.Index(rest, `<h2 id="`)
	if end == -1 {
		return body[:start] + replacement
	}
	return body[:start] + replacement + rest[end:]
}
