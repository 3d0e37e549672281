// Package guide holds the post-generation setup instructions shown by every
// surface.
package guide

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

// Step is one instruction. Code and URL are optional.
type Step struct {
	Text string `json:"text"`
	Code string `json:"code,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Section is a numbered group of steps.
type Section struct {
	Title   string `json:"title"`
	Ordered bool   `json:"ordered"`
	Steps   []Step `json:"steps"`
}

// Guide is the full setup guide.
type Guide struct {
	Title    string    `json:"title"`
	Intro    string    `json:"intro"`
	Sections []Section `json:"sections"`
}

// RedirectURI is the OAuth callback of a local n8n instance.
const RedirectURI = "http://localhost:5678/rest/oauth2-credential/callback"

// SheetHeaders are the columns the Save node appends.
const SheetHeaders = "Title, URL, Author, Content, Date"

// Default returns the setup guide. Each call returns a fresh copy.
func Default() Guide {
	return Guide{
		Title: "Implementation Guide",
		Intro: "Follow these steps to get your automation running in 15 minutes.",
		Sections: []Section{
			{
				Title:   "Reddit API Credentials",
				Ordered: true,
				Steps: []Step{
					{Text: "Go to Reddit Apps Preferences.", URL: "https://www.reddit.com/prefs/apps"},
					{Text: "Click \"Create Another App...\" at the bottom."},
					{Text: "Select \"script\" (personal use)."},
					{Text: "Name it (e.g., \"n8n-scraper\")."},
					{Text: "For redirect URI use the local n8n callback, or your cloud URL.", Code: RedirectURI},
					{Text: "Copy the Client ID (under the name) and the Client Secret."},
					{Text: "In n8n, create a \"Reddit OAuth2 API\" credential using these keys."},
				},
			},
			{
				Title:   "Google Sheets Setup",
				Ordered: true,
				Steps: []Step{
					{Text: "Create a new Google Sheet."},
					{Text: "Add headers in Row 1.", Code: SheetHeaders},
					{Text: "In n8n, create a \"Google Sheets OAuth2 API\" credential."},
					{Text: "You will need a Google Cloud Project with the Sheets API enabled."},
					{Text: "For quick testing, make the sheet public (not for sensitive data) or use a Service Account."},
				},
			},
			{
				Title: "Import Workflow",
				Steps: []Step{
					{Text: "Copy the generated JSON."},
					{Text: "Open your n8n dashboard."},
					{Text: "Paste anywhere on the canvas to add the nodes.", Code: "Ctrl + V / Cmd + V"},
					{Text: "Or use the menu: Workflow > Import from File/JSON."},
				},
			},
			{
				Title: "Activate & Run",
				Steps: []Step{
					{Text: "Double-click the Reddit Search node and select your credential."},
					{Text: "Double-click the Google Sheets nodes and select your credential."},
					{Text: "Paste your Google Sheet URL into the 'Spreadsheet ID' field (or use the ID)."},
					{Text: "Toggle the workflow to Active in the top right."},
					{Text: "Enjoy your automated leads!"},
				},
			},
		},
	}
}

// WriteText renders g as plain text.
func WriteText(w io.Writer, g Guide) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n", g.Title, strings.Repeat("=", len(g.Title)))
	if g.Intro != "" {
		fmt.Fprintf(&b, "%s\n", g.Intro)
	}
	for i, s := range g.Sections {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, s.Title)
		for j, st := range s.Steps {
			bullet := "-"
			if s.Ordered {
				bullet = fmt.Sprintf("%d)", j+1)
			}
			fmt.Fprintf(&b, "   %s %s\n", bullet, st.Text)
			if st.URL != "" {
				fmt.Fprintf(&b, "      %s\n", st.URL)
			}
			if st.Code != "" {
				fmt.Fprintf(&b, "      %s\n", st.Code)
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Text renders g as plain text.
func Text(g Guide) string {
	var buf bytes.Buffer
	_ = WriteText(&buf, g)
	return buf.String()
}

//go:embed guide.html
var htmlSource string

var htmlTemplate = template.Must(template.New("guide").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	Parse(htmlSource))

// HTML renders g as a trusted HTML fragment for embedding in other pages.
func HTML(g Guide) (template.HTML, error) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, g); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// WriteHTML renders g as an HTML fragment.
func WriteHTML(w io.Writer, g Guide) error {
	return htmlTemplate.Execute(w, g)
}
