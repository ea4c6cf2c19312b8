package controllers

import (
	"fmt"
	"strings"

	"github.com/papersync/papersync/internal/managers"
)

// renderSuccessPage builds the one-time page shown after the OAuth
// callback, with instructions for wiring up the Notion automation.
func renderSuccessPage(result managers.CallbackResult, baseURL string) string {
	databaseURL := "https://notion.so/" + strings.ReplaceAll(result.DatabaseID, "-", "")
	webhookURL := strings.TrimSuffix(baseURL, "/") + "/notion/webhook"

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Notion connected</title>
    <style>
      body {
        font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
        max-width: 800px;
        margin: 50px auto;
        padding: 20px;
        line-height: 1.6;
      }
      h1 { color: #2eaadc; }
      h2 { color: #333; margin-top: 30px; }
      code {
        background: #f4f4f4;
        padding: 2px 6px;
        border-radius: 3px;
        font-size: 0.9em;
      }
      pre {
        background: #f4f4f4;
        padding: 15px;
        border-radius: 5px;
        overflow-x: auto;
      }
      ol { padding-left: 20px; }
      li { margin: 10px 0; }
      a { color: #2eaadc; text-decoration: none; }
      a:hover { text-decoration: underline; }
    </style>
  </head>
  <body>
    <h1>&#9989; Workspace connected</h1>
    <p>
      Your papers database:
      <a href="%s" target="_blank">ArXiv Papers</a>
    </p>

    <h2>Next steps</h2>
    <p>
      Set up a Notion automation so paper metadata is filled in
      automatically whenever you paste an ArXiv URL.
    </p>

    <ol>
      <li>Open the database above in Notion</li>
      <li>Top right: &quot;...&quot; &rarr; &quot;Automations&quot; &rarr; &quot;New automation&quot;</li>
      <li>Trigger: &quot;When a page is updated&quot;</li>
      <li>Action: &quot;Send HTTP request&quot;</li>
      <li>URL: <code>%s</code></li>
      <li>Method: <code>POST</code></li>
      <li>Body: <pre>{{page}}</pre></li>
    </ol>

    <h2>Usage</h2>
    <ol>
      <li>Create a new page in the database</li>
      <li>
        Put an ArXiv URL in the Link property (e.g.
        <code>https://arxiv.org/abs/2301.12345</code>)
      </li>
      <li>The title, authors and summary appear a few seconds later</li>
    </ol>
  </body>
</html>`, databaseURL, webhookURL)
}
