package emails

import (
	"fmt"
	"html"
	"time"
)

const (
	themePrimary = "#2563EB"
	themeText    = "#1F2937"
	themeMuted   = "#6B7280"
	themeBody    = "#F3F4F6"
)

// EmailLayout wraps content in the shared HTML frame.
func EmailLayout(contentHTML string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>TaskDesk</title>
  <style>
    body { margin: 0; padding: 0; background-color: %s; font-family: -apple-system, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: %s; }
    .container { width: 600px; max-width: 100%%; margin: 40px auto; background: #FFFFFF; border-radius: 8px; padding: 40px 48px; }
    h1 { font-size: 22px; margin-top: 0; }
    p { font-size: 16px; line-height: 1.6; }
    .button { display: inline-block; background-color: %s; color: #FFFFFF !important; padding: 12px 32px; border-radius: 6px; text-decoration: none; font-weight: 600; }
    .muted, .footer { color: %s; font-size: 13px; }
  </style>
</head>
<body>
  <div class="container">%s
    <p class="footer">&copy; %d TaskDesk</p>
  </div>
</body>
</html>`, themeBody, themeText, themePrimary, themeMuted, contentHTML, time.Now().Year())
}

// EscapeHTML escapes HTML specials for safe interpolation.
func EscapeHTML(s string) string {
	return html.EscapeString(s)
}
