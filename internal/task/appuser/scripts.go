package appuser

import (
	"embed"
	"text/template"

	"github.com/groundwork-dev/groundwork/internal/strutil"
)

//go:embed scripts/*.sh.tmpl
var appuserScriptsFS embed.FS

var appuserScriptTemplates = template.Must(template.New("appuser").Funcs(template.FuncMap{
	"shellEscape": strutil.ShellEscape,
}).Option("missingkey=error").ParseFS(appuserScriptsFS, "scripts/*.sh.tmpl"))
