package firewall

import (
	"embed"
	"text/template"

	"github.com/groundwork-dev/groundwork/internal/strutil"
)

//go:embed scripts/*.sh.tmpl
var firewallScriptsFS embed.FS

var firewallScriptTemplates = template.Must(template.New("firewall").Funcs(template.FuncMap{
	"shellEscape": strutil.ShellEscape,
}).Option("missingkey=error").ParseFS(firewallScriptsFS, "scripts/*.sh.tmpl"))
