package index

import (
	"bytes"
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// safeVars are environment variables that carry no secrets and help the model
// understand a script.
var safeVars = map[string]bool{
	"HOME": true, "USER": true, "PWD": true, "OLDPWD": true,
	"SHELL": true, "PATH": true, "LANG": true, "TERM": true,
	"EDITOR": true, "PAGER": true, "HOSTNAME": true, "LOGNAME": true,
	"TMPDIR": true, "XDG_CONFIG_HOME": true, "XDG_DATA_HOME": true,
	"XDG_RUNTIME_DIR": true, "GOPATH": true, "GOROOT": true,
	"COLUMNS": true, "LINES": true, "LC_ALL": true, "LC_CTYPE": true,
}

// specialParams are shell special parameters.
var specialParams = map[string]bool{
	"?": true, "!": true, "#": true, "@": true, "*": true,
	"-": true, "$": true, "_": true,
	"0": true, "1": true, "2": true, "3": true, "4": true,
	"5": true, "6": true, "7": true, "8": true, "9": true,
}

// shellLanguages are editor language ids whose documents get redacted.
var shellLanguages = map[string]bool{
	"shellscript": true, "bash": true, "sh": true, "zsh": true,
}

// IsShell reports whether languageID names a shell scripting language.
func IsShell(languageID string) bool {
	return shellLanguages[strings.ToLower(languageID)]
}

// RedactShell replaces expansions of non-safe variables with $REDACTED and the
// values of non-safe assignments with ***, array elements included. Scripts that fail to parse go
// through a regex fallback instead.
func RedactShell(script string) string {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash), syntax.KeepComments(true))
	prog, err := parser.Parse(strings.NewReader(script), "")
	if err != nil {
		return regexRedact(script)
	}

	syntax.Walk(prog, func(node syntax.Node) bool {
		switch n := node.(type) {
		case *syntax.ParamExp:
			if n.Param != nil && !safeVars[n.Param.Value] && !specialParams[n.Param.Value] {
				n.Param.Value = "REDACTED"
			}
		case *syntax.Assign:
			if n.Name == nil || safeVars[n.Name.Value] {
				break
			}
			if n.Value != nil {
				n.Value.Parts = redactedParts()
			}
			if n.Array != nil {
				for _, elem := range n.Array.Elems {
					if elem.Value != nil {
						elem.Value.Parts = redactedParts()
					}
				}
			}
		}
		return true
	})

	var buf bytes.Buffer
	if err := syntax.NewPrinter(syntax.Indent(0)).Print(&buf, prog); err != nil {
		return regexRedact(script)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func redactedParts() []syntax.WordPart {
	return []syntax.WordPart{&syntax.Lit{Value: "***"}}
}

var (
	reBraceVar  = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
	reSimpleVar = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	reArray     = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)=\([^)]*\)`)
	reAssign    = regexp.MustCompile(`\b([A-Za-z_][A-Za-z0-9_]*)=(\S+)`)
)

func regexRedact(script string) string {
	script = reBraceVar.ReplaceAllStringFunc(script, func(m string) string {
		name := reBraceVar.FindStringSubmatch(m)[1]
		if safeVars[name] || specialParams[name] {
			return m
		}
		return "${REDACTED}"
	})

	script = reSimpleVar.ReplaceAllStringFunc(script, func(m string) string {
		name := reSimpleVar.FindStringSubmatch(m)[1]
		if name == "REDACTED" || safeVars[name] || specialParams[name] {
			return m
		}
		return "$REDACTED"
	})

	script = reArray.ReplaceAllStringFunc(script, func(m string) string {
		name := reArray.FindStringSubmatch(m)[1]
		if safeVars[name] {
			return m
		}
		return name + "=(***)"
	})

	return reAssign.ReplaceAllStringFunc(script, func(m string) string {
		sub := reAssign.FindStringSubmatch(m)
		if safeVars[sub[1]] || sub[2] == "(***)" {
			return m
		}
		return sub[1] + "=***"
	})
}
