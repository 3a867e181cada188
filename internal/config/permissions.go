package config

import (
	"fmt"
	"strings"
)

// broadPrincipals are Windows accounts that cover every local or domain user.
var broadPrincipals = map[string]bool{
	"everyone":                          true,
	"users":                             true,
	"builtin\\users":                    true,
	"authenticated users":               true,
	"nt authority\\authenticated users": true,
}

// readRights are icacls access masks that include read access to file data.
var readRights = map[string]bool{"f": true, "m": true, "rx": true, "r": true, "gr": true, "ga": true}

// insecureWarning formats the message shown when credentials may leak.
func insecureWarning(path, detail, fix string) string {
	return fmt.Sprintf(
		"WARNING: Config file '%s' has insecure permissions (%s)\n"+
			"         Other users may be able to read the archive database credentials.\n"+
			"         Run: %s\n\n",
		path, detail, fix,
	)
}

// broadReadGrant scans icacls output for path and returns the first broad
// principal holding an allow entry with read access, or "" if there is none.
func broadReadGrant(path, output string) string {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, path))

		idx := strings.Index(line, ":(")
		if idx < 0 {
			continue
		}
		principal := strings.ToLower(strings.TrimSpace(line[:idx]))
		if !broadPrincipals[principal] {
			continue
		}

		canRead, denied := false, false
		for _, group := range strings.Split(strings.Trim(line[idx+1:], "()"), ")(") {
			group = strings.ToLower(group)
			switch {
			case group == "deny":
				denied = true
			case readRights[group]:
				canRead = true
			}
		}
		if canRead && !denied {
			return line[:idx]
		}
	}
	return ""
}
