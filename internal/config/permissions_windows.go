//go:build windows

package config

import (
	"os"
	"os/exec"
)

// checkFilePermissions asks icacls for the file's ACL and warns when a
// broad group such as Everyone or BUILTIN\Users may read it.
func checkFilePermissions(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	out, err := exec.Command("icacls", path).Output()
	if err != nil {
		return ""
	}
	principal := broadReadGrant(path, string(out))
	if principal == "" {
		return ""
	}
	return insecureWarning(path, "readable by "+principal,
		`icacls "`+path+`" /inheritance:r /grant:r "%USERNAME%:F"`)
}
