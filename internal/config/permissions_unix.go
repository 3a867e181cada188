//go:build unix

package config

import (
	"fmt"
	"os"
)

// checkFilePermissions returns a warning if the config file is readable by
// group or others. The file may hold database passwords or DSNs.
func checkFilePermissions(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}

	mode := info.Mode().Perm()
	if mode&0077 == 0 {
		return ""
	}
	return insecureWarning(path, fmt.Sprintf("%04o", mode), "chmod 600 "+path)
}
