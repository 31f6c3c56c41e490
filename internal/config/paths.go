package config

import (
	"os"
	"path/filepath"
)

// GetGlobalConfigDir returns the path to the global configuration
// directory (~/.veriwing). It's a variable to allow overriding in tests.
var GetGlobalConfigDir = func() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".veriwing"), nil
}

// ProjectPaths resolves the per-project artifact locations under the
// configured root dir (default ".veriwing").
type ProjectPaths struct {
	RootDir     string
	ReportPath  string
	StagingDir  string
	BackupsDir  string
	HistoryFile string
}

// ResolveProjectPaths joins relative artifact paths onto the root dir;
// absolute paths pass through untouched.
func ResolveProjectPaths(rootDir, reportPath, stagingDir, backupsDir, historyFile string) ProjectPaths {
	join := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(rootDir, p)
	}
	return ProjectPaths{
		RootDir:     rootDir,
		ReportPath:  join(reportPath),
		StagingDir:  join(stagingDir),
		BackupsDir:  join(backupsDir),
		HistoryFile: join(historyFile),
	}
}
