/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/josephgoksu/VeriWing/internal/backend"
	appconfig "github.com/josephgoksu/VeriWing/internal/config"
	"github.com/josephgoksu/VeriWing/internal/git"
	"github.com/josephgoksu/VeriWing/internal/llm"
	"github.com/josephgoksu/VeriWing/internal/ui"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the local setup for verification runs",
	Long: `Doctor inspects the environment a verification run depends on: the
project directory, the backend registry, provider credentials, and git
availability for changed-files scope.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := GetConfig()
		problems := 0

		check := func(ok bool, label, detail string) {
			mark := ui.StyleSuccess.Render("ok")
			if !ok {
				mark = ui.StyleError.Render("missing")
				problems++
			}
			fmt.Printf("  %-28s %s", label, mark)
			if detail != "" {
				fmt.Printf("  %s", ui.StyleSubtle.Render(detail))
			}
			fmt.Println()
		}

		fmt.Println(ui.StyleTitle.Render("veriwing doctor"))

		info, err := os.Stat(cfg.Project.RootDir)
		check(err == nil && info.IsDir(), "project dir", cfg.Project.RootDir)

		backendsPath := cfg.Project.BackendsFile
		if !filepath.IsAbs(backendsPath) {
			backendsPath = filepath.Join(cfg.Project.RootDir, backendsPath)
		}
		registry, regErr := backend.LoadRegistry(afero.NewOsFs(), backendsPath)
		if regErr != nil {
			check(false, "backend registry", regErr.Error())
		} else {
			check(registry.Len() > 0, "backend registry", fmt.Sprintf("%d backend(s)", registry.Len()))
		}

		providers := map[string]bool{}
		if regErr == nil {
			for _, d := range registry.All() {
				providers[d.Provider] = true
			}
		}
		for _, p := range []string{llm.ProviderOpenAI, llm.ProviderAnthropic, llm.ProviderGemini} {
			if !providers[p] {
				continue
			}
			key := appconfig.ResolveAPIKey(cfg, llm.Provider(p))
			check(key != "", p+" API key", "")
		}
		if providers[llm.ProviderOllama] {
			url := cfg.LLM.OllamaURL
			if url == "" {
				url = llm.DefaultOllamaURL
			}
			check(true, "ollama endpoint", url)
		}

		wd, _ := os.Getwd()
		gc := git.NewClient(wd)
		if gc.IsRepository() {
			check(true, "git repository", "changed-files scope available")
		} else {
			fmt.Printf("  %-28s %s  %s\n", "git repository",
				ui.StyleWarning.Render("no"),
				ui.StyleSubtle.Render("changed-files scope will fail; use --scope all-files"))
		}

		if problems > 0 {
			fmt.Printf("\n%s\n", ui.StyleError.Render(fmt.Sprintf("%d problem(s) found", problems)))
			os.Exit(1)
		}
		fmt.Printf("\n%s\n", ui.StyleSuccess.Render("everything looks good"))
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
