package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"
)

// Config mirrors docs/templates/fleetctl.yaml: one entry per subcommand plus
// the flag set every command shares.
type Config struct {
	Subcommands []Subcommand `yaml:"subcommands"`
	Common      Common       `yaml:"common"`
}

type Common struct {
	Flags []Flag `yaml:"flags"`
}

type Subcommand struct {
	ID          string    `yaml:"id"`
	Short       string    `yaml:"short"`
	Description string    `yaml:"description"`
	Usage       string    `yaml:"usage"`
	Flags       []Flag    `yaml:"flags"`
	Examples    []Example `yaml:"examples"`
	Notes       []string  `yaml:"notes,omitempty"`
}

type Flag struct {
	ID          string `yaml:"id"`
	Syntax      string `yaml:"syntax"`
	Description string `yaml:"description"`
	Default     string `yaml:"default,omitempty"`
	More        string `yaml:"more,omitempty"`
}

type Example struct {
	Command     string `yaml:"command"`
	Description string `yaml:"description"`
}

type TemplateData struct {
	Subcommand
	Date    string
	Version string
	IDUpper string
}

// Output is one render target for a subcommand.
type Output struct {
	Template string
	Folder   string
	Prefix   string
	Suffix   string
}

func main() {
	docs := os.Args[1]

	raw, err := os.ReadFile(filepath.Join(docs, "templates", "fleetctl.yaml"))
	if err != nil {
		panic(err)
	}

	var config Config
	if err := yaml.Unmarshal(raw, &config); err != nil {
		panic(err)
	}

	version := getVersion()
	date := time.Now().Format("January 2, 2006")

	for _, sub := range config.Subcommands {
		sub.Flags = mergeFlags(config.Common.Flags, sub.Flags)

		data := TemplateData{
			Subcommand: sub,
			Date:       date,
			Version:    version,
			IDUpper:    strings.ToUpper(sub.ID),
		}

		for _, out := range outputs(docs) {
			if err := render(out, sub.ID, data); err != nil {
				panic(err)
			}
		}
	}
}

// mergeFlags folds the shared flags into a subcommand's own and sorts the
// result by id.
func mergeFlags(common, own []Flag) []Flag {
	merged := append([]Flag{}, common...)
	merged = append(merged, own...)
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].ID < merged[j].ID
	})
	return merged
}

// outputs lists the render targets: markdown command docs, man pages, and
// tldr snippets.
func outputs(docs string) []Output {
	return []Output{
		{
			Template: filepath.Join(docs, "templates", "fleetctl.md.tmpl"),
			Folder:   filepath.Join(docs, "commands"),
			Suffix:   ".md",
		},
		{
			Template: filepath.Join(docs, "templates", "fleetctl.man.tmpl"),
			Folder:   filepath.Join(docs, "man", "share", "man1"),
			Prefix:   "fleetctl-",
			Suffix:   ".1",
		},
		{
			Template: filepath.Join(docs, "templates", "fleetctl.tldr.tmpl"),
			Folder:   filepath.Join(docs, "tldr"),
			Prefix:   "fleetctl-",
			Suffix:   ".md",
		},
	}
}

// render executes one template into its target file.
func render(out Output, id string, data TemplateData) error {
	if err := os.MkdirAll(out.Folder, 0o755); err != nil {
		return err
	}

	target := filepath.Join(out.Folder, out.Prefix+id+out.Suffix)
	fmt.Println("Generating", target)

	tmpl, err := template.ParseFiles(out.Template)
	if err != nil {
		return err
	}

	file, err := os.Create(target)
	if err != nil {
		return err
	}
	defer file.Close()

	return tmpl.Execute(file, data)
}

// getVersion resolves the version from the latest git tag, falling back to
// "dev" outside a tagged checkout.
func getVersion() string {
	out, err := exec.Command("git", "describe", "--tags", "--abbrev=0").Output()
	if err != nil {
		return "dev"
	}
	return strings.TrimPrefix(strings.TrimSpace(string(out)), "v")
}
