package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	json "github.com/goccy/go-json"
	"golang.org/x/term"
)

// WizardConfig holds the snapshot options collected by the wizard. It is
// persisted between runs so repeat exports can reuse the previous answers.
type WizardConfig struct {
	OutputPath string `json:"output_path"`
	Format     string `json:"format"` // "svg", "png", "both"
	Preset     string `json:"preset"` // "compact", "roomy"
	Title      string `json:"title,omitempty"`
	FullTree   bool   `json:"full_tree"` // export every generation, ignoring collapsed state
}

// Wizard walks the user through configuring a chart snapshot.
type Wizard struct {
	config   *WizardConfig
	dataPath string
}

// NewWizard creates an export wizard for the tree loaded from dataPath.
func NewWizard(dataPath string) *Wizard {
	return &Wizard{
		config: &WizardConfig{
			Format:   "svg",
			Preset:   "compact",
			FullTree: true,
		},
		dataPath: dataPath,
	}
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// Run executes the interactive flow and returns the collected options.
func (w *Wizard) Run() (*WizardConfig, error) {
	w.printBanner()

	saved, err := LoadWizardConfig()
	if err == nil && saved != nil && saved.OutputPath != "" {
		useSaved, err := w.offerSavedConfig(saved)
		if err != nil {
			return nil, err
		}
		if useSaved {
			w.config = saved
			return w.config, nil
		}
	}

	if err := w.collectOutputOptions(); err != nil {
		return nil, err
	}
	if err := w.collectLayoutOptions(); err != nil {
		return nil, err
	}

	if err := SaveWizardConfig(w.config); err != nil {
		// Not fatal; the export itself can still proceed.
		fmt.Fprintf(os.Stderr, "warning: could not save wizard settings: %v\n", err)
	}

	return w.config, nil
}

func (w *Wizard) printBanner() {
	fmt.Println("")
	fmt.Println("╔══════════════════════════════════════════════════════════╗")
	fmt.Println("║            kin → Family Chart Export Wizard              ║")
	fmt.Println("╠══════════════════════════════════════════════════════════╣")
	fmt.Println("║  Renders the family chart to SVG and/or PNG.             ║")
	fmt.Println("║  Press Ctrl+C anytime to cancel                          ║")
	fmt.Println("╚══════════════════════════════════════════════════════════╝")
	fmt.Println("")
}

func (w *Wizard) offerSavedConfig(saved *WizardConfig) (bool, error) {
	fmt.Println("Found previous export configuration:")
	fmt.Println("────────────────────────────────────")
	fmt.Printf("  Output: %s\n", saved.OutputPath)
	fmt.Printf("  Format: %s\n", saved.Format)
	fmt.Printf("  Preset: %s\n", saved.Preset)
	if saved.Title != "" {
		fmt.Printf("  Title:  %s\n", saved.Title)
	}
	fmt.Println("")

	var useSaved bool = true
	form := newForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Export again with these settings?").
				Description("Select No to reconfigure").
				Value(&useSaved).
				Affirmative("Yes, reuse").
				Negative("No, reconfigure"),
		),
	)

	if err := form.Run(); err != nil {
		return false, err
	}

	fmt.Println("")
	return useSaved, nil
}

func (w *Wizard) collectOutputOptions() error {
	fmt.Println("Step 1: Output")
	fmt.Println("────────────────────────────")

	defaultPath := suggestOutputPath(w.dataPath)
	outputPath := defaultPath

	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Output path").
				Value(&outputPath).
				Placeholder(defaultPath),
			huh.NewSelect[string]().
				Title("Image format").
				Options(
					huh.NewOption("SVG (scalable, small)", "svg"),
					huh.NewOption("PNG (raster)", "png"),
					huh.NewOption("Both", "both"),
				).
				Value(&w.config.Format),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	if outputPath != "" {
		w.config.OutputPath = outputPath
	} else {
		w.config.OutputPath = defaultPath
	}

	fmt.Println("")
	return nil
}

func (w *Wizard) collectLayoutOptions() error {
	fmt.Println("Step 2: Layout")
	fmt.Println("────────────────────────────")

	form := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Layout preset").
				Options(
					huh.NewOption("Compact (dense columns)", "compact"),
					huh.NewOption("Roomy (larger cards)", "roomy"),
				).
				Value(&w.config.Preset),
			huh.NewInput().
				Title("Chart title (optional)").
				Value(&w.config.Title).
				Placeholder("Family Chart"),
			huh.NewConfirm().
				Title("Export the full tree?").
				Description("Select No to export only the currently expanded generations").
				Value(&w.config.FullTree),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	fmt.Println("")
	return nil
}

func suggestOutputPath(dataPath string) string {
	base := "family-chart"
	if dataPath != "" {
		name := strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))
		if name != "" && name != "." {
			base = name + "-chart"
		}
	}
	return "./" + base + ".svg"
}

// WizardConfigPath returns the path to the saved wizard settings.
func WizardConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "kin", "export-wizard.json")
}

// LoadWizardConfig loads previously saved wizard settings.
func LoadWizardConfig() (*WizardConfig, error) {
	path := WizardConfigPath()
	if path == "" {
		return nil, fmt.Errorf("could not determine config path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var config WizardConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

// SaveWizardConfig saves wizard settings for future runs.
func SaveWizardConfig(config *WizardConfig) error {
	path := WizardConfigPath()
	if path == "" {
		return fmt.Errorf("could not determine config path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
