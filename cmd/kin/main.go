// kin is a terminal viewer for family trees: a generation-column chart with
// focus navigation, search, and live reload, plus a small static server and
// chart snapshot export.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/kinship/internal/datasource"
	"github.com/vanderheijden86/kinship/pkg/config"
	"github.com/vanderheijden86/kinship/pkg/engine"
	"github.com/vanderheijden86/kinship/pkg/export"
	"github.com/vanderheijden86/kinship/pkg/loader"
	"github.com/vanderheijden86/kinship/pkg/model"
	"github.com/vanderheijden86/kinship/pkg/server"
	"github.com/vanderheijden86/kinship/pkg/ui"
	"github.com/vanderheijden86/kinship/pkg/version"
)

func main() {
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	fileFlag := flag.String("file", "", "Path to the family JSON file (overrides discovery and KIN_FILE)")
	serveFlag := flag.Bool("serve", false, "Serve the data file and site over HTTP instead of opening the TUI")
	addrFlag := flag.String("addr", "", "Listen address for --serve (default from config, else :8000)")
	siteFlag := flag.String("site", "", "Static site directory for --serve (default current directory)")
	exportFlag := flag.String("export", "", "Render a chart snapshot to the given path and exit")
	formatFlag := flag.String("format", "", "Snapshot format: svg, png, or both (default inferred from extension)")
	presetFlag := flag.String("preset", "", "Snapshot layout preset: compact or roomy")
	titleFlag := flag.String("title", "", "Snapshot title")
	collapsedFlag := flag.Bool("collapsed", false, "Snapshot the default collapsed view instead of the full tree")
	wizardFlag := flag.Bool("export-wizard", false, "Run the interactive export wizard")
	convertFlag := flag.String("convert", "", "Convert a parent-child CSV to family JSON and exit")
	outFlag := flag.String("out", "", "Output path for --convert (default family.json)")
	flag.Parse()

	if *help {
		fmt.Println("kin - family tree viewer")
		fmt.Println("\nUsage: kin [options]")
		fmt.Println("\nOptions:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("kin %s\n", version.Version)
		os.Exit(0)
	}

	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		// Non-fatal: continue with defaults
		cfg = config.DefaultConfig()
	}

	// Handle --convert before any tree loading: it produces the data file.
	if *convertFlag != "" {
		if err := runConvert(*convertFlag, *outFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Convert failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	dataPath, root := loadTree(cfg, *fileFlag)

	if *serveFlag {
		if err := runServe(cfg, dataPath, *addrFlag, *siteFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *wizardFlag {
		wiz := export.NewWizard(dataPath)
		wcfg, err := wiz.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Export cancelled: %v\n", err)
			os.Exit(1)
		}
		if err := runExport(root, wcfg.OutputPath, wcfg.Format, wcfg.Preset, wcfg.Title, !wcfg.FullTree); err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Chart exported to %s\n", wcfg.OutputPath)
		return
	}

	if *exportFlag != "" {
		preset := *presetFlag
		if preset == "" {
			preset = cfg.Export.Preset
		}
		if err := runExport(root, *exportFlag, *formatFlag, preset, *titleFlag, *collapsedFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Chart exported to %s\n", *exportFlag)
		return
	}

	// Launch TUI
	m := ui.NewModel(root, dataPath).WithConfig(cfg)
	defer m.Stop()

	if err := runTUIProgram(m); err != nil {
		fmt.Printf("Error running kin: %v\n", err)
		os.Exit(1)
	}
}

// loadTree resolves the data path and loads the tree, exiting on failure.
// Malformed data is fatal by design: a half-loaded tree would silently show
// wrong ancestry.
func loadTree(cfg config.Config, fileFlag string) (string, *model.Person) {
	dir := cfg.DataDir

	if fileFlag != "" {
		root, err := loader.LoadFile(fileFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", fileFlag, err)
			os.Exit(1)
		}
		return fileFlag, root
	}

	if cfg.DataFile != "" && os.Getenv(loader.FileEnvVar) == "" {
		root, err := loader.LoadFile(cfg.DataFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", cfg.DataFile, err)
			os.Exit(1)
		}
		return cfg.DataFile, root
	}

	root, err := datasource.Load(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading family data: %v\n", err)
		fmt.Fprintln(os.Stderr, "Place a family.json in the current directory, or point KIN_FILE at one.")
		os.Exit(1)
	}

	// Live reload needs a concrete file path; SQLite sources reload on their
	// own each launch.
	dataPath, _ := loader.FindDataPath(dir)
	return dataPath, root
}

func runConvert(inPath, outPath string) error {
	if outPath == "" {
		outPath = "family.json"
	}

	f, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer f.Close()

	root, err := loader.Convert(f)
	if err != nil {
		return err
	}
	if err := loader.Save(root, outPath); err != nil {
		return err
	}

	fmt.Printf("Wrote %s (%d people)\n", outPath, 1+model.CountDescendants(root))
	return nil
}

func runExport(root *model.Person, path, format, preset, title string, collapsedView bool) error {
	var collapsed map[string]bool
	if collapsedView {
		collapsed = engine.NewSession(root).CollapsedSet()
	}
	return export.SaveChartSnapshot(export.ChartSnapshotOptions{
		Path:      path,
		Format:    format,
		Preset:    preset,
		Title:     title,
		Root:      root,
		Collapsed: collapsed,
	})
}

func runServe(cfg config.Config, dataPath, addrFlag, siteFlag string) error {
	addr := addrFlag
	if addr == "" {
		addr = cfg.Serve.Addr
	}
	siteDir := siteFlag
	if siteDir == "" {
		siteDir = cfg.Serve.SiteDir
	}
	if siteDir == "" {
		siteDir = "."
	}

	srv := server.New(server.Options{
		Addr:     addr,
		DataPath: dataPath,
		SiteDir:  siteDir,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Serving %s on %s (Ctrl+C to stop)\n", siteDir, addr)
	return srv.ListenAndServe(ctx)
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set KIN_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("KIN_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if err != nil && (errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted)) {
		return nil
	}
	return err
}
