package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/mattjoyce/mosaic/internal/catalog"
	"github.com/mattjoyce/mosaic/internal/config"
	"github.com/mattjoyce/mosaic/internal/dashboard"
	"github.com/mattjoyce/mosaic/internal/doctor"
	"github.com/mattjoyce/mosaic/internal/lock"
	"github.com/mattjoyce/mosaic/internal/log"
	"github.com/mattjoyce/mosaic/internal/manifest"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	// --- NOUNS ---
	case "plugin":
		os.Exit(runPluginNoun(args))
	case "config":
		os.Exit(runConfigNoun(args))

	// --- ROOT ACTIONS ---
	case "run":
		if hasHelpFlag(args) {
			printRunHelp()
			os.Exit(0)
		}
		os.Exit(runRun(args))
	case "doctor":
		if hasHelpFlag(args) {
			printDoctorHelp()
			os.Exit(0)
		}
		os.Exit(runDoctor(args))
	case "version":
		fmt.Printf("mosaic version %s\n", dashboard.Version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`mosaic - Terminal dashboard runtime for plugin widgets

Usage:
  mosaic <noun> <action> [flags]

Core Resources (Nouns):
  plugin    Widget plugin discovery and management
  config    Dashboard configuration

Plugin Commands:
  plugin list             Show discovered plugins
  plugin info <name>      Show one plugin's manifest
  plugin validate <path>  Validate a manifest file or plugin directory
  plugin create <name>    Scaffold a new Lua plugin

Config Commands:
  config show       Print the resolved configuration
  config check      Validate configuration and plugin catalog

General:
  run               Start the dashboard in the foreground
  doctor            Full health report
  version           Show version information
  help              Show this help message

Use 'mosaic <noun> help' for resource-specific flags.
`)
}

// --- NOUN DISPATCHERS ---

func runPluginNoun(args []string) int {
	if len(args) < 1 {
		printPluginNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printPluginNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "list":
		if hasHelpFlag(actionArgs) {
			printPluginListHelp()
			return 0
		}
		return runPluginList(actionArgs)
	case "info":
		if hasHelpFlag(actionArgs) {
			printPluginInfoHelp()
			return 0
		}
		return runPluginInfo(actionArgs)
	case "validate":
		if hasHelpFlag(actionArgs) {
			printPluginValidateHelp()
			return 0
		}
		return runPluginValidate(actionArgs)
	case "create":
		if hasHelpFlag(actionArgs) {
			printPluginCreateHelp()
			return 0
		}
		return runPluginCreate(actionArgs)
	case "help":
		printPluginNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown plugin action: %s\n", action)
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printConfigNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printConfigNounHelp(os.Stdout)
		return 0
	}

	action := args[0]
	actionArgs := args[1:]

	switch action {
	case "show":
		if hasHelpFlag(actionArgs) {
			printConfigShowHelp()
			return 0
		}
		return runConfigShow(actionArgs)
	case "check":
		if hasHelpFlag(actionArgs) {
			printConfigCheckHelp()
			return 0
		}
		return runDoctor(actionArgs)
	case "help":
		printConfigNounHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func printPluginNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: mosaic plugin <action> [flags]")
	fmt.Fprintln(w, "Actions: list, info, validate, create")
}

func printConfigNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: mosaic config <action> [flags]")
	fmt.Fprintln(w, "Actions: show, check")
}

func printRunHelp() {
	fmt.Println("Usage: mosaic run [--config PATH]")
	fmt.Println("Start the dashboard in the foreground.")
}

func printDoctorHelp() {
	fmt.Println("Usage: mosaic doctor [--config PATH] [--format human|json] [--strict] [--json]")
	fmt.Println("Validate configuration, plugins and layout; exit 1 on errors.")
}

func printPluginListHelp() {
	fmt.Println("Usage: mosaic plugin list [--config PATH] [--json]")
	fmt.Println("Show every plugin discovered under the configured plugin roots.")
}

func printPluginInfoHelp() {
	fmt.Println("Usage: mosaic plugin info <name> [--config PATH] [--json]")
	fmt.Println("Show the full manifest of one discovered plugin.")
}

func printPluginValidateHelp() {
	fmt.Println("Usage: mosaic plugin validate <path>")
	fmt.Println("Validate a plugin.json file or a plugin directory, reporting every violation.")
}

func printPluginCreateHelp() {
	fmt.Println("Usage: mosaic plugin create <name> [--dir PATH] [--category NAME]")
	fmt.Println("Scaffold a new Lua plugin: plugin.json plus a stub script.")
}

func printConfigShowHelp() {
	fmt.Println("Usage: mosaic config show [--config PATH] [--json]")
	fmt.Println("Print the fully resolved configuration, defaults included.")
}

func printConfigCheckHelp() {
	fmt.Println("Usage: mosaic config check [--config PATH] [--format human|json] [--strict] [--json]")
	fmt.Println("Validate configuration and plugin catalog; exit 1 on errors.")
}

// --- ACTION IMPLEMENTATIONS ---

func runRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	if *configPath == "" {
		discovered, err := config.DiscoverConfigPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
			return 1
		}
		*configPath = discovered
		fmt.Fprintf(os.Stderr, "Using discovered config: %s\n", *configPath)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logPath := logFilePath()
	if err := log.SetupFile(cfg.Log.Level, cfg.Log.Format, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "Log file unavailable, logging to stderr: %v\n", err)
	}
	logger := log.WithComponent("main")
	logger.Info("mosaic starting", "version", dashboard.Version, "config", *configPath, "log_file", logPath)

	pidPath := pidLockPath()
	pidLock, err := lock.AcquirePIDLock(pidPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "path", pidPath, "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidPath)

	// Preflight mirrors 'mosaic doctor': warnings are logged, errors
	// stop the boot before the terminal enters the alt screen.
	report := doctor.New(cfg, scanCatalog(cfg), dashboard.Version).Validate()
	for _, w := range report.Warnings {
		logger.Warn("preflight", "category", w.Category, "field", w.Field, "message", w.Message)
	}
	if !report.Valid {
		fmt.Fprint(os.Stderr, doctor.FormatHuman(report))
		logger.Error("preflight failed, run 'mosaic doctor' for the full report")
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := dashboard.New(cfg, logger)
	if err != nil {
		logger.Error("failed to build dashboard", "error", err)
		return 1
	}

	if err := d.Run(ctx); err != nil {
		logger.Error("dashboard failed", "error", err)
		return 1
	}

	logger.Info("mosaic stopped")
	return 0
}

func runDoctor(args []string) int {
	var configPath, format string
	var strict, jsonOut bool

	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.BoolVar(&strict, "strict", false, "Treat warnings as errors")
	fs.StringVar(&format, "format", "human", "Output format (human, json)")
	// Handle -json alias for format=json
	fs.BoolVar(&jsonOut, "json", false, "Output in JSON")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if jsonOut {
		format = "json"
	}

	cfg, err := loadConfigLenient(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config load error: %v\n", err)
		return 1
	}

	result := doctor.New(cfg, scanCatalog(cfg), dashboard.Version).Validate()

	switch format {
	case "json":
		out, err := doctor.FormatJSON(result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "JSON format error: %v\n", err)
			return 1
		}
		fmt.Println(out)
	default:
		fmt.Print(doctor.FormatHuman(result))
	}

	if !result.Valid {
		return 1
	}
	if strict && len(result.Warnings) > 0 {
		return 2
	}
	return 0
}

func runConfigShow(args []string) int {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}

	if *jsonOut {
		data, _ := json.MarshalIndent(cfg, "", "  ")
		fmt.Println(string(data))
	} else {
		data, _ := yaml.Marshal(cfg)
		fmt.Print(string(data))
	}
	return 0
}

func runPluginList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := loadConfigLenient(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config load error: %v\n", err)
		return 1
	}

	manifests := scanCatalog(cfg).All()
	if len(manifests) == 0 {
		fmt.Printf("No plugins found under: %s\n", strings.Join(cfg.PluginDirs, ", "))
		return 0
	}

	if *jsonOut {
		data, _ := json.MarshalIndent(manifests, "", "  ")
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("%-20s %-10s %-12s %s\n", "NAME", "VERSION", "CATEGORY", "DESCRIPTION")
	for _, m := range manifests {
		fmt.Printf("%-20s %-10s %-12s %s\n", m.Name, m.Version, m.Category, m.Description)
	}
	return 0
}

func runPluginInfo(args []string) int {
	// Positional name may come before or after flags, like
	// 'mosaic plugin info clock --json'.
	var configPath string
	var jsonOut bool

	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.StringVar(&configPath, "config", "", "Path to configuration")
	fs.BoolVar(&jsonOut, "json", false, "Output in structured JSON format")

	var name string
	var remainingArgs []string
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") && name == "" {
			name = arg
		} else {
			remainingArgs = append(remainingArgs, arg)
		}
	}

	if err := fs.Parse(remainingArgs); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if name == "" {
		fmt.Fprintf(os.Stderr, "Usage: mosaic plugin info <name> [--config PATH] [--json]\n")
		return 1
	}

	cfg, err := loadConfigLenient(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config load error: %v\n", err)
		return 1
	}

	m, ok := scanCatalog(cfg).Lookup(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "Plugin not found: %s (searched: %s)\n", name, strings.Join(cfg.PluginDirs, ", "))
		return 1
	}

	if jsonOut {
		data, _ := json.MarshalIndent(m, "", "  ")
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("Name:         %s\n", m.Name)
	fmt.Printf("Version:      %s\n", m.Version)
	fmt.Printf("Description:  %s\n", m.Description)
	fmt.Printf("Author:       %s\n", m.Author)
	fmt.Printf("License:      %s\n", m.License)
	fmt.Printf("Category:     %s\n", m.Category)
	fmt.Printf("Keywords:     %s\n", strings.Join(m.Keywords, ", "))
	fmt.Printf("Entry:        %s\n", m.Entry)
	fmt.Printf("Path:         %s\n", m.Path())
	if len(m.Dependencies) > 0 {
		fmt.Printf("Dependencies: %s\n", strings.Join(m.Dependencies, ", "))
	}
	if m.Requirements != nil {
		if len(m.Requirements.Platforms) > 0 {
			fmt.Printf("Platforms:    %s\n", strings.Join(m.Requirements.Platforms, ", "))
		}
		if len(m.Requirements.Commands) > 0 {
			fmt.Printf("Commands:     %s\n", strings.Join(m.Requirements.Commands, ", "))
		}
		if m.Requirements.MinRuntime != "" {
			fmt.Printf("Min runtime:  %s\n", m.Requirements.MinRuntime)
		}
	}
	if len(m.OptionsSchema) > 0 {
		keys := make([]string, 0, len(m.OptionsSchema))
		for k := range m.OptionsSchema {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Println("Options:")
		for _, k := range keys {
			prop := m.OptionsSchema[k]
			line := fmt.Sprintf("  %s (%s)", k, prop.Type)
			if prop.Default != nil {
				line += fmt.Sprintf(" default=%v", prop.Default)
			}
			if prop.Description != "" {
				line += " - " + prop.Description
			}
			fmt.Println(line)
		}
	}
	return 0
}

func runPluginValidate(args []string) int {
	var positional []string
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			positional = append(positional, arg)
		}
	}
	if len(positional) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: mosaic plugin validate <path>\n")
		return 1
	}
	path := positional[0]

	stat, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot read %s: %v\n", path, err)
		return 1
	}

	var m *manifest.Manifest
	if stat.IsDir() {
		m, err = manifest.LoadFromDir(path)
	} else {
		m, err = manifest.Load(path)
	}

	if err != nil {
		var me *manifest.ManifestError
		if errors.As(err, &me) {
			fmt.Printf("Invalid manifest %s:\n", path)
			for _, v := range me.Violations {
				fmt.Printf("  - %s\n", v)
			}
			return 1
		}
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		return 1
	}

	fmt.Printf("Manifest OK: %s %s (%s)\n", m.Name, m.Version, m.Category)
	return 0
}

func runPluginCreate(args []string) int {
	var dir, category string

	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.StringVar(&dir, "dir", "./plugins", "Plugin root to create the plugin under")
	fs.StringVar(&category, "category", "system", "Manifest category")

	var name string
	var remainingArgs []string
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") && name == "" {
			name = arg
		} else {
			remainingArgs = append(remainingArgs, arg)
		}
	}

	if err := fs.Parse(remainingArgs); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if name == "" {
		fmt.Fprintf(os.Stderr, "Usage: mosaic plugin create <name> [--dir PATH] [--category NAME]\n")
		return 1
	}

	doc := pluginTemplate(name, category)

	// Round-trip the generated manifest so a bad name or category is
	// caught before anything touches the filesystem.
	if _, err := manifest.Decode([]byte(doc)); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot scaffold %q: %v\n", name, err)
		return 1
	}

	pluginDir := filepath.Join(dir, name)
	manifestPath := filepath.Join(pluginDir, manifest.Filename)
	if _, err := os.Stat(manifestPath); err == nil {
		fmt.Fprintf(os.Stderr, "Plugin already exists: %s\n", manifestPath)
		return 1
	}

	if err := os.MkdirAll(pluginDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create %s: %v\n", pluginDir, err)
		return 1
	}
	if err := os.WriteFile(manifestPath, []byte(doc), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write manifest: %v\n", err)
		return 1
	}

	scriptPath := filepath.Join(pluginDir, name+".lua")
	if err := os.WriteFile(scriptPath, []byte(scriptTemplate(name)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write script: %v\n", err)
		return 1
	}

	fmt.Printf("Created %s\n", manifestPath)
	fmt.Printf("Created %s\n", scriptPath)
	fmt.Printf("Enable it by adding a widget entry named %q to mosaic.yaml.\n", name)
	return 0
}

func pluginTemplate(name, category string) string {
	return fmt.Sprintf(`{
  "name": %q,
  "version": "0.1.0",
  "description": "Describe what %s shows",
  "author": "unknown",
  "license": "MIT",
  "keywords": ["custom"],
  "category": %q,
  "entry": "%s.lua",
  "optionsSchema": {
    "label": {
      "type": "string",
      "default": %q,
      "description": "Text shown above the value"
    }
  }
}
`, name, name, category, name, name)
}

func scriptTemplate(name string) string {
	return fmt.Sprintf(`-- %s widget

local ticks = 0

function update()
  ticks = ticks + 1
end

function render()
  local label = mosaic.options.label or mosaic.name
  return label .. "\n" .. tostring(ticks) .. " updates"
end
`, name)
}

// --- SHARED HELPERS ---

func loadConfigForTool(configPath string) (*config.Config, error) {
	if configPath == "" {
		discovered, err := config.DiscoverConfigPath()
		if err != nil {
			return nil, err
		}
		configPath = discovered
	}
	return config.Load(configPath)
}

// loadConfigLenient resolves the config without failing on validation
// problems, so doctor and the plugin tools can report them instead.
func loadConfigLenient(configPath string) (*config.Config, error) {
	if configPath == "" {
		discovered, err := config.DiscoverConfigPath()
		if err != nil {
			return nil, err
		}
		configPath = discovered
	}
	return config.LoadLenient(configPath)
}

// scanCatalog indexes the plugin roots that exist. Missing roots are a
// doctor finding, not a reason for the tools to die.
func scanCatalog(cfg *config.Config) *catalog.Catalog {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	cat := catalog.New(quiet)

	var existing []string
	for _, dir := range cfg.PluginDirs {
		if _, err := os.Stat(dir); err == nil {
			existing = append(existing, dir)
		}
	}
	if len(existing) > 0 {
		if _, err := cat.Scan(existing, manifest.NewCache()); err != nil {
			fmt.Fprintf(os.Stderr, "Plugin scan error: %v\n", err)
		}
	}
	return cat
}

func pidLockPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "mosaic.pid")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("mosaic-%d.pid", os.Getuid()))
}

// logFilePath puts runtime logs under the user state directory. The dashboard
// cannot log to the terminal once the grid owns it.
func logFilePath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "mosaic", "mosaic.log")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state", "mosaic", "mosaic.log")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("mosaic-%d.log", os.Getuid()))
}
