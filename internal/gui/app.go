package gui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/fmuoria/resume-tailor/internal/agent"
	"github.com/fmuoria/resume-tailor/internal/config"
	"github.com/fmuoria/resume-tailor/internal/models"
)

// App represents the main GUI application
type App struct {
	fyneApp    fyne.App
	mainWindow fyne.Window
	config     *config.Config
	agent      *agent.ResumeAgent
	ctx        context.Context
	cancelFunc context.CancelFunc

	// Resume tab
	fileLabel   *widget.Label
	sourceLabel *widget.Label
	blockList   *widget.List
	exportPDF   *widget.Button
	exportXLSX  *widget.Button
	exportJSON  *widget.Button

	// Batch tab
	subjectEntry  *widget.Entry
	processBtn    *widget.Button
	gmailBtn      *widget.Button
	cancelBtn     *widget.Button
	progressBar   *widget.ProgressBar
	progressLabel *widget.Label
	resultsTable  *widget.Table

	blocks  models.Blocks
	results []models.BatchResult
}

// NewApp creates a new GUI application using cfg
func NewApp(cfg *config.Config) *App {
	a := app.New()
	w := a.NewWindow("Resume Tailor")
	w.Resize(fyne.NewSize(1000, 700))

	guiApp := &App{
		fyneApp:    a,
		mainWindow: w,
		config:     cfg,
	}
	guiApp.rebuildAgent()
	guiApp.setupUI()

	return guiApp
}

// Run starts the GUI application
func (a *App) Run() {
	a.mainWindow.ShowAndRun()
	if a.agent != nil {
		a.agent.Close()
	}
}

// rebuildAgent recreates the agent after a configuration change. When the
// configured oracle cannot be reached the agent falls back to heuristic-only
// structuring.
func (a *App) rebuildAgent() {
	if a.agent != nil {
		a.agent.Close()
	}

	ag, err := agent.New(context.Background(), a.config)
	if err != nil {
		log.Printf("Failed to initialize oracle, continuing without it: %v", err)
		ag = agent.NewResumeAgent(a.config, nil)
	}
	ag.SetProgressCallback(func(current, total int, message string) {
		fyne.Do(func() {
			if total > 0 {
				a.progressBar.SetValue(float64(current) / float64(total))
			}
			a.progressLabel.SetText(message)
		})
	})
	a.agent = ag
}

// setupUI initializes all UI components
func (a *App) setupUI() {
	tabs := container.NewAppTabs(
		container.NewTabItem("Resume", a.createResumeTab()),
		container.NewTabItem("Batch", a.createBatchTab()),
		container.NewTabItem("Settings", a.createSettingsTab()),
	)

	a.mainWindow.SetContent(tabs)
}

func (a *App) createResumeTab() fyne.CanvasObject {
	a.fileLabel = widget.NewLabel("No resume loaded")
	a.sourceLabel = widget.NewLabel("")
	openBtn := widget.NewButton("Open PDF...", a.handleOpen)

	a.blockList = widget.NewList(
		func() int {
			return len(a.blocks)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("Template")
		},
		func(id widget.ListItemID, item fyne.CanvasObject) {
			label := item.(*widget.Label)
			if id < len(a.blocks) {
				label.SetText(summarize(a.blocks[id]))
				label.TextStyle = fyne.TextStyle{Bold: a.blocks[id].Type() == models.BlockSectionTitle}
			}
		},
	)

	a.exportPDF = widget.NewButton("Export PDF", func() {
		a.saveBlocks("resume.pdf", a.agent.RenderBlocks)
	})
	a.exportXLSX = widget.NewButton("Export Excel", func() {
		a.saveBlocks("resume.xlsx", a.agent.ExportExcel)
	})
	a.exportJSON = widget.NewButton("Export JSON", func() {
		a.saveBlocks("resume.blocks.json", func(blocks models.Blocks, w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(models.BlockDocument{Blocks: blocks})
		})
	})
	a.setExportEnabled(false)

	header := container.NewVBox(
		container.NewHBox(openBtn, a.fileLabel),
		a.sourceLabel,
	)
	footer := container.NewHBox(a.exportPDF, a.exportXLSX, a.exportJSON)

	return container.NewBorder(header, footer, nil, nil, a.blockList)
}

func (a *App) createBatchTab() fyne.CanvasObject {
	a.subjectEntry = widget.NewEntry()
	a.subjectEntry.SetPlaceHolder("e.g., Job Application")

	addBtn := widget.NewButton("Add PDF to uploads...", a.handleAddUpload)
	a.processBtn = widget.NewButton("Process Uploads", func() {
		a.runBatch(a.agent.ProcessDirectory)
	})
	a.gmailBtn = widget.NewButton("Fetch from Gmail", a.handleGmail)
	a.cancelBtn = widget.NewButton("Cancel", a.handleCancel)
	a.cancelBtn.Disable()

	a.progressBar = widget.NewProgressBar()
	a.progressLabel = widget.NewLabel("Ready")

	a.resultsTable = widget.NewTable(
		func() (int, int) {
			return len(a.results) + 1, 4 // +1 for header
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("Template")
		},
		func(id widget.TableCellID, cell fyne.CanvasObject) {
			label := cell.(*widget.Label)
			if id.Row == 0 {
				headers := []string{"File", "Blocks", "Source", "Status"}
				label.SetText(headers[id.Col])
				label.TextStyle = fyne.TextStyle{Bold: true}
				return
			}
			if id.Row-1 >= len(a.results) {
				return
			}
			result := a.results[id.Row-1]
			switch id.Col {
			case 0:
				label.SetText(filepath.Base(result.File))
			case 1:
				label.SetText(fmt.Sprintf("%d", result.Blocks))
			case 2:
				label.SetText(result.Source)
			case 3:
				if result.Error != "" {
					label.SetText(result.Error)
				} else {
					label.SetText("OK")
				}
			}
		},
	)
	a.resultsTable.SetColumnWidth(0, 220)
	a.resultsTable.SetColumnWidth(1, 70)
	a.resultsTable.SetColumnWidth(2, 100)
	a.resultsTable.SetColumnWidth(3, 400)

	controls := container.NewVBox(
		widget.NewForm(widget.NewFormItem("Email Subject", a.subjectEntry)),
		container.NewHBox(addBtn, a.processBtn, a.gmailBtn, a.cancelBtn),
		a.progressLabel,
		a.progressBar,
		widget.NewSeparator(),
	)

	return container.NewBorder(controls, nil, nil, nil, a.resultsTable)
}

// createSettingsTab creates the settings tab
func (a *App) createSettingsTab() fyne.CanvasObject {
	providerSelect := widget.NewSelect(
		[]string{config.ProviderNone, config.ProviderVertexAI, config.ProviderOllama}, nil)
	providerSelect.SetSelected(a.config.OracleProvider)

	modeSelect := widget.NewSelect(
		[]string{config.ModeHeuristic, config.ModeOracle, config.ModeOracleSections, config.ModeOracleWithFallback}, nil)
	modeSelect.SetSelected(a.config.StructuringMode)

	projectEntry := widget.NewEntry()
	projectEntry.SetText(a.config.GoogleCloudProject)

	locationEntry := widget.NewEntry()
	locationEntry.SetText(a.config.GoogleCloudLocation)

	vertexModelEntry := widget.NewEntry()
	vertexModelEntry.SetText(a.config.VertexModel)

	googleCredsEntry := widget.NewEntry()
	googleCredsEntry.SetText(a.config.GoogleCredentialsPath)

	ollamaURLEntry := widget.NewEntry()
	ollamaURLEntry.SetText(a.config.OllamaURL)

	ollamaModelEntry := widget.NewEntry()
	ollamaModelEntry.SetText(a.config.OllamaModel)

	gmailCredsEntry := widget.NewEntry()
	gmailCredsEntry.SetText(a.config.GmailCredentialsPath)

	uploadsEntry := widget.NewEntry()
	uploadsEntry.SetText(a.config.UploadsDir)

	outputEntry := widget.NewEntry()
	outputEntry.SetText(a.config.OutputDir)

	form := widget.NewForm(
		widget.NewFormItem("Oracle Provider", providerSelect),
		widget.NewFormItem("Structuring Mode", modeSelect),
		widget.NewFormItem("Google Cloud Project", projectEntry),
		widget.NewFormItem("Google Cloud Location", locationEntry),
		widget.NewFormItem("Vertex AI Model", vertexModelEntry),
		widget.NewFormItem("Google Credentials", a.browseRow(googleCredsEntry)),
		widget.NewFormItem("Ollama URL", ollamaURLEntry),
		widget.NewFormItem("Ollama Model", ollamaModelEntry),
		widget.NewFormItem("Gmail Credentials", a.browseRow(gmailCredsEntry)),
		widget.NewFormItem("Uploads Directory", uploadsEntry),
		widget.NewFormItem("Output Directory", outputEntry),
	)

	// collect copies the form into a fresh config so a failed validation
	// leaves the running one untouched
	collect := func() *config.Config {
		cfg := *a.config
		cfg.OracleProvider = providerSelect.Selected
		cfg.StructuringMode = modeSelect.Selected
		cfg.GoogleCloudProject = strings.TrimSpace(projectEntry.Text)
		cfg.GoogleCloudLocation = strings.TrimSpace(locationEntry.Text)
		cfg.VertexModel = strings.TrimSpace(vertexModelEntry.Text)
		cfg.GoogleCredentialsPath = strings.TrimSpace(googleCredsEntry.Text)
		cfg.OllamaURL = strings.TrimSpace(ollamaURLEntry.Text)
		cfg.OllamaModel = strings.TrimSpace(ollamaModelEntry.Text)
		cfg.GmailCredentialsPath = strings.TrimSpace(gmailCredsEntry.Text)
		cfg.UploadsDir = strings.TrimSpace(uploadsEntry.Text)
		cfg.OutputDir = strings.TrimSpace(outputEntry.Text)
		return &cfg
	}

	saveBtn := widget.NewButton("Save Settings", func() {
		cfg := collect()
		if err := cfg.Validate(); err != nil {
			dialog.ShowError(fmt.Errorf("validation failed: %w", err), a.mainWindow)
			return
		}
		if err := cfg.Save(); err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}

		*a.config = *cfg
		a.rebuildAgent()
		dialog.ShowInformation("Success", "Settings saved successfully", a.mainWindow)
	})

	testBtn := widget.NewButton("Validate", func() {
		if err := collect().Validate(); err != nil {
			dialog.ShowError(fmt.Errorf("validation failed: %w", err), a.mainWindow)
			return
		}
		dialog.ShowInformation("Success", "Configuration is valid", a.mainWindow)
	})

	return container.NewVScroll(container.NewVBox(
		form,
		container.NewHBox(saveBtn, testBtn),
	))
}

func (a *App) browseRow(entry *widget.Entry) fyne.CanvasObject {
	btn := widget.NewButton("Browse...", func() {
		dialog.ShowFileOpen(func(uc fyne.URIReadCloser, err error) {
			if err == nil && uc != nil {
				entry.SetText(uc.URI().Path())
				uc.Close()
			}
		}, a.mainWindow)
	})
	return container.NewBorder(nil, nil, nil, btn, entry)
}

// handleOpen parses a PDF picked by the user
func (a *App) handleOpen() {
	dialog.ShowFileOpen(func(uc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		if uc == nil {
			return // User canceled
		}
		defer uc.Close()

		data, err := io.ReadAll(uc)
		if err != nil {
			dialog.ShowError(fmt.Errorf("failed to read file: %w", err), a.mainWindow)
			return
		}
		name := uc.URI().Name()

		a.fileLabel.SetText("Parsing " + name + "...")
		a.setExportEnabled(false)

		go func() {
			result, err := a.agent.ParseResume(context.Background(), data)

			fyne.Do(func() {
				if err != nil {
					a.fileLabel.SetText("Failed to parse " + name)
					dialog.ShowError(err, a.mainWindow)
					return
				}

				a.blocks = result.Blocks
				a.blockList.Refresh()
				a.fileLabel.SetText(name)

				status := fmt.Sprintf("%d pages, %d blocks, structured by %s",
					len(result.Layout.Pages), len(result.Blocks), result.Source)
				if len(result.Warnings) > 0 {
					status += " (" + strings.Join(result.Warnings, "; ") + ")"
				}
				a.sourceLabel.SetText(status)
				a.setExportEnabled(true)
			})
		}()
	}, a.mainWindow)
}

// saveBlocks asks for a destination and writes the current blocks with write
func (a *App) saveBlocks(defaultName string, write func(models.Blocks, io.Writer) error) {
	if len(a.blocks) == 0 {
		dialog.ShowError(errors.New("no resume to export"), a.mainWindow)
		return
	}

	var buf bytes.Buffer
	if err := write(a.blocks, &buf); err != nil {
		dialog.ShowError(fmt.Errorf("failed to export: %w", err), a.mainWindow)
		return
	}

	save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		if uc == nil {
			return // User canceled
		}
		defer uc.Close()

		if _, err := uc.Write(buf.Bytes()); err != nil {
			dialog.ShowError(fmt.Errorf("failed to write file: %w", err), a.mainWindow)
			return
		}
		dialog.ShowInformation("Success", "Exported to "+uc.URI().Name(), a.mainWindow)
	}, a.mainWindow)
	save.SetFileName(defaultName)
	save.Show()
}

// handleAddUpload copies a PDF into the uploads directory for batch runs
func (a *App) handleAddUpload() {
	dialog.ShowFileOpen(func(uc fyne.URIReadCloser, err error) {
		if err != nil || uc == nil {
			return
		}
		defer uc.Close()

		path, err := a.agent.FileHandler.SaveUploadedFile(uc.URI().Name(), uc)
		if err != nil {
			dialog.ShowError(err, a.mainWindow)
			return
		}
		a.progressLabel.SetText("Added " + filepath.Base(path))
	}, a.mainWindow)
}

func (a *App) handleGmail() {
	subject := strings.TrimSpace(a.subjectEntry.Text)
	if subject == "" {
		dialog.ShowError(errors.New("please enter an email subject filter"), a.mainWindow)
		return
	}
	if _, err := os.Stat(a.config.GmailCredentialsPath); err != nil {
		dialog.ShowError(errors.New("gmail credentials not found. Please configure them in Settings"), a.mainWindow)
		return
	}

	a.runBatch(func(ctx context.Context) ([]models.BatchResult, error) {
		return a.agent.IngestFromGmail(ctx, subject)
	})
}

// runBatch runs fn in the background and shows its results
func (a *App) runBatch(fn func(ctx context.Context) ([]models.BatchResult, error)) {
	a.processBtn.Disable()
	a.gmailBtn.Disable()
	a.cancelBtn.Enable()

	a.ctx, a.cancelFunc = context.WithCancel(context.Background())
	ctx := a.ctx

	go func() {
		results, err := fn(ctx)

		// All UI updates must happen on the main thread
		fyne.Do(func() {
			a.processBtn.Enable()
			a.gmailBtn.Enable()
			a.cancelBtn.Disable()

			a.results = results
			a.resultsTable.Refresh()

			if err != nil {
				if errors.Is(err, context.Canceled) {
					a.progressLabel.SetText("Processing canceled")
				} else {
					a.progressLabel.SetText("Error: " + err.Error())
					dialog.ShowError(err, a.mainWindow)
				}
				return
			}

			failed := 0
			for _, r := range results {
				if r.Error != "" {
					failed++
				}
			}
			message := fmt.Sprintf("Processed %d resumes (%d failed), output in %s", len(results), failed, a.config.OutputDir)
			a.progressLabel.SetText(message)

			fyne.CurrentApp().SendNotification(&fyne.Notification{
				Title:   "Processing Complete",
				Content: message,
			})
		})
	}()
}

// handleCancel handles cancellation of processing
func (a *App) handleCancel() {
	if a.cancelFunc != nil {
		a.cancelFunc()
		a.progressLabel.SetText("Canceling...")
	}
}

func (a *App) setExportEnabled(enabled bool) {
	for _, btn := range []*widget.Button{a.exportPDF, a.exportXLSX, a.exportJSON} {
		if enabled {
			btn.Enable()
		} else {
			btn.Disable()
		}
	}
}

// summarize renders a block as a single list row
func summarize(b models.Block) string {
	switch v := b.(type) {
	case models.ContactInfo:
		parts := v.Lines
		if v.Name != "" {
			parts = append([]string{v.Name}, v.Lines...)
		}
		return "Contact: " + strings.Join(parts, " | ")
	case models.SectionTitle:
		return v.Text
	case models.Text:
		return "    " + v.Text
	case models.ExperienceGroup:
		s := "    " + v.Header
		if v.Title != "" {
			s += " / " + v.Title
		}
		return s + countSuffix(len(v.Bullets), "bullet")
	case models.EducationGroup:
		return "    " + v.Degree + countSuffix(len(v.Details), "detail")
	case models.SkillsGroup:
		return "    " + strings.Join(v.Skills, ", ")
	case models.CertificatesGroup:
		return "    " + strings.Join(v.Certificates, ", ")
	case models.ProjectGroup:
		return "    " + v.Title + countSuffix(len(v.Bullets), "bullet")
	default:
		return string(b.Type())
	}
}

func countSuffix(n int, noun string) string {
	switch n {
	case 0:
		return ""
	case 1:
		return " (1 " + noun + ")"
	default:
		return fmt.Sprintf(" (%d %ss)", n, noun)
	}
}
