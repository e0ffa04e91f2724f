package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mrz1836/deepplan/internal/config"
	"github.com/mrz1836/deepplan/internal/constants"
	dperrors "github.com/mrz1836/deepplan/internal/errors"
	"github.com/mrz1836/deepplan/internal/planning"
	"github.com/mrz1836/deepplan/internal/workflow"
)

const promptFilePerm = 0o600

// batchResult is the output of the batch command.
type batchResult struct {
	Success      bool     `json:"success"`
	Error        string   `json:"error"`
	BatchNum     int      `json:"batch_num"`
	TotalBatches int      `json:"total_batches"`
	Sections     []string `json:"sections"`
	PromptFiles  []string `json:"prompt_files"`
	Message      string   `json:"message,omitempty"`
}

// AddBatchCommand adds the batch command to the parent command.
func AddBatchCommand(parent *cobra.Command) {
	var planningDir string
	var batchNum int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Write section-writer prompt files for one batch",
		Long: `Batch fills the section_writer prompt template for every missing section
of the requested batch and writes one prompt file per section under
sections/.prompts/. The host agent launches one subagent per prompt file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, planningDir, batchNum)
		},
	}

	cmd.Flags().StringVar(&planningDir, "planning-dir", "", "path to planning directory")
	cmd.Flags().IntVar(&batchNum, "batch-num", 0, "batch number to generate (1-indexed)")
	_ = cmd.MarkFlagRequired("planning-dir")
	_ = cmd.MarkFlagRequired("batch-num")

	parent.AddCommand(cmd)
}

//nolint:gocognit // Sequential validation ladder
func runBatch(cmd *cobra.Command, planningDir string, batchNum int) error {
	stdout := cmd.OutOrStdout()
	logger := GetLogger()

	result := batchResult{
		BatchNum:    batchNum,
		Sections:    []string{},
		PromptFiles: []string{},
	}

	session, err := config.LoadSession(planningDir)
	if err != nil {
		result.Error = fmt.Sprintf("Session config not found: %s", err)
		return failResult(stdout, result)
	}

	pluginRoot := session.PluginRoot
	if info, statErr := os.Stat(pluginRoot); statErr != nil || !info.IsDir() {
		result.Error = fmt.Sprintf("Plugin root not found: %s", pluginRoot)
		return failResult(stdout, result)
	}

	progress := planning.CheckProgress(planningDir)

	switch progress.State {
	case constants.SectionStateFresh:
		result.Error = "No sections/index.md found. Create the section index first."
		return failResult(stdout, result)

	case constants.SectionStateInvalidIndex:
		result.Error = fmt.Sprintf("Invalid index.md: %s", progress.ParseError)
		return failResult(stdout, result)

	case constants.SectionStateComplete:
		result.Success = true
		result.Message = "All sections already written. Nothing to do."
		return printResult(stdout, result)
	}

	defined := progress.DefinedSections
	if len(defined) == 0 {
		result.Error = "No sections defined in index.md"
		return failResult(stdout, result)
	}

	totalBatches := workflow.NumBatches(len(defined))
	result.TotalBatches = totalBatches

	if batchNum < 1 || batchNum > totalBatches {
		result.Error = fmt.Sprintf("Invalid batch number %d. Valid range: 1-%d", batchNum, totalBatches)
		return failResult(stdout, result)
	}

	// Batch membership follows manifest order; only the still-missing
	// sections of the batch get prompt files.
	var missing []string
	for _, name := range workflow.BatchSections(defined, batchNum) {
		if !progress.IsCompleted(name) {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		result.Success = true
		result.Message = fmt.Sprintf("Batch %d sections already written. Nothing to do.", batchNum)
		return printResult(stdout, result)
	}

	template, err := loadPromptTemplate(pluginRoot)
	if err != nil {
		result.Error = err.Error()
		result.Sections = missing
		return failResult(stdout, result)
	}

	promptsDir := filepath.Join(planningDir, constants.SectionsDirName, constants.PromptsDirName)
	if err := os.MkdirAll(promptsDir, 0o750); err != nil {
		result.Error = fmt.Sprintf("Cannot create prompts directory: %s", err)
		result.Sections = missing
		return failResult(stdout, result)
	}

	absPlanningDir, err := filepath.Abs(planningDir)
	if err != nil {
		absPlanningDir = planningDir
	}

	for _, name := range missing {
		filled := fillPromptTemplate(template, absPlanningDir, name)
		promptFile := filepath.Join(promptsDir, name+"-prompt.md")
		if writeErr := os.WriteFile(promptFile, []byte(filled), promptFilePerm); writeErr != nil {
			result.Error = fmt.Sprintf("Cannot write prompt file: %s", writeErr)
			result.Sections = missing
			return failResult(stdout, result)
		}
		result.Sections = append(result.Sections, name+".md")
		result.PromptFiles = append(result.PromptFiles, promptFile)
	}

	logger.Info().Int("batch", batchNum).Int("prompts", len(result.PromptFiles)).Msg("batch prompt files written")

	result.Success = true
	return printResult(stdout, result)
}

// loadPromptTemplate reads the section_writer prompt template from the
// plugin root.
func loadPromptTemplate(pluginRoot string) (string, error) {
	path := filepath.Join(pluginRoot, "prompts", "section_writer", "prompt.md")
	data, err := os.ReadFile(path) //#nosec G304 -- path is derived from the session's plugin root
	if err != nil {
		return "", fmt.Errorf("%w: %s", dperrors.ErrPromptTemplateNotFound, path)
	}
	return strings.TrimSpace(string(data)), nil
}

// fillPromptTemplate substitutes the template placeholders for one section.
func fillPromptTemplate(template, planningDir, sectionName string) string {
	replacer := strings.NewReplacer(
		"{PLANNING_DIR}", planningDir,
		"{SECTION_FILENAME}", sectionName+".md",
		"{SECTION_NAME}", sectionName,
	)
	return replacer.Replace(template)
}
