package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fpang/gemini-canvas-cli/internal/auth"
	"github.com/fpang/gemini-canvas-cli/internal/filehandler"
	"github.com/fpang/gemini-canvas-cli/internal/gemini"
	"github.com/fpang/gemini-canvas-cli/internal/logging"
	"github.com/fpang/gemini-canvas-cli/internal/quota"
	"github.com/fpang/gemini-canvas-cli/internal/workflow"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// CLI flags
var (
	promptFlag    string
	negativeFlag  string
	aspectFlag    string
	imageFlag     string
	modelFlag     string
	outputDirFlag string
	guiFlag       bool
)

// rootCmd is the main Cobra command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "canvas-cli",
	Short: "AI image generation studio with a daily quota",
	Long: `Canvas CLI turns a text prompt - optionally paired with a source image -
into a generated image via a Gemini image model.

Every generation counts against a local quota of 20 per day. Successful
generations land in a session history, and any generated image can be
"extended": it becomes the source image for the next generation, which asks
the model for the natural continuation of the scene.

Examples:
  canvas-cli                                      # Interactive session
  canvas-cli -p "a red lighthouse at dusk"        # One-shot generation
  canvas-cli -p "make it snow" -i photo.jpg       # One-shot edit
  canvas-cli -p "a quiet harbor" -a 16:9 -n "boats, people"
  canvas-cli --gui                                # Native dialogs for pickers`,
	Run: runMain,
}

func init() {
	rootCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "Prompt for one-shot generation (omit for interactive mode)")
	rootCmd.Flags().StringVarP(&negativeFlag, "negative", "n", "", "Negative prompt (qualities to avoid)")
	rootCmd.Flags().StringVarP(&aspectFlag, "aspect", "a", string(workflow.AspectSquare), "Aspect ratio: 1:1, 16:9, or 9:16")
	rootCmd.Flags().StringVarP(&imageFlag, "image", "i", "", "Source image file for edit mode")
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "Gemini image model (default from GEMINI_MODEL or "+gemini.DefaultModelName+")")
	rootCmd.Flags().StringVarP(&outputDirFlag, "output-dir", "o", ".", "Directory for saved images and exports")
	rootCmd.Flags().BoolVar(&guiFlag, "gui", false, "Use native dialogs for file picking and confirmations")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runMain is the main execution logic called by Cobra.
func runMain(cmd *cobra.Command, args []string) {
	logging.Init()

	aspect, ok := workflow.ParseAspectRatio(aspectFlag)
	if !ok {
		log.Fatal().Str("aspect", aspectFlag).Msg("Aspect ratio must be 1:1, 16:9, or 9:16")
	}

	// Initialize and validate Gemini credentials
	apiKey, err := auth.GetAPIKey()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to retrieve API key")
	}

	ctx := context.Background()
	sdkClient, err := auth.NewSDKClient(ctx, apiKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Gemini client")
	}

	log.Info().Msg("connection successful - Gemini client initialized")

	if err := auth.ValidateAPIKey(ctx, sdkClient); err != nil {
		handleValidationError(err)
	}

	log.Info().Msg("API key validation complete - ready for operations")

	model := modelFlag
	if model == "" {
		model = gemini.GetModelName()
	}

	service, err := gemini.NewClient(apiKey, model)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create generation client")
	}

	// Quota storage degrades to in-memory when the file store is unavailable.
	var store quota.Store
	quotaPath := "(in-memory)"
	fileStore, err := quota.NewFileStore()
	if err != nil {
		log.Warn().Err(err).Msg("Quota file unavailable; quota will not persist across sessions")
		store = &quota.MemStore{}
	} else {
		store = fileStore
		quotaPath = fileStore.Path()
	}
	tracker := quota.NewTracker(store, nil)

	orch := workflow.NewOrchestrator(service, tracker, nil)
	orch.SetAspectRatio(aspect)

	logging.NewStartupLogger("canvas-cli").
		Config("session_id", uuid.NewString()).
		Config("model", model).
		Config("quota_file", quotaPath).
		Config("output_dir", outputDirFlag).
		Feature("gui", guiFlag).
		Feature("one_shot", promptFlag != "").
		Log()

	if imageFlag != "" {
		if err := loadSourceImage(orch, imageFlag); err != nil {
			log.Fatal().Err(err).Str("path", imageFlag).Msg("failed to load source image")
		}
	}

	if promptFlag != "" {
		runOneShot(ctx, orch, tracker)
		return
	}

	runSession(ctx, orch, tracker)
}

// runOneShot performs a single generation from flags and saves the result.
func runOneShot(ctx context.Context, orch *workflow.Orchestrator, tracker *quota.Tracker) {
	orch.SetPrompt(promptFlag)
	orch.SetNegativePrompt(negativeFlag)

	entry, err := orch.Generate(ctx)
	if err != nil {
		fmt.Println(workflowErrorMessage(err))
		os.Exit(1)
	}

	path, err := filehandler.SaveEntry(*entry, outputDirFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to save generated image")
	}

	fmt.Printf("✅ Saved %s (%d generations left today)\n", path, tracker.Remaining())
}

// loadSourceImage reads an image from disk into the session and prints a
// short metadata summary when the file carries EXIF data.
func loadSourceImage(orch *workflow.Orchestrator, path string) error {
	src, err := filehandler.LoadSourceImage(path)
	if err != nil {
		return err
	}
	orch.SetSourceImage(src)

	fmt.Printf("🖼  Source image: %s (%s)\n", src.DisplayName, src.MediaType)
	if info, err := filehandler.ExtractImageInfo(path); err == nil {
		fmt.Printf("    %s\n", info.Summary())
	}
	return nil
}

// handleValidationError processes auth.ValidationError and exits with appropriate messaging.
func handleValidationError(err error) {
	var validationErr *auth.ValidationError
	if errors.As(err, &validationErr) {
		switch validationErr.Type {
		case auth.ErrTypeNoKey:
			log.Fatal().Msg("No API key configured. Set GEMINI_API_KEY or store an encrypted key at ~/.canvas-cli/credentials.gpg")
		case auth.ErrTypeInvalidKey:
			log.Fatal().Err(err).Msg("Invalid API key. Please check your API key and try again")
		case auth.ErrTypeNetworkError:
			log.Fatal().Err(err).Msg("Network error. Please check your internet connection")
		case auth.ErrTypeQuotaExceeded:
			log.Fatal().Err(err).Msg("API quota exceeded. Please try again later or check your usage limits")
		default:
			log.Fatal().Err(err).Msg("API key validation failed")
		}
	} else {
		log.Fatal().Err(err).Msg("unexpected error during API key validation")
	}
	os.Exit(1)
}

// workflowErrorMessage maps a workflow error to a single user-facing line.
func workflowErrorMessage(err error) string {
	var wErr *workflow.WorkflowError
	if !errors.As(err, &wErr) {
		return "❌ " + err.Error()
	}

	switch wErr.Kind {
	case workflow.ErrKindValidation:
		return "⚠️  " + wErr.Message
	case workflow.ErrKindQuota:
		return "⛔ " + wErr.Message
	case workflow.ErrKindFormat:
		return "❌ " + wErr.Message
	case workflow.ErrKindBusy:
		return "⏳ " + wErr.Message
	default:
		return "❌ " + wErr.Error()
	}
}
