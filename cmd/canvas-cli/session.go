package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fpang/gemini-canvas-cli/internal/cli"
	"github.com/fpang/gemini-canvas-cli/internal/filehandler"
	"github.com/fpang/gemini-canvas-cli/internal/quota"
	"github.com/fpang/gemini-canvas-cli/internal/workflow"
	"github.com/rs/zerolog/log"
)

// runSession drives the interactive command loop until the user quits.
func runSession(ctx context.Context, orch *workflow.Orchestrator, tracker *quota.Tracker) {
	reader := bufio.NewReader(os.Stdin)

	printBanner(tracker)

	for {
		line, ok := cli.PromptLine(reader, "canvas> ")
		if !ok {
			// Stdin is gone; no more commands can ever arrive.
			fmt.Println()
			fmt.Println("👋 Goodbye!")
			return
		}
		command, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch strings.ToLower(command) {
		case "":
			continue
		case "help", "?":
			printHelp()
		case "prompt", "p":
			orch.SetPrompt(arg)
			fmt.Printf("✏️  Prompt set (%d chars)\n", len(arg))
		case "negative", "n":
			orch.SetNegativePrompt(arg)
			if arg == "" {
				fmt.Println("✏️  Negative prompt cleared")
			} else {
				fmt.Printf("✏️  Negative prompt set (%d chars)\n", len(arg))
			}
		case "aspect", "a":
			if aspect, ok := workflow.ParseAspectRatio(arg); ok {
				orch.SetAspectRatio(aspect)
				fmt.Printf("📐 Aspect ratio: %s\n", aspect)
			} else {
				fmt.Println("⚠️  Aspect ratio must be 1:1, 16:9, or 9:16")
			}
		case "image", "i":
			handleImage(orch, arg)
		case "clearimage":
			orch.SetSourceImage(nil)
			fmt.Println("🗑  Source image cleared; next generation creates from scratch")
		case "generate", "g":
			runGeneration(orch.Generate, ctx, orch, tracker)
		case "extend", "x":
			runGeneration(orch.Extend, ctx, orch, tracker)
		case "retry", "r":
			runGeneration(orch.Retry, ctx, orch, tracker)
		case "rate":
			handleRate(orch, arg)
		case "status", "s":
			printStatus(orch, tracker)
		case "history", "h":
			printHistory(orch)
		case "save":
			handleSave(orch, arg)
		case "export":
			handleExport(orch, arg)
		case "quota":
			fmt.Printf("📊 %d of %d generations left today\n", tracker.Remaining(), quota.MaxPerDay)
		case "clear":
			if cli.Confirm(reader, "Clear the session history?", guiFlag) {
				orch.ClearHistory()
				fmt.Println("🗑  History cleared")
			}
		case "reset":
			if cli.Confirm(reader, "Reset the whole session? Prompt, image, history and ratings are discarded.", guiFlag) {
				orch.Reset()
				fmt.Println("🔄 Session reset")
			}
		case "quit", "exit", "q":
			fmt.Println("👋 Goodbye!")
			return
		default:
			fmt.Printf("⚠️  Unknown command %q - type 'help' for the command list\n", command)
		}
	}
}

// runGeneration wraps Generate/Retry/Extend with shared progress and result output.
func runGeneration(op func(context.Context) (*workflow.HistoryEntry, error), ctx context.Context, orch *workflow.Orchestrator, tracker *quota.Tracker) {
	fmt.Println("🎨 Generating...")
	start := time.Now()

	entry, err := op(ctx)
	if err != nil {
		fmt.Println(workflowErrorMessage(err))
		return
	}

	fmt.Printf("✅ %s ready in %s (%d generations left today)\n",
		entry.FileName, time.Since(start).Round(time.Millisecond), tracker.Remaining())
	fmt.Println("    'save 1' writes it to disk, 'extend' continues the scene")
}

func handleImage(orch *workflow.Orchestrator, arg string) {
	path := arg
	if path == "" {
		if !guiFlag {
			fmt.Println("⚠️  Usage: image <path> (or run with --gui for a file picker)")
			return
		}
		picked, err := cli.PickImageFile()
		if err != nil {
			fmt.Printf("❌ File picker failed: %v\n", err)
			return
		}
		if picked == "" {
			return
		}
		path = picked
	}

	if err := loadSourceImage(orch, path); err != nil {
		fmt.Printf("❌ %v\n", err)
	}
}

func handleRate(orch *workflow.Orchestrator, arg string) {
	stars, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Println("⚠️  Usage: rate <1-5>")
		return
	}
	if err := orch.Rate(stars); err != nil {
		fmt.Println(workflowErrorMessage(err))
		return
	}
	fmt.Printf("⭐ Rated %s\n", strings.Repeat("★", stars)+strings.Repeat("☆", 5-stars))
}

func handleSave(orch *workflow.Orchestrator, arg string) {
	entries := orch.History()
	if len(entries) == 0 {
		fmt.Println("⚠️  Nothing to save yet - generate an image first")
		return
	}

	index := 1
	if arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(entries) {
			fmt.Printf("⚠️  Usage: save <1-%d> (1 is the newest)\n", len(entries))
			return
		}
		index = n
	}

	path, err := filehandler.SaveEntry(entries[index-1], outputDirFlag)
	if err != nil {
		fmt.Printf("❌ Save failed: %v\n", err)
		return
	}
	fmt.Printf("💾 Saved %s\n", path)
}

func handleExport(orch *workflow.Orchestrator, arg string) {
	entries := orch.History()
	outPath := arg
	if outPath == "" {
		outPath = filepath.Join(outputDirFlag, fmt.Sprintf("canvas-history-%s.tar.zst", time.Now().Format("20060102-150405")))
	}

	if err := filehandler.ExportHistory(entries, outPath); err != nil {
		fmt.Printf("❌ Export failed: %v\n", err)
		return
	}
	fmt.Printf("📦 Exported %d images to %s\n", len(entries), outPath)
	log.Info().Int("count", len(entries)).Str("path", outPath).Msg("History exported")
}

func printBanner(tracker *quota.Tracker) {
	fmt.Println("🎨 Canvas CLI - Gemini image studio")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("📊 %d of %d generations left today\n", tracker.Remaining(), quota.MaxPerDay)
	fmt.Println("Type 'help' for commands, 'quit' to exit")
	fmt.Println()
}

func printHelp() {
	fmt.Println(`Commands:
  prompt <text>     Set the prompt
  negative <text>   Set the negative prompt (empty clears it)
  aspect <ratio>    Set aspect ratio: 1:1, 16:9, or 9:16
  image [path]      Load a source image (picker dialog with --gui)
  clearimage        Remove the source image
  generate, g       Generate an image from the current inputs
  extend, x         Continue the scene of the last generated image
  retry, r          Re-run the last generation request unchanged
  rate <1-5>        Rate the last generated image
  status, s         Show the current session state
  history, h        List generated images, newest first
  save [n]          Save the n-th history image to disk (default newest)
  export [path]     Export all history images as a .tar.zst archive
  quota             Show the remaining daily quota
  clear             Clear the history (asks for confirmation)
  reset             Reset the whole session (asks for confirmation)
  quit              Exit`)
}

func printStatus(orch *workflow.Orchestrator, tracker *quota.Tracker) {
	fmt.Printf("🔎 State: %s\n", orch.State())
	mode := workflow.ModeCreate
	if src := orch.Source(); src != nil {
		mode = workflow.ModeEdit
		fmt.Printf("🖼  Source image: %s (%s)\n", src.DisplayName, src.MediaType)
	}
	fmt.Printf("🧭 Mode: %s | Aspect: %s\n", mode, orch.AspectRatio())
	if p := orch.Prompt(); p != "" {
		fmt.Printf("✏️  Prompt: %s\n", p)
	}
	if n := orch.NegativePrompt(); n != "" {
		fmt.Printf("🚫 Negative: %s\n", n)
	}
	if e := orch.LastError(); e != "" {
		fmt.Printf("❌ Last error: %s\n", e)
	}
	if r := orch.Rating(); r > 0 {
		fmt.Printf("⭐ Rating: %d/5\n", r)
	}
	fmt.Printf("📊 Quota: %d of %d left | History: %d\n", tracker.Remaining(), quota.MaxPerDay, len(orch.History()))
}

func printHistory(orch *workflow.Orchestrator) {
	entries := orch.History()
	if len(entries) == 0 {
		fmt.Println("📭 No images generated yet")
		return
	}

	fmt.Printf("🗂  %d image(s), newest first:\n", len(entries))
	for i, entry := range entries {
		fmt.Printf("  %2d. %s  (%s)\n", i+1, entry.FileName, entry.CreatedAt)
	}
}
