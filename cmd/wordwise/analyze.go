package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/zombar/wordwise/internal/analyzer"
	"github.com/zombar/wordwise/internal/emotion"
	"github.com/zombar/wordwise/internal/languagetool"
	"github.com/zombar/wordwise/internal/models"
	"github.com/zombar/wordwise/internal/syntax"
)

const snippetWidth = 48

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a text file, or stdin when no file is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("platform", "", "target platform (linkedin|twitter|youtube|...)")
	analyzeCmd.Flags().String("field", "", "field of the platform the text is for (title|description|...)")
	analyzeCmd.Flags().Bool("json", false, "print the raw analysis result as JSON")
	analyzeCmd.Flags().Bool("no-grammar", false, "skip the LanguageTool grammar check")
	analyzeCmd.Flags().String("languagetool-url", "http://localhost:8010", "LanguageTool server URL")
	analyzeCmd.Flags().String("language", "en-US", "LanguageTool language")
	analyzeCmd.Flags().String("emotion", "lexicon", "emotion backend (lexicon|none)")
	analyzeCmd.Flags().StringSlice("dict", nil, "words to accept as correctly spelled")
	analyzeCmd.Flags().Duration("timeout", 30*time.Second, "analysis timeout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	platform, _ := flags.GetString("platform")
	field, _ := flags.GetString("field")
	asJSON, _ := flags.GetBool("json")
	noGrammar, _ := flags.GetBool("no-grammar")
	ltURL, _ := flags.GetString("languagetool-url")
	lang, _ := flags.GetString("language")
	emotionBackend, _ := flags.GetString("emotion")
	dict, _ := flags.GetStringSlice("dict")
	timeout, _ := flags.GetDuration("timeout")

	text, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no text to analyze")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	// keep analyzer warnings off stdout
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))

	opts := []analyzer.Option{
		analyzer.WithSentenceParser(syntax.New()),
		analyzer.WithParallel(true),
		analyzer.WithLogger(logger),
	}
	switch emotionBackend {
	case "lexicon":
		opts = append(opts, analyzer.WithEmotionClassifier(emotion.NewLexicon()))
	case "none":
	default:
		return fmt.Errorf("unknown emotion backend %q (lexicon|none)", emotionBackend)
	}
	if !noGrammar {
		lt, err := languagetool.New(ctx, ltURL, lang)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s grammar check disabled: %v\n", color.YellowString("warning:"), err)
		} else {
			opts = append(opts, analyzer.WithGrammarChecker(lt))
		}
	}

	result := analyzer.New(opts...).Analyze(ctx, analyzer.Request{
		Text:       text,
		Platform:   platform,
		Field:      field,
		Dictionary: dict,
	})

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	render(cmd.OutOrStdout(), text, result)
	return nil
}

// readInput returns the contents of the named file, or all of stdin
func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}

var (
	labelColors = map[models.SuggestionType]*color.Color{
		models.TypeGrammar:     color.New(color.FgRed, color.Bold),
		models.TypeStyle:       color.New(color.FgYellow, color.Bold),
		models.TypeReadability: color.New(color.FgCyan, color.Bold),
		models.TypeEmotion:     color.New(color.FgMagenta, color.Bold),
		models.TypeSEO:         color.New(color.FgBlue, color.Bold),
	}
	snippetColor = color.New(color.Faint)
	fixColor     = color.New(color.FgGreen)
)

// render prints one block per suggestion, quoting the flagged text
func render(w io.Writer, text string, result models.AnalysisResult) {
	if len(result.Suggestions) == 0 {
		fmt.Fprintln(w, fixColor.Sprint("No suggestions."))
		return
	}

	units := utf16.Encode([]rune(text))
	for _, s := range result.Suggestions {
		label := labelColors[s.Type()].Sprintf("%-11s", s.Type())

		switch v := s.(type) {
		case models.GrammarSuggestion:
			fmt.Fprintf(w, "%s %s\n", label, v.Message)
		case models.StyleSuggestion:
			fmt.Fprintf(w, "%s %s\n", label, v.Message)
		case models.ReadabilitySuggestion:
			fmt.Fprintf(w, "%s %s\n", label, v.Message)
		case models.EmotionSuggestion:
			parts := make([]string, 0, len(v.Emotions))
			for _, e := range v.Emotions {
				parts = append(parts, fmt.Sprintf("%s %.0f%%", e.Label, e.Score*100))
			}
			fmt.Fprintf(w, "%s %s\n", label, strings.Join(parts, ", "))
		case models.SEOSuggestion:
			fmt.Fprintf(w, "%s %s\n", label, v.Message)
		}

		if sp, ok := s.(models.Spanned); ok {
			start, end := sp.Span()
			fmt.Fprintf(w, "            %s\n", snippetColor.Sprintf("%q", snippet(units, start, end)))
		}
		if g, ok := s.(models.GrammarSuggestion); ok && len(g.Replacements) > 0 {
			fmt.Fprintf(w, "            try: %s\n", fixColor.Sprint(strings.Join(g.Replacements, ", ")))
		}
	}
}

// snippet returns the text between UTF-16 offsets, on one line and cut to
// snippetWidth display columns
func snippet(units []uint16, start, end int) string {
	start = max(0, min(start, len(units)))
	end = max(start, min(end, len(units)))
	s := strings.Join(strings.Fields(string(utf16.Decode(units[start:end]))), " ")
	return runewidth.Truncate(s, snippetWidth, "...")
}
