package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/teatak/fenci/config"
	"github.com/teatak/fenci/engine"
	"github.com/teatak/fenci/internal/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to config.toml (defaults are used when empty)")
	function := flag.String("func", "cut", "Function: cut, all, search, tag or keywords")
	useHMM := flag.Bool("hmm", true, "Use the HMM for unknown words")
	topK := flag.Int("topk", 5, "Number of keywords for -func keywords")
	dictPath := flag.String("dict", "", "Path to dictionary file, overrides the config")
	modelPath := flag.String("model", "", "Path to HMM model file, overrides the config")
	level := flag.String("log", "", "Log level, overrides the config")
	flag.Parse()

	log := logger.New("seg")

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatal("Failed to load config", "err", err)
	}
	if *dictPath != "" {
		cfg.Dict.Main = *dictPath
	}
	if *modelPath != "" {
		cfg.Dict.HMM = *modelPath
	}
	if *level == "" {
		*level = cfg.Log.Level
	}
	if err := logger.SetLevel(*level); err != nil {
		log.Fatal("Invalid log level", "err", err)
	}
	log = logger.New("seg")

	eng, err := engine.Open(cfg, engine.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to load engine", "err", err)
	}
	if *useHMM && !eng.HasHMM() {
		log.Warn("HMM model not found, running in pure DAG mode", "path", cfg.Dict.HMM)
	}

	// Helper to process text
	process := func(text string) (string, error) {
		switch *function {
		case "all":
			words, err := eng.SegmentAll(text)
			return strings.Join(words, " / "), err
		case "search":
			words, err := eng.SegmentForSearch(text, *useHMM)
			return strings.Join(words, " / "), err
		case "tag":
			pairs, err := eng.Tag(text)
			parts := make([]string, len(pairs))
			for i, p := range pairs {
				parts[i] = p.Word + "/" + p.Tag
			}
			return strings.Join(parts, " "), err
		case "keywords":
			words, err := eng.ExtractKeywordsWithWeight(text, *topK)
			parts := make([]string, len(words))
			for i, w := range words {
				parts[i] = fmt.Sprintf("%s:%.4f", w.Word, w.Weight)
			}
			return strings.Join(parts, " "), err
		default:
			words, err := eng.Segment(text, *useHMM)
			return strings.Join(words, " / "), err
		}
	}

	// If args provided (non-flag args), segment them
	args := flag.Args()
	if len(args) > 0 {
		out, err := process(strings.Join(args, " "))
		if err != nil {
			log.Fatal("Segmentation failed", "err", err)
		}
		fmt.Println(out)
		return
	}

	// Otherwise interactive mode
	fmt.Fprintln(os.Stderr, "Enter text to segment (Ctrl+D to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := scanner.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		out, err := process(text)
		if err != nil {
			log.Error("Segmentation failed", "err", err)
			continue
		}
		fmt.Println(out)
	}
}
