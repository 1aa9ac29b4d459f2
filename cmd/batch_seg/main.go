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
	inputPath := flag.String("input", "data/text.txt", "Input file path")
	outputPath := flag.String("output", "data/corpus.txt", "Output corpus file path")
	configPath := flag.String("config", "", "Path to config.toml")
	dictPath := flag.String("dict", "", "Dictionary path, overrides the config")
	useHMM := flag.Bool("hmm", false, "Use the HMM for unknown words")
	flag.Parse()

	log := logger.New("batch")

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatal("Failed to load config", "err", err)
	}
	if *dictPath != "" {
		cfg.Dict.Main = *dictPath
	}

	// 1. Load engine
	eng, err := engine.Open(cfg, engine.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to load engine", "err", err)
	}
	stats, _ := eng.Stats()
	log.Info("Loaded dictionary", "path", cfg.Dict.Main, "words", stats.Words, "total", stats.TotalFreq)

	// 2. Open Files
	inFile, err := os.Open(*inputPath)
	if err != nil {
		log.Fatal("Failed to open input file", "err", err)
	}
	defer inFile.Close()

	outFile, err := os.Create(*outputPath)
	if err != nil {
		log.Fatal("Failed to create output file", "err", err)
	}
	defer outFile.Close()
	writer := bufio.NewWriter(outFile)

	// 3. Process
	scanner := bufio.NewScanner(inFile)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	count := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts, err := eng.Segment(line, *useHMM)
		if err != nil {
			log.Fatal("Segmentation failed", "line", count+1, "err", err)
		}
		words := parts[:0]
		for _, p := range parts {
			if strings.TrimSpace(p) != "" {
				words = append(words, p)
			}
		}

		// Write space-separated tokens
		fmt.Fprintln(writer, strings.Join(words, " "))
		count++
		if count%1000 == 0 {
			log.Info("Processing", "lines", count)
		}
	}

	if err := scanner.Err(); err != nil {
		log.Error("Error scanning file", "err", err)
	}

	if err := writer.Flush(); err != nil {
		log.Fatal("Failed to write output", "err", err)
	}
	log.Info("Done", "lines", count, "output", *outputPath)
}
