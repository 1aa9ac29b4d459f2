package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/teatak/fenci/hmm"
	"github.com/teatak/fenci/internal/logger"
	"github.com/teatak/fenci/util"
)

func main() {
	inputPath := flag.String("input", "", "Path to the segmented corpus file (space separated)")
	dictOutput := flag.String("dict", "", "Path to save the word frequency dictionary (skipped when empty)")
	modelOutput := flag.String("hmm", "data/hmm_model.utf8", "Path to save the trained HMM model (skipped when empty)")
	flag.Parse()

	log := logger.New("train")

	if *inputPath == "" {
		log.Fatal("Please provide an input file using -input flag")
	}

	if *dictOutput != "" {
		if err := buildDictionary(*inputPath, *dictOutput); err != nil {
			log.Fatal("Failed to build dictionary", "err", err)
		}
		log.Info("Dictionary saved", "path", *dictOutput)
	}

	if *modelOutput != "" {
		n, err := trainModel(*inputPath, *modelOutput)
		if err != nil {
			log.Fatal("Failed to train HMM", "err", err)
		}
		log.Info("HMM model saved", "path", *modelOutput, "sentences", n)
	}
}

func buildDictionary(inputPath, outputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	counts := make(map[string]int)
	scanner := bufio.NewScanner(file)

	// Set buffer size to handle potentially long lines
	const maxCapacity = 1024 * 1024
	buf := make([]byte, maxCapacity)
	scanner.Buffer(buf, maxCapacity)

	for scanner.Scan() {
		for _, word := range strings.Fields(scanner.Text()) {
			if util.IsPunctuation(word) {
				continue
			}
			counts[word]++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan input: %w", err)
	}

	// Sort by frequency descending for better readability
	type kv struct {
		Key   string
		Value int
	}
	ss := make([]kv, 0, len(counts))
	for k, v := range counts {
		ss = append(ss, kv{k, v})
	}
	sort.Slice(ss, func(i, j int) bool {
		if ss[i].Value != ss[j].Value {
			return ss[i].Value > ss[j].Value
		}
		return ss[i].Key < ss[j].Key
	})

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	writer := bufio.NewWriter(outFile)
	for _, kv := range ss {
		if _, err := fmt.Fprintf(writer, "%s %d\n", kv.Key, kv.Value); err != nil {
			outFile.Close()
			return err
		}
	}
	if err := writer.Flush(); err != nil {
		outFile.Close()
		return err
	}
	return outFile.Close()
}

func trainModel(inputPath, outputPath string) (int, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return 0, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	sentences, err := hmm.LoadCorpus(file)
	if err != nil {
		return 0, fmt.Errorf("read corpus: %w", err)
	}
	if len(sentences) == 0 {
		return 0, fmt.Errorf("corpus %s has no sentences", inputPath)
	}
	model := hmm.Train(sentences)

	outFile, err := os.Create(outputPath)
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	if err := model.Save(outFile); err != nil {
		outFile.Close()
		return 0, err
	}
	if err := outFile.Close(); err != nil {
		return 0, fmt.Errorf("close output: %w", err)
	}
	return len(sentences), nil
}
