package engine

import (
	"fmt"
	"io"
	"os"

	"github.com/teatak/fenci/config"
	"github.com/teatak/fenci/dictionary"
	"github.com/teatak/fenci/hmm"
	"github.com/teatak/fenci/keyword"
	"github.com/teatak/fenci/util"
)

// Open builds an engine from the files named by cfg. The main dictionary
// (or the snapshot) must exist; the other files are skipped with a warning
// when missing.
func Open(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	opts = append([]Option{
		WithDictionaryOptions(
			dictionary.WithFloorFreq(cfg.Segment.FloorFreq),
			dictionary.WithDefaultUserFreq(cfg.Segment.DefaultUserFreq),
		),
		WithSearchSubLengths(cfg.Segment.SearchSubLength...),
		WithUnknownTag(cfg.Segment.UnknownTag),
		WithCacheSize(cfg.Segment.CacheSize),
	}, opts...)
	o := buildOptions(opts)

	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()
	open := func(name, path string, required bool) (io.Reader, error) {
		if !util.FileExists(path) {
			if required {
				return nil, fmt.Errorf("%w: %s file %q not found", dictionary.ErrDictionaryLoad, name, path)
			}
			if path != "" {
				o.logger.Warn("Skipping missing file", "kind", name, "path", path)
			}
			return nil, nil
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", dictionary.ErrDictionaryLoad, err)
		}
		closers = append(closers, f)
		o.logger.Debug("Opened file", "kind", name, "path", path)
		return f, nil
	}

	if util.FileExists(cfg.Dict.Snapshot) {
		return openSnapshot(cfg, o, open)
	}

	var src Sources
	var err error
	if src.Dict, err = open("dictionary", cfg.Dict.Main, true); err != nil {
		return nil, err
	}
	if src.User, err = open("user dictionary", cfg.Dict.User, false); err != nil {
		return nil, err
	}
	if src.HMM, err = open("hmm model", cfg.Dict.HMM, false); err != nil {
		return nil, err
	}
	if src.IDF, err = open("idf", cfg.Dict.IDF, false); err != nil {
		return nil, err
	}
	if src.StopWords, err = open("stop words", cfg.Dict.StopWords, false); err != nil {
		return nil, err
	}
	return New(src, opts...)
}

func openSnapshot(cfg *config.Config, o *options, open func(name, path string, required bool) (io.Reader, error)) (*Engine, error) {
	r, err := open("snapshot", cfg.Dict.Snapshot, true)
	if err != nil {
		return nil, err
	}
	dict, err := dictionary.ReadSnapshot(r, o.dictOpts...)
	if err != nil {
		return nil, err
	}

	var model *hmm.Model
	if r, err := open("hmm model", cfg.Dict.HMM, false); err != nil {
		return nil, err
	} else if r != nil {
		if model, err = hmm.Load(r); err != nil {
			return nil, err
		}
	}

	var idfSrc, stopSrc io.Reader
	if idfSrc, err = open("idf", cfg.Dict.IDF, false); err != nil {
		return nil, err
	}
	if stopSrc, err = open("stop words", cfg.Dict.StopWords, false); err != nil {
		return nil, err
	}
	idf, err := keyword.LoadIDF(idfSrc)
	if err != nil {
		return nil, err
	}
	stop, err := dictionary.LoadStopWords(stopSrc)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("Loaded snapshot", "path", cfg.Dict.Snapshot, "words", dict.Len(), "hmm", model != nil)
	return build(dict, model, idf, stop, o)
}

// SaveSnapshot writes the engine's dictionary to path.
func (e *Engine) SaveSnapshot(path string) error {
	if e == nil {
		return ErrInvalidHandle
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := e.dict.WriteSnapshot(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
